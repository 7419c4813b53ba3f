package models

import (
	"time"
)

// AuthorizationCode is the persisted record for an issued authorization code.
// Codes are never deleted: redemption flips Used, so a replayed code is
// detectable against the retained record.
type AuthorizationCode struct {
	Code                string    `json:"code"`
	ClientID            string    `json:"client_id"`
	RedirectURI         string    `json:"redirect_uri"`
	State               string    `json:"state"`
	Scopes              []string  `json:"scopes"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	Host                string    `json:"host"`
	IssuedAt            time.Time `json:"issued_at"`
	Used                bool      `json:"used"`
}

// BearerToken is the persisted record for a minted access token. Revocation
// flips Revoked; the record itself is retained.
type BearerToken struct {
	Token           string    `json:"token"`
	ClientID        string    `json:"client_id"`
	Scopes          []string  `json:"scopes"`
	Host            string    `json:"host"`
	IssuedAt        time.Time `json:"issued_at"`
	Revoked         bool      `json:"revoked"`
	OriginatingCode string    `json:"originating_code"`
}
