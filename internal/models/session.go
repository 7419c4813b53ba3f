package models

import (
	"time"
)

// Session is a first-party admin login session, referenced by the session
// cookie. Sessions expire and may be deleted, unlike credential records.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Principal is an authenticated caller: the site owner via a first-party
// session, or a client acting under a bearer token. The two are distinct
// trust tiers; some operations are session-only.
type Principal struct {
	// ViaSession is true when the caller authenticated with the admin
	// session cookie rather than a token.
	ViaSession bool

	// Scopes granted to this principal. Session principals carry the full
	// scope universe.
	Scopes []string

	// Token is the backing record for bearer principals, nil otherwise.
	Token *BearerToken
}
