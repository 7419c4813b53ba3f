package storage

import (
	"context"
	"errors"

	"github.com/unrelentingtech/sellout/internal/models"
)

// ErrNotFound is returned when a credential record does not exist.
var ErrNotFound = errors.New("record not found")

// CredentialStore persists authorization codes and bearer tokens. Records
// are written whole (Put is a full overwrite) and never deleted; codes and
// tokens share one keyspace under kind prefixes. Any backend failure other
// than ErrNotFound is a storage error and surfaces as a 5xx; retries are
// the caller's responsibility.
type CredentialStore interface {
	GetCode(ctx context.Context, code string) (*models.AuthorizationCode, error)
	PutCode(ctx context.Context, code *models.AuthorizationCode) error
	GetToken(ctx context.Context, token string) (*models.BearerToken, error)
	PutToken(ctx context.Context, token *models.BearerToken) error
}

// SessionStorage persists first-party admin sessions. GetSession returns
// (nil, nil) when the session is absent or expired.
type SessionStorage interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Key prefixes for the shared credential keyspace.
const (
	codePrefix  = "C-"
	tokenPrefix = "B-"
)
