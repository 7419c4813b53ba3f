package storage

import (
	"context"
	"sync"
	"time"

	"github.com/unrelentingtech/sellout/internal/models"
)

// MemoryStorage implements CredentialStore and SessionStorage in process
// memory. Credentials issued against it do not survive a restart, so it is
// only suitable for development and tests.
type MemoryStorage struct {
	codes    map[string]*models.AuthorizationCode
	tokens   map[string]*models.BearerToken
	sessions map[string]*models.Session
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	storage := &MemoryStorage{
		codes:    make(map[string]*models.AuthorizationCode),
		tokens:   make(map[string]*models.BearerToken),
		sessions: make(map[string]*models.Session),
	}

	// Expired sessions are reaped in the background; credential records are
	// retained on purpose.
	go storage.cleanupRoutine()

	return storage
}

func (m *MemoryStorage) GetCode(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.codes[codePrefix+code]
	if !exists {
		return nil, ErrNotFound
	}

	cp := *record
	return &cp, nil
}

func (m *MemoryStorage) PutCode(ctx context.Context, code *models.AuthorizationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *code
	m.codes[codePrefix+code.Code] = &cp
	return nil
}

func (m *MemoryStorage) GetToken(ctx context.Context, token string) (*models.BearerToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.tokens[tokenPrefix+token]
	if !exists {
		return nil, ErrNotFound
	}

	cp := *record
	return &cp, nil
}

func (m *MemoryStorage) PutToken(ctx context.Context, token *models.BearerToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *token
	m.tokens[tokenPrefix+token.Token] = &cp
	return nil
}

func (m *MemoryStorage) SaveSession(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStorage) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[sessionID]
	m.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if time.Now().After(session.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, sessionID)
		m.mu.Unlock()
		return nil, nil
	}

	return session, nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// cleanupRoutine runs every 5 minutes to clean up expired sessions.
func (m *MemoryStorage) cleanupRoutine() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.cleanup()
	}
}

func (m *MemoryStorage) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for sessionID, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, sessionID)
		}
	}
}
