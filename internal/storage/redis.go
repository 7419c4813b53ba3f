package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unrelentingtech/sellout/internal/models"
)

// RedisStorage implements CredentialStore and SessionStorage on one redis
// client. Credential records are stored without a TTL (they are retained for
// audit and replay detection); sessions expire with their cookie lifetime.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{
		client: client,
	}
}

func (r *RedisStorage) GetCode(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	key := fmt.Sprintf("cred:%s%s", codePrefix, code)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	var record models.AuthorizationCode
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization code: %w", err)
	}

	return &record, nil
}

func (r *RedisStorage) PutCode(ctx context.Context, code *models.AuthorizationCode) error {
	key := fmt.Sprintf("cred:%s%s", codePrefix, code.Code)

	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization code: %w", err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save authorization code: %w", err)
	}

	return nil
}

func (r *RedisStorage) GetToken(ctx context.Context, token string) (*models.BearerToken, error) {
	key := fmt.Sprintf("cred:%s%s", tokenPrefix, token)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bearer token: %w", err)
	}

	var record models.BearerToken
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bearer token: %w", err)
	}

	return &record, nil
}

func (r *RedisStorage) PutToken(ctx context.Context, token *models.BearerToken) error {
	key := fmt.Sprintf("cred:%s%s", tokenPrefix, token.Token)

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal bearer token: %w", err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save bearer token: %w", err)
	}

	return nil
}

func (r *RedisStorage) SaveSession(ctx context.Context, session *models.Session) error {
	key := fmt.Sprintf("session:%s", session.ID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (r *RedisStorage) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	key := fmt.Sprintf("session:%s", sessionID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		r.client.Del(ctx, key)
		return nil, nil
	}

	return &session, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, sessionID string) error {
	key := fmt.Sprintf("session:%s", sessionID)
	return r.client.Del(ctx, key).Err()
}
