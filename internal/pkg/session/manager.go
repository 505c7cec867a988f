// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	xerrors "billing-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

type Manager struct {
	client redis.Cmdable
}

func NewManager(client redis.Cmdable) *Manager {
	return &Manager{client: client}
}

// CreateSession stores a new session in Redis until it expires
func (m *Manager) CreateSession(ctx context.Context, session *SessionData) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := m.client.Set(ctx, m.sessionKey(session.OperatorID, session.JTI), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// GetSession returns the live session for the token, or ErrUnauthorized when
// it has expired or been invalidated.
func (m *Manager) GetSession(ctx context.Context, operatorID int64, jti string) (*SessionData, error) {
	data, err := m.client.Get(ctx, m.sessionKey(operatorID, jti)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, xerrors.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// InvalidateSession removes a session and blacklists its token for the rest
// of its lifetime.
func (m *Manager) InvalidateSession(ctx context.Context, operatorID int64, jti string, remaining time.Duration) error {
	if err := m.client.Del(ctx, m.sessionKey(operatorID, jti)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if remaining <= 0 {
		return nil
	}
	return m.BlacklistToken(ctx, jti, remaining)
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := m.client.Exists(ctx, m.blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken adds a token to the blacklist
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	return m.client.Set(ctx, m.blacklistKey(jti), "1", ttl).Err()
}

func (m *Manager) sessionKey(operatorID int64, jti string) string {
	return fmt.Sprintf("session:%d:%s", operatorID, jti)
}

func (m *Manager) blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}
