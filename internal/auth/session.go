package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/user-account-service/internal/clock"
	"github.com/spec-kit/user-account-service/internal/domain"
	"github.com/spec-kit/user-account-service/internal/repository"
)

// DefaultSessionWindow is the staleness window for issued tokens: a session
// idle for this long expires, while one used at least once per window lives
// indefinitely.
const DefaultSessionWindow = 7 * 24 * time.Hour

const tokenEntropyBytes = 32

// Principal is the authenticated identity resolved for a request.
type Principal struct {
	UserID   string
	Username string
}

// SessionAuthority issues, validates and revokes opaque session tokens. It is
// the only component that moves last_used_at or deletes tokens; the store
// underneath is policy-free.
type SessionAuthority struct {
	tokens repository.TokenRepository
	clock  clock.Clock
	window time.Duration
}

// NewSessionAuthority builds the authority. A non-positive window falls back
// to the seven-day default.
func NewSessionAuthority(tokens repository.TokenRepository, clk clock.Clock, window time.Duration) *SessionAuthority {
	if window <= 0 {
		window = DefaultSessionWindow
	}
	return &SessionAuthority{tokens: tokens, clock: clk, window: window}
}

// Window returns the configured staleness window.
func (s *SessionAuthority) Window() time.Duration {
	return s.window
}

// Issue creates and persists a fresh opaque token for userID and returns the
// raw token value.
func (s *SessionAuthority) Issue(ctx context.Context, userID string) (string, error) {
	value, err := generateTokenValue()
	if err != nil {
		return "", err
	}

	token := &domain.SessionToken{
		Token:      value,
		UserID:     userID,
		LastUsedAt: s.clock.Now(),
	}
	if err := s.tokens.Put(ctx, token); err != nil {
		return "", storageErr("put", err)
	}
	return value, nil
}

// Validate resolves a principal from a token value, sliding last_used_at
// forward on success. Missing tokens fail with ErrTokenNotFound; stale ones
// are evicted on the spot and fail with ErrTokenExpired.
func (s *SessionAuthority) Validate(ctx context.Context, value string) (*Principal, error) {
	now := s.clock.Now()
	staleBefore := now.Add(-s.window)

	userID, refreshed, err := s.tokens.RefreshUsage(ctx, value, now, staleBefore)
	if err != nil {
		return nil, storageErr("refresh", err)
	}
	if refreshed {
		return &Principal{UserID: userID}, nil
	}

	// Refresh refused: the token is either absent or stale.
	if _, err := s.tokens.Get(ctx, value); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		return nil, storageErr("get", err)
	}

	// Found but stale: evict immediately so no later read can disagree.
	if err := s.tokens.DeleteByValue(ctx, value); err != nil {
		return nil, storageErr("delete", err)
	}
	return nil, ErrTokenExpired
}

// Revoke deletes one token by value. Revoking an unknown token is not an
// error.
func (s *SessionAuthority) Revoke(ctx context.Context, value string) error {
	if err := s.tokens.DeleteByValue(ctx, value); err != nil {
		return storageErr("delete", err)
	}
	return nil
}

// RevokeAll deletes every token owned by userID.
func (s *SessionAuthority) RevokeAll(ctx context.Context, userID string) error {
	if err := s.tokens.DeleteBySubject(ctx, userID); err != nil {
		return storageErr("delete subject", err)
	}
	return nil
}

// SweepExpired deletes every token stale as of now and returns the number
// removed. Safe to run concurrently with Validate/Issue/Revoke.
func (s *SessionAuthority) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	removed, err := s.tokens.DeleteWhereOlderThan(ctx, now.Add(-s.window))
	if err != nil {
		return 0, storageErr("sweep", err)
	}
	return removed, nil
}

func generateTokenValue() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
