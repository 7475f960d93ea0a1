package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/user-account-service/internal/domain"
)

// TokenRepository persists opaque session tokens. It is a passive store: the
// expiration window lives with the session authority and arrives here only as
// an explicit threshold parameter.
type TokenRepository interface {
	Get(ctx context.Context, value string) (*domain.SessionToken, error)
	Put(ctx context.Context, token *domain.SessionToken) error
	// RefreshUsage advances last_used_at to usedAt (never backwards) for a
	// token whose last use is after staleBefore. Returns the owning user id
	// and whether a row was refreshed, in one atomic statement.
	RefreshUsage(ctx context.Context, value string, usedAt, staleBefore time.Time) (string, bool, error)
	DeleteByValue(ctx context.Context, value string) error
	DeleteBySubject(ctx context.Context, userID string) error
	DeleteWhereOlderThan(ctx context.Context, threshold time.Time) (int64, error)
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a Postgres-backed implementation.
func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) Get(ctx context.Context, value string) (*domain.SessionToken, error) {
	const query = `
        SELECT token, user_id, last_used_at
        FROM session_tokens WHERE token=$1`

	var token domain.SessionToken
	if err := r.pool.QueryRow(ctx, query, value).Scan(
		&token.Token,
		&token.UserID,
		&token.LastUsedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) Put(ctx context.Context, token *domain.SessionToken) error {
	const query = `
        INSERT INTO session_tokens (token, user_id, last_used_at)
        VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, token.Token, token.UserID, token.LastUsedAt)
	return err
}

func (r *tokenRepository) RefreshUsage(ctx context.Context, value string, usedAt, staleBefore time.Time) (string, bool, error) {
	// GREATEST keeps last_used_at monotonic when validations race; the
	// staleBefore guard makes refresh-vs-sweep atomic in one statement.
	const query = `
        UPDATE session_tokens
        SET last_used_at = GREATEST(last_used_at, $2)
        WHERE token=$1 AND last_used_at > $3
        RETURNING user_id`

	var userID string
	err := r.pool.QueryRow(ctx, query, value, usedAt, staleBefore).Scan(&userID)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (r *tokenRepository) DeleteByValue(ctx context.Context, value string) error {
	const query = `DELETE FROM session_tokens WHERE token=$1`

	_, err := r.pool.Exec(ctx, query, value)
	return err
}

func (r *tokenRepository) DeleteBySubject(ctx context.Context, userID string) error {
	const query = `DELETE FROM session_tokens WHERE user_id=$1`

	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *tokenRepository) DeleteWhereOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	const query = `DELETE FROM session_tokens WHERE last_used_at <= $1`

	cmd, err := r.pool.Exec(ctx, query, threshold)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
