package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/user-account-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns one page of active users, excluding excludeID when set,
	// together with the total count of matching rows.
	List(ctx context.Context, page, size int, excludeID string) ([]*domain.User, int64, error)
	// WithTx runs fn against a transaction-bound repository, committing on
	// nil and rolling back on error. Registration uses this to undo the
	// account insert when the activation email cannot be sent.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type userRepository struct {
	db   querier
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{db: pool, pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, email, password_hash, inactive, activation_token)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Inactive,
		user.ActivationToken,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, email=$2, password_hash=$3, inactive=$4,
            activation_token=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.db.Exec(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Inactive,
		user.ActivationToken,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	// session_tokens carry ON DELETE CASCADE, so live sessions go with the row.
	const query = `DELETE FROM users WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, username, email, password_hash, inactive, activation_token, created_at, updated_at
        FROM users WHERE id=$1`

	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, username, email, password_hash, inactive, activation_token, created_at, updated_at
        FROM users WHERE email=$1`

	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, page, size int, excludeID string) ([]*domain.User, int64, error) {
	const countQuery = `
        SELECT COUNT(*) FROM users
        WHERE inactive=false AND ($1='' OR id<>$1)`

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, excludeID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
        SELECT id, username, email, password_hash, inactive, activation_token, created_at, updated_at
        FROM users
        WHERE inactive=false AND ($1='' OR id<>$1)
        ORDER BY created_at, id
        LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, excludeID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0, size)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.Inactive,
			&user.ActivationToken,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		users = append(users, &user)
	}
	return users, total, rows.Err()
}

func (r *userRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error {
	if r.pool == nil {
		// Already transaction-bound; run in place.
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, &userRepository{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Inactive,
		&user.ActivationToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
