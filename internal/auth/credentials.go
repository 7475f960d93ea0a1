package auth

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/user-account-service/internal/domain"
	"github.com/spec-kit/user-account-service/internal/repository"
)

// CredentialVerifier checks email/password pairs against the user directory.
type CredentialVerifier struct {
	users repository.UserRepository
}

// NewCredentialVerifier constructs the verifier.
func NewCredentialVerifier(users repository.UserRepository) *CredentialVerifier {
	return &CredentialVerifier{users: users}
}

// Verify looks up the account and compares the password against the stored
// bcrypt hash. An inactive account still verifies at the credential level;
// callers decide separately whether inactivity is fatal (it maps to 403 where
// a bad credential maps to 401).
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := v.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, storageErr("find account", err)
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrPasswordMismatch
	}
	return user, nil
}
