package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-account-service/internal/auth"
	"github.com/spec-kit/user-account-service/internal/domain"
	"github.com/spec-kit/user-account-service/internal/repository/repofakes"
)

const (
	testEmail    = "user1@mail.com"
	testPassword = "P4ssword"
)

func seedUser(t *testing.T, users *repofakes.FakeUserRepo, inactive bool) *domain.User {
	t.Helper()

	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(t, err)

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     "user1",
		Email:        testEmail,
		PasswordHash: hash,
		Inactive:     inactive,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestVerifyCorrectCredentials(t *testing.T) {
	users := repofakes.NewFakeUserRepo()
	seeded := seedUser(t, users, false)
	verifier := auth.NewCredentialVerifier(users)

	user, err := verifier.Verify(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, seeded.ID, user.ID)
}

func TestVerifyUnknownAccount(t *testing.T) {
	verifier := auth.NewCredentialVerifier(repofakes.NewFakeUserRepo())

	_, err := verifier.Verify(context.Background(), "nobody@mail.com", testPassword)
	require.ErrorIs(t, err, auth.ErrAccountNotFound)
}

func TestVerifyWrongPassword(t *testing.T) {
	users := repofakes.NewFakeUserRepo()
	seedUser(t, users, false)
	verifier := auth.NewCredentialVerifier(users)

	_, err := verifier.Verify(context.Background(), testEmail, "wrong-password")
	require.ErrorIs(t, err, auth.ErrPasswordMismatch)
}

func TestVerifyInactiveAccountSucceedsAtCredentialLevel(t *testing.T) {
	users := repofakes.NewFakeUserRepo()
	seedUser(t, users, true)
	verifier := auth.NewCredentialVerifier(users)

	// Inactivity is the caller's concern; the credential itself is fine.
	user, err := verifier.Verify(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.True(t, user.Inactive)
}
