package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-account-service/internal/auth"
)

func TestActivationTokenRoundTrip(t *testing.T) {
	manager := auth.NewActivationTokenManager("secret", 24)

	token, err := manager.Generate("user-1")
	require.NoError(t, err)

	userID, err := manager.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestActivationTokenWrongSecret(t *testing.T) {
	token, err := auth.NewActivationTokenManager("secret", 24).Generate("user-1")
	require.NoError(t, err)

	_, err = auth.NewActivationTokenManager("other-secret", 24).Parse(token)
	require.Error(t, err)
}

func TestActivationTokenGarbage(t *testing.T) {
	manager := auth.NewActivationTokenManager("secret", 24)

	_, err := manager.Parse("not-a-token")
	require.Error(t, err)
}
