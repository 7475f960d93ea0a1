package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/user-account-service/internal/auth"
	"github.com/spec-kit/user-account-service/internal/domain"
	"github.com/spec-kit/user-account-service/internal/events"
)

// AuthService coordinates the login and logout flows.
type AuthService struct {
	credentials *auth.CredentialVerifier
	sessions    *auth.SessionAuthority
	dispatcher  events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(credentials *auth.CredentialVerifier, sessions *auth.SessionAuthority, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{credentials: credentials, sessions: sessions, dispatcher: dispatcher}
}

// Login verifies credentials and issues a fresh session token. Unknown
// accounts and wrong passwords surface as the auth sentinel errors; an
// inactive account fails with ErrAccountInactive even though the credential
// matched, because the two map to different HTTP statuses.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.credentials.Verify(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	if user.Inactive {
		return nil, "", auth.ErrAccountInactive
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserLoggedIn,
			UserID:    user.ID,
			Timestamp: time.Now(),
			Payload:   events.UserLoggedInPayload{Username: user.Username},
		})
	}
	return user, token, nil
}

// Logout revokes the presented session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}
