package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/user-account-service/internal/auth"
	"github.com/spec-kit/user-account-service/internal/config"
	"github.com/spec-kit/user-account-service/internal/domain"
	"github.com/spec-kit/user-account-service/internal/events"
	"github.com/spec-kit/user-account-service/internal/mail"
	"github.com/spec-kit/user-account-service/internal/repository"
	apperrors "github.com/spec-kit/user-account-service/pkg/util"
)

// UserService coordinates registration, activation and account CRUD.
type UserService struct {
	users      repository.UserRepository
	sessions   *auth.SessionAuthority
	activation *auth.ActivationTokenManager
	mail       mail.Sender
	dispatcher events.Dispatcher
	bcryptCost int
}

// UserDependencies encapsulates collaborator requirements for the service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Sessions   *auth.SessionAuthority
	Activation *auth.ActivationTokenManager
	Mail       mail.Sender
	Dispatcher events.Dispatcher
}

// NewUserService builds the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		activation: deps.Activation,
		mail:       deps.Mail,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates an inactive account and mails its activation link. The
// insert and the send share one transactional boundary: a failed send rolls
// the account back.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError("validation failure", map[string]any{
			"email": "e-mail in use",
		})
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Inactive:     true,
	}
	token, err := s.activation.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	user.ActivationToken = token

	err = s.users.WithTx(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		if err := s.mail.SendActivation(ctx, email, username, token); err != nil {
			return apperrors.NewBadGateway("e-mail failure", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Username: user.Username,
		Email:    user.Email,
	})
	return user, nil
}

// Activate redeems an activation token and marks the account active. The
// stored token is cleared so the link is single-use.
func (s *UserService) Activate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.activation.Parse(token)
	if err != nil {
		return nil, apperrors.NewBadRequest("this account is either active or the token is invalid")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewBadRequest("this account is either active or the token is invalid")
		}
		return nil, err
	}
	if !user.Inactive || user.ActivationToken != token {
		return nil, apperrors.NewBadRequest("this account is either active or the token is invalid")
	}

	user.Inactive = false
	user.ActivationToken = ""
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserActivated, user.ID, nil)
	return user, nil
}

// Page is one page of the user listing.
type Page struct {
	Content    []*domain.User
	Page       int
	Size       int
	TotalPages int
}

// List returns active users one page at a time, excluding the authenticated
// caller from their own listing.
func (s *UserService) List(ctx context.Context, page, size int, excludeID string) (*Page, error) {
	users, total, err := s.users.List(ctx, page, size, excludeID)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &Page{Content: users, Page: page, Size: size, TotalPages: totalPages}, nil
}

// Get fetches one active user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, err
	}
	if user.Inactive {
		return nil, apperrors.NewNotFound("user")
	}
	return user, nil
}

// UpdateUsername changes the account's display name.
func (s *UserService) UpdateUsername(ctx context.Context, id, username string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, err
	}

	user.Username = username
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the account and revokes every session it owns.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user")
		}
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.EventUserDeleted, id, events.UserDeletedPayload{Username: user.Username})
	return nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, userID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
