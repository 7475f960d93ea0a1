package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/user-account-service/internal/api/http"
	"github.com/spec-kit/user-account-service/internal/api/http/handlers"
	"github.com/spec-kit/user-account-service/internal/auth"
	"github.com/spec-kit/user-account-service/internal/clock"
	"github.com/spec-kit/user-account-service/internal/config"
	"github.com/spec-kit/user-account-service/internal/domain"
	"github.com/spec-kit/user-account-service/internal/persistence"
	"github.com/spec-kit/user-account-service/internal/ratelimit"
	"github.com/spec-kit/user-account-service/internal/repository/repofakes"
	"github.com/spec-kit/user-account-service/internal/service"
)

const (
	testUsername = "user1"
	testEmail    = "user1@mail.com"
	testPassword = "P4ssword"
)

type fakeSender struct {
	err       error
	lastToken string
}

func (s *fakeSender) SendActivation(_ context.Context, _, _, token string) error {
	if s.err != nil {
		return s.err
	}
	s.lastToken = token
	return nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

type env struct {
	app      *fiber.App
	users    *repofakes.FakeUserRepo
	tokens   *repofakes.FakeTokenRepo
	clk      *clock.Fake
	sessions *auth.SessionAuthority
	sender   *fakeSender
}

func newEnv(t *testing.T) *env {
	return newEnvWithLimiter(t, ratelimit.NewNoopLimiter())
}

func newEnvWithLimiter(t *testing.T, limiter ratelimit.Limiter) *env {
	t.Helper()

	logger := zap.NewNop()
	users := repofakes.NewFakeUserRepo()
	tokens := repofakes.NewFakeTokenRepo()
	clk := clock.NewFake(time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC))

	sessions := auth.NewSessionAuthority(tokens, clk, 7*24*time.Hour)
	credentials := auth.NewCredentialVerifier(users)
	activation := auth.NewActivationTokenManager("test-secret", 24)
	sender := &fakeSender{}

	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: 4}}
	userService := service.NewUserService(cfg, service.UserDependencies{
		UserRepo:   users,
		Sessions:   sessions,
		Activation: activation,
		Mail:       sender,
	})
	authService := service.NewAuthService(credentials, sessions, nil)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, nil, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler("test", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Users:      handlers.NewUsersHandler(userService),
		Auth:       handlers.NewAuthHandler(authService, limiter, logger),
		Authorizer: auth.NewRequestAuthorizer(sessions, credentials),
	})

	return &env{app: app, users: users, tokens: tokens, clk: clk, sessions: sessions, sender: sender}
}

// seedUser inserts an account directly, bypassing the registration flow.
func (e *env) seedUser(t *testing.T, username, email string, inactive bool) *domain.User {
	t.Helper()

	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(t, err)

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Inactive:     inactive,
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *env) do(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	resp.Body.Close()
	return resp, decoded
}

func (e *env) login(t *testing.T, email, password string) (int, map[string]any) {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/1.0/auth", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	return resp.StatusCode, body
}

func bearer(token string) map[string]string {
	return map[string]string{fiber.HeaderAuthorization: "Bearer " + token}
}

func basic(email, password string) map[string]string {
	encoded := base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
	return map[string]string{fiber.HeaderAuthorization: "Basic " + encoded}
}
