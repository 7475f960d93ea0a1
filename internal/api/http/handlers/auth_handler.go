package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/user-account-service/internal/api/dto"
	"github.com/spec-kit/user-account-service/internal/auth"
	"github.com/spec-kit/user-account-service/internal/ratelimit"
	"github.com/spec-kit/user-account-service/internal/service"
	apperrors "github.com/spec-kit/user-account-service/pkg/util"
)

// AuthHandler exposes login and logout.
type AuthHandler struct {
	auth    *service.AuthService
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, limiter ratelimit.Limiter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, limiter: limiter, logger: logger}
}

// Login handles POST /api/1.0/auth. Unknown accounts and wrong passwords get
// the same generic 401; an inactive account gets 403.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewBadRequest("email and password required")
	}

	allowed, err := h.limiter.Allow(c.Context(), "login:"+req.Email)
	if err != nil {
		// Limiter trouble should not lock everyone out.
		h.logger.Warn("login rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		return apperrors.NewTooManyRequests("too many login attempts")
	}

	user, token, err := h.auth.Login(c.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrAccountNotFound), errors.Is(err, auth.ErrPasswordMismatch):
		return apperrors.NewUnauthorized("incorrect credentials")
	case errors.Is(err, auth.ErrAccountInactive):
		return apperrors.NewForbidden("account is inactive")
	default:
		return err
	}

	return c.JSON(dto.AuthResponse{ID: user.ID, Username: user.Username, Token: token})
}

// Logout handles POST /api/1.0/logout. It is bearer-protected: a missing or
// invalid token is unauthenticated, not forbidden.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, hasToken := auth.BearerTokenFromContext(c)
	_, hasPrincipal := auth.PrincipalFromContext(c)
	if !hasToken || !hasPrincipal {
		return apperrors.NewUnauthorized("invalid session")
	}

	if err := h.auth.Logout(c.Context(), token); err != nil {
		return err
	}
	return c.SendStatus(http.StatusOK)
}
