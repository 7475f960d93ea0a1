package handlers

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-account-service/internal/api/dto"
	"github.com/spec-kit/user-account-service/internal/auth"
	"github.com/spec-kit/user-account-service/internal/service"
	apperrors "github.com/spec-kit/user-account-service/pkg/util"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	defaultPageSize = 10
	maxPageSize     = 10
)

// UsersHandler exposes registration, activation and account CRUD.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Register handles POST /api/1.0/users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}

	if errs := validateRegistration(req); len(errs) > 0 {
		return apperrors.NewValidationError("validation failure", errs)
	}

	if _, err := h.users.Register(c.Context(), req.Username, req.Email, req.Password); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "user created"})
}

// Activate handles POST /api/1.0/users/token/:token.
func (h *UsersHandler) Activate(c *fiber.Ctx) error {
	if _, err := h.users.Activate(c.Context(), c.Params("token")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "account activated"})
}

// List handles GET /api/1.0/users. The authenticated caller never appears in
// their own listing.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, size := parsePagination(c)

	excludeID := ""
	if principal, ok := auth.PrincipalFromContext(c); ok {
		excludeID = principal.UserID
	}

	result, err := h.users.List(c.Context(), page, size, excludeID)
	if err != nil {
		return err
	}

	content := make([]dto.UserResponse, 0, len(result.Content))
	for _, user := range result.Content {
		content = append(content, dto.NewUserResponse(user))
	}
	return c.JSON(dto.UserPageResponse{
		Content:    content,
		Page:       result.Page,
		Size:       result.Size,
		TotalPages: result.TotalPages,
	})
}

// Get handles GET /api/1.0/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Update handles PUT /api/1.0/users/:id. Only the owner may update; a missing
// or mismatched principal is rejected as forbidden, not unauthenticated.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.UserID != id {
		return apperrors.NewForbidden("you are not authorized to update user")
	}

	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if errs := validateUsername(req.Username); len(errs) > 0 {
		return apperrors.NewValidationError("validation failure", errs)
	}

	user, err := h.users.UpdateUsername(c.Context(), id, req.Username)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Delete handles DELETE /api/1.0/users/:id. Ownership is enforced the same
// way as Update; deletion cascades every session the account owns.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.UserID != id {
		return apperrors.NewForbidden("you are not authorized to delete user")
	}

	if err := h.users.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusOK)
}

func validateRegistration(req dto.UserRegisterRequest) map[string]any {
	errs := validateUsername(req.Username)

	switch {
	case req.Email == "":
		errs["email"] = "e-mail cannot be null"
	case !emailPattern.MatchString(req.Email):
		errs["email"] = "e-mail is not valid"
	}

	switch {
	case req.Password == "":
		errs["password"] = "password cannot be null"
	case len(req.Password) < 6:
		errs["password"] = "password must be at least 6 characters"
	}

	return errs
}

func validateUsername(username string) map[string]any {
	errs := map[string]any{}
	switch {
	case username == "":
		errs["username"] = "username cannot be null"
	case len(username) < 4 || len(username) > 32:
		errs["username"] = "username must have min 4 and max 32 characters"
	}
	return errs
}

func parsePagination(c *fiber.Ctx) (page, size int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err = strconv.Atoi(c.Query("size"))
	if err != nil || size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}
