package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bus-tracking/internal/api/dto"
	"github.com/spec-kit/bus-tracking/internal/auth"
	"github.com/spec-kit/bus-tracking/internal/domain"
	"github.com/spec-kit/bus-tracking/internal/service"
	"github.com/spec-kit/bus-tracking/internal/validation"
	apperrors "github.com/spec-kit/bus-tracking/pkg/util"
)

// AuthHandler exposes the credential and current-user endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req validation.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("Invalid request payload")
	}

	result, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req validation.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("Invalid request payload")
	}

	result, err := h.auth.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User,
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}

	profile, err := h.auth.Me(c.UserContext(), identity.SubjectID)
	if err != nil {
		return err
	}

	return c.JSON(dto.UserResponse{Success: true, User: *profile})
}

// RoleHome returns the handler behind a role's landing endpoint. Role
// enforcement happens in auth.RequireRoles before it runs.
func (h *AuthHandler) RoleHome(view domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFromContext(c)
		if !ok {
			return apperrors.NewMissingToken()
		}

		profile, err := h.auth.Me(c.UserContext(), identity.SubjectID)
		if err != nil {
			return err
		}

		return c.JSON(dto.RoleHomeResponse{Success: true, User: *profile, View: view})
	}
}
