package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bus-tracking/internal/domain"
	apperrors "github.com/spec-kit/bus-tracking/pkg/util"
)

// RequireRoles admits callers whose verified role is in allowed. It must run
// after AuthMiddleware.Handle; a request without identity is denied.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		if role.Valid() {
			allowedSet[role] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok || !identity.Role.Valid() {
			return apperrors.NewForbidden()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden()
		}
		return c.Next()
	}
}
