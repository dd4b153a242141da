package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/bus-tracking/pkg/util"
)

const identityKey = "auth_identity"

type identityCtxKey struct{}

// Identity is the verified caller attached to a request.
type Identity struct {
	Claims
}

// Verifier decodes bearer tokens.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// AuthMiddleware validates bearer tokens without touching the user store.
type AuthMiddleware struct {
	tokens Verifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens Verifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return apperrors.NewMissingToken()
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		return apperrors.NewInvalidToken()
	}

	identity := &Identity{Claims: claims}
	c.Locals(identityKey, identity)
	c.SetUserContext(WithIdentity(c.UserContext(), identity))
	return c.Next()
}

// BearerToken extracts the credential from an Authorization header value of
// the form "Bearer <token>".
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*Identity)
	return identity, ok && identity != nil
}

// WithIdentity stores identity on ctx for code below the HTTP layer.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFrom reads the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(*Identity)
	return identity, ok && identity != nil
}
