package middleware

import (
	"strings"

	"campus_marketplace/internal/apperr"
	"campus_marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNoToken   = apperr.New(apperr.Unauthenticated, "no_token", "No token provided")
	ErrAdminOnly = apperr.New(apperr.Forbidden, "admin_only", "Admin access required")
)

// Authenticator turns a bearer token into the calling actor.
type Authenticator interface {
	Authenticate(token string) (service.Actor, error)
}

// AuthMiddleware requires a valid token in the Authorization header, or in
// the token query parameter for clients that cannot set headers.
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearer(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return ErrNoToken
		}

		who, err := auth.Authenticate(token)
		if err != nil {
			return err
		}
		c.Locals("user_id", who.UserID)
		c.Locals("role", who.Role)
		return c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly(c *fiber.Ctx) error {
	if role, _ := c.Locals("role").(string); role != "admin" {
		return ErrAdminOnly
	}
	return c.Next()
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
