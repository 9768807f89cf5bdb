package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"almira/internal/domain"
	applog "almira/internal/log"
	"almira/internal/services"
)

const principalKey = "principal"

// Principal returns the caller's identity, anonymous when unauthenticated.
func Principal(c *fiber.Ctx) domain.Principal {
	if p, ok := c.Locals(principalKey).(domain.Principal); ok {
		return p
	}
	return domain.Anonymous
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// WithPrincipal resolves the bearer token, if any, and stores the caller on
// the context. A missing or invalid token leaves the request anonymous.
func WithPrincipal(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok := bearerToken(c); tok != "" {
			if p, err := auth.Principal(tok); err == nil {
				c.Locals(principalKey, p)
				c.Locals("user_id", p.ID)
			}
		}
		return c.Next()
	}
}

func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Principal(c).ID == "" {
			applog.Security(c, "access.denied.anon", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		return c.Next()
	}
}

// RequireAdmin gates the admin surface. Role comes from the token claims;
// no user row is consulted here.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := Principal(c)
		if p.ID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if !p.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user_id": p.ID})
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.Next()
	}
}
