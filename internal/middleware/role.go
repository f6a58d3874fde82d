package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/freelancehub/platform_be/internal/models"
)

func RequireRoles(allowed ...models.Role) fiber.Handler {
	allowedSet := map[models.Role]bool{}
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		if !allowedSet[id.Role] {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: insufficient role")
		}
		return c.Next()
	}
}
