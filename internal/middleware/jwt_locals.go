package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/freelancehub/platform_be/internal/models"
)

const identityKey = "identity"

// Identity is the authenticated caller as carried by the session token.
// Role reflects the token and can lag behind the database right after a
// profile is created.
type Identity struct {
	UserID uuid.UUID
	Role   models.Role
}

func setIdentity(c *fiber.Ctx, id Identity) {
	c.Locals(identityKey, id)
}

// CurrentIdentity returns the identity placed by JWTFromCookie.
func CurrentIdentity(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(identityKey).(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}
