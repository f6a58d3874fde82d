package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/utils"
)

// CookieName carries the session JWT.
const CookieName = "fh_token"

// JWTFromCookie rejects requests without a valid session cookie and stores
// the caller's Identity in locals.
func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(CookieName)
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		uid, err := uuid.Parse(claims.UserID)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		setIdentity(c, Identity{UserID: uid, Role: models.Role(claims.Role)})
		return c.Next()
	}
}
