package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/freelancehub/platform_be/internal/middleware"
	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/utils"
)

// Session issues and clears the JWT session cookie.
type Session struct {
	Secret     string
	ExpiresMin int
	Secure     bool
}

func (s Session) Issue(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(s.Secret, u.ID.String(), string(u.Role), s.ExpiresMin)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: "Lax",
		MaxAge:   s.ExpiresMin * 60,
	})
	return nil
}

func (s Session) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: "Lax",
	})
}

func userJSON(u *models.User) fiber.Map {
	return fiber.Map{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"role":       u.Role.Label(),
		"created_at": u.CreatedAt,
	}
}
