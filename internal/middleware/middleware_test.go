package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/utils"
)

const secret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTFromCookie(secret))
	app.Get("/me", func(c *fiber.Ctx) error {
		id, _ := CurrentIdentity(c)
		return c.SendString(id.UserID.String() + "|" + id.Role.Label())
	})
	app.Get("/clients", RequireRoles(models.RoleClient), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func request(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestJWTFromCookie(t *testing.T) {
	app := newApp()
	uid := uuid.New()

	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", "not-a-jwt"))

	other, err := utils.SignJWT("other-secret", uid.String(), "client", 5)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", other))

	bad, err := utils.SignJWT(secret, "not-a-uuid", "client", 5)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", bad))

	tok, err := utils.SignJWT(secret, uid.String(), "", 5)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, request(t, app, "/me", tok))
}

func TestRequireRoles(t *testing.T) {
	app := newApp()
	uid := uuid.New()

	freelancer, err := utils.SignJWT(secret, uid.String(), string(models.RoleFreelancer), 5)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, request(t, app, "/clients", freelancer))

	client, err := utils.SignJWT(secret, uid.String(), string(models.RoleClient), 5)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, request(t, app, "/clients", client))
}
