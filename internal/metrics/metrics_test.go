package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New(prometheus.NewRegistry())

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/items/1", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}
	_, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BadRequests.WithLabelValues("/missing")))
}

func TestHelpersAreNilSafe(t *testing.T) {
	var m *Metrics
	m.Registered("user")
	m.MessageSent("private")
	m.ProjectPosted()
	m.RatingSubmitted(true)
	m.NotificationFailed("email")

	live := New(prometheus.NewRegistry())
	live.RatingSubmitted(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(live.RatingsSubmitted.WithLabelValues("updated")))
}
