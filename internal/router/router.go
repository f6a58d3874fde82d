// Package router builds the fiber application and mounts every handler.
package router

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freelancehub/platform_be/internal/app"
	"github.com/freelancehub/platform_be/internal/handlers"
	"github.com/freelancehub/platform_be/internal/middleware"
	"github.com/freelancehub/platform_be/internal/services/account"
	"github.com/freelancehub/platform_be/internal/services/messaging"
	"github.com/freelancehub/platform_be/internal/services/profile"
	"github.com/freelancehub/platform_be/internal/services/project"
	"github.com/freelancehub/platform_be/internal/services/rating"
	"github.com/freelancehub/platform_be/internal/utils"
)

// Options tunes parts of the router that tests need to relax.
type Options struct {
	// AuthLimit is the number of auth attempts per IP and minute. 0 disables the limiter.
	AuthLimit  int
	AccessLogs bool
}

func DefaultOptions() Options {
	return Options{AuthLimit: 20, AccessLogs: true}
}

// errorHandler renders fiber errors in the same envelope as the handlers.
func errorHandler(a *app.App) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else {
			a.Log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": msg,
		})
	}
}

func New(a *app.App, opts Options) *fiber.App {
	cfg := a.Config

	f := fiber.New(fiber.Config{
		AppName:      "freelancehub",
		ErrorHandler: errorHandler(a),
	})

	f.Use(recover.New())
	if opts.AccessLogs {
		f.Use(logger.New(logger.Config{Output: a.Log.Writer()}))
	}
	f.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))
	f.Use(a.Metrics.Middleware())

	f.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	f.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))
	f.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := a.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			a.Log.WithError(err).Warn("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "status": "db unavailable"})
		}
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	accounts := account.NewAccountService(a.DB, utils.ResetTokens{Secret: cfg.JWTSecret, TTL: cfg.ResetTokenTTL})
	profiles := profile.NewProfileService(a.DB)
	projects := project.NewProjectService(a.DB)
	messages := messaging.NewMessagingService(a.DB)
	ratings := rating.NewRatingService(a.DB)

	session := handlers.Session{
		Secret:     cfg.JWTSecret,
		ExpiresMin: cfg.JWTExpiresMin,
		Secure:     cfg.CookieSecure(),
	}
	auth := middleware.JWTFromCookie(cfg.JWTSecret)

	api := f.Group("/api")

	authH := &handlers.AuthHandler{
		Accounts:        accounts,
		Session:         session,
		Mailer:          a.Mailer,
		Log:             a.Log,
		Metrics:         a.Metrics,
		FrontendBaseURL: cfg.FrontendBaseURL,
		ResetTTL:        cfg.ResetTokenTTL,
	}
	authH.Routes(api, authLimiter(opts.AuthLimit))

	if cfg.GoogleEnabled() {
		googleH := &handlers.GoogleOAuthHandler{
			Accounts:        accounts,
			Session:         session,
			Log:             a.Log,
			Metrics:         a.Metrics,
			GoogleClientID:  cfg.GoogleClientID,
			GoogleSecret:    cfg.GoogleSecret,
			GoogleRedirect:  cfg.GoogleRedirect,
			FrontendBaseURL: cfg.FrontendBaseURL,
		}
		googleH.Routes(api)
	}

	protected := api.Group("/", auth)
	authH.SessionRoutes(protected)

	profileH := &handlers.ProfileHandler{
		Profiles: profiles,
		Projects: projects,
		Ratings:  ratings,
		Session:  session,
		Log:      a.Log,
		Metrics:  a.Metrics,
	}
	profileH.Routes(protected)

	projectH := &handlers.ProjectHandler{
		Projects: projects,
		Notifier: a.Notifier,
		Log:      a.Log,
		Metrics:  a.Metrics,
	}
	projectH.Routes(protected)

	messageH := &handlers.MessageHandler{
		Messages:        messages,
		Mailer:          a.Mailer,
		Notifier:        a.Notifier,
		Log:             a.Log,
		Metrics:         a.Metrics,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	messageH.Routes(protected)

	ratingH := &handlers.RatingHandler{
		Ratings:  ratings,
		Profiles: profiles,
		Notifier: a.Notifier,
		Log:      a.Log,
		Metrics:  a.Metrics,
	}
	ratingH.Routes(protected)

	dashboardH := &handlers.DashboardHandler{
		Accounts: accounts,
		Profiles: profiles,
		Projects: projects,
		Messages: messages,
		Ratings:  ratings,
		Log:      a.Log,
	}
	dashboardH.Routes(protected)

	notifyH := &handlers.NotificationsHandler{Hub: a.Hub, Log: a.Log}
	notifyH.Routes(protected)

	return f
}

func authLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many attempts, please try again later.",
			})
		},
	})
}
