package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/freelancehub/platform_be/internal/metrics"
	"github.com/freelancehub/platform_be/internal/middleware"
	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/realtime"
	"github.com/freelancehub/platform_be/internal/services/profile"
	"github.com/freelancehub/platform_be/internal/services/rating"
)

type RatingHandler struct {
	Ratings  *rating.RatingService
	Profiles *profile.ProfileService
	Notifier realtime.Notifier
	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics
}

func (h *RatingHandler) Routes(protected fiber.Router) {
	clientOnly := middleware.RequireRoles(models.RoleClient)

	protected.Get("/rate_freelancer/:freelancer_id", clientOnly, h.Form)
	protected.Post("/rate_freelancer/:freelancer_id", clientOnly, h.Submit)
	protected.Get("/freelancers/:id/ratings", h.List)
}

// Form returns the freelancer and the caller's current rating, if any.
func (h *RatingHandler) Form(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	freelancerID, err := paramUUID(c, "freelancer_id")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	u, err := h.Profiles.GetFreelancer(ctx, freelancerID)
	switch {
	case errors.Is(err, profile.ErrUserNotFound), errors.Is(err, profile.ErrNotFound):
		return fail404(c, "Freelancer not found")
	case errors.Is(err, profile.ErrWrongRole):
		return fail200(c, "User is not a freelancer.")
	case err != nil:
		h.Log.WithError(err).WithField("freelancer_id", freelancerID).Error("load freelancer")
		return fail500(c, "Failed to load freelancer")
	}

	data := fiber.Map{
		"freelancer": userRef(u),
		"title":      u.FreelancerProfile.Title,
		"existing":   nil,
	}
	existing, err := h.Ratings.Existing(ctx, uid, freelancerID)
	switch {
	case err == nil:
		data["existing"] = fiber.Map{"score": existing.Score, "review": existing.Review}
	case !errors.Is(err, rating.ErrNotFound):
		h.Log.WithError(err).Error("load existing rating")
		return fail500(c, "Failed to load rating")
	}
	return ok(c, "", data)
}

type RatingReq struct {
	Score  int    `json:"rating" form:"rating" validate:"required,gte=1,lte=5"`
	Review string `json:"review" form:"review" validate:"max=2000"`
}

func (r *RatingReq) normalize() {
	r.Review = strings.TrimSpace(r.Review)
}

func (h *RatingHandler) Submit(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	freelancerID, err := paramUUID(c, "freelancer_id")
	if err != nil {
		return err
	}

	var req RatingReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	ctx := c.UserContext()
	r, created, err := h.Ratings.Submit(ctx, uid, freelancerID, req.Score, req.Review)
	switch {
	case errors.Is(err, rating.ErrUserNotFound):
		return fail404(c, "Freelancer not found")
	case errors.Is(err, rating.ErrNotClient):
		return fail403(c, "Only clients can rate freelancers.")
	case errors.Is(err, rating.ErrNotFreelancer):
		return fail200(c, "User is not a freelancer.")
	case errors.Is(err, rating.ErrInvalidScore):
		return fieldFail(c, "rating", err.Error())
	case err != nil:
		h.Log.WithError(err).WithFields(logrus.Fields{
			"client_id":     uid,
			"freelancer_id": freelancerID,
		}).Error("submit rating")
		return fail500(c, "An error occurred while submitting the rating.")
	}
	h.Metrics.RatingSubmitted(created)

	h.Notifier.Notify(ctx, freelancerID, realtime.EventRatingReceived, fiber.Map{
		"rating_id": r.ID,
		"score":     r.Score,
		"updated":   !created,
	})

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": "Rating submitted successfully!",
		"data":    r,
	})
}

func (h *RatingHandler) List(c *fiber.Ctx) error {
	if _, err := getAuth(c); err != nil {
		return err
	}
	freelancerID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	summary, err := h.Ratings.Average(ctx, freelancerID)
	if err != nil {
		h.Log.WithError(err).Error("rating summary")
		return fail500(c, "Failed to load ratings")
	}
	ratings, err := h.Ratings.ListForFreelancer(ctx, freelancerID)
	if err != nil {
		h.Log.WithError(err).Error("list ratings")
		return fail500(c, "Failed to load ratings")
	}

	return ok(c, "", fiber.Map{
		"summary": summary,
		"ratings": ratingsJSON(ratings),
	})
}
