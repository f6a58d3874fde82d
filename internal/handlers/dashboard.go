package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/services/account"
	"github.com/freelancehub/platform_be/internal/services/messaging"
	"github.com/freelancehub/platform_be/internal/services/profile"
	"github.com/freelancehub/platform_be/internal/services/project"
	"github.com/freelancehub/platform_be/internal/services/rating"
)

const recentMessages = 5

type DashboardHandler struct {
	Accounts *account.AccountService
	Profiles *profile.ProfileService
	Projects *project.ProjectService
	Messages *messaging.MessagingService
	Ratings  *rating.RatingService
	Log      logrus.FieldLogger
}

func (h *DashboardHandler) Routes(protected fiber.Router) {
	protected.Get("/dashboard", h.Get)
}

// Get returns the role specific dashboard. The role is read from the store
// so a stale session cookie still gets the right view.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	u, err := h.Accounts.Get(c.UserContext(), uid)
	if errors.Is(err, account.ErrNotFound) {
		return failStatus(c, fiber.StatusUnauthorized, "User not found")
	}
	if err != nil {
		h.Log.WithError(err).WithField("user_id", uid).Error("load user")
		return fail500(c, "Failed to load dashboard")
	}

	var data fiber.Map
	switch u.Role {
	case models.RoleFreelancer:
		data, err = h.freelancer(c, u.ID)
	case models.RoleClient:
		data, err = h.client(c, u.ID)
	default:
		return fail200(c, "Please select a role to continue.", fiber.Map{"redirect": "/select_role"})
	}
	if err != nil {
		h.Log.WithError(err).WithFields(logrus.Fields{
			"user_id": uid,
			"role":    u.Role,
		}).Error("load dashboard")
		return fail500(c, "Failed to load dashboard")
	}

	data["role"] = u.Role.Label()
	data["user"] = userJSON(u)
	return ok(c, "", data)
}

func (h *DashboardHandler) freelancer(c *fiber.Ctx, uid uuid.UUID) (fiber.Map, error) {
	ctx := c.UserContext()

	var p *models.FreelancerProfile
	u, err := h.Profiles.GetFreelancer(ctx, uid)
	switch {
	case err == nil:
		p = u.FreelancerProfile
	case !errors.Is(err, profile.ErrNotFound):
		return nil, err
	}

	recent, err := h.Messages.Inbox(ctx, uid, recentMessages)
	if err != nil {
		return nil, err
	}
	unread, err := h.Messages.UnreadCount(ctx, uid)
	if err != nil {
		return nil, err
	}
	ratings, err := h.Ratings.ListForFreelancer(ctx, uid)
	if err != nil {
		return nil, err
	}
	summary, err := h.Ratings.Average(ctx, uid)
	if err != nil {
		return nil, err
	}
	assigned, err := h.Projects.ListAssigned(ctx, uid)
	if err != nil {
		return nil, err
	}

	return fiber.Map{
		"profile":         p,
		"recent_messages": messagesJSON(recent),
		"unread_messages": unread,
		"ratings":         ratingsJSON(ratings),
		"avg_rating":      summary.Average,
		"total_ratings":   summary.Count,
		"projects":        assigned,
	}, nil
}

func (h *DashboardHandler) client(c *fiber.Ctx, uid uuid.UUID) (fiber.Map, error) {
	ctx := c.UserContext()

	var p *models.ClientProfile
	u, err := h.Profiles.GetClient(ctx, uid)
	switch {
	case err == nil:
		p = u.ClientProfile
	case !errors.Is(err, profile.ErrNotFound):
		return nil, err
	}

	projects, err := h.Projects.ListByClient(ctx, uid)
	if err != nil {
		return nil, err
	}
	recent, err := h.Messages.Inbox(ctx, uid, recentMessages)
	if err != nil {
		return nil, err
	}
	unread, err := h.Messages.UnreadCount(ctx, uid)
	if err != nil {
		return nil, err
	}
	top, err := h.Profiles.BrowseFreelancers(ctx, profile.FreelancerFilter{Page: 1})
	if err != nil {
		return nil, err
	}

	return fiber.Map{
		"profile":         p,
		"projects":        projects,
		"recent_messages": messagesJSON(recent),
		"unread_messages": unread,
		"freelancers":     top.Items,
	}, nil
}
