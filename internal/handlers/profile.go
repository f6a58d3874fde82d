package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/freelancehub/platform_be/internal/metrics"
	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/services/profile"
	"github.com/freelancehub/platform_be/internal/services/project"
	"github.com/freelancehub/platform_be/internal/services/rating"
)

type ProfileHandler struct {
	Profiles *profile.ProfileService
	Projects *project.ProjectService
	Ratings  *rating.RatingService
	Session  Session
	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics
}

func (h *ProfileHandler) Routes(protected fiber.Router) {
	protected.Post("/register_freelancer", h.RegisterFreelancer)
	protected.Post("/register_client", h.RegisterClient)
	protected.Put("/profile/freelancer", h.UpdateFreelancer)
	protected.Put("/profile/client", h.UpdateClient)

	protected.Get("/freelancer_profile/:user_id", h.FreelancerProfile)
	protected.Get("/client_profile/:user_id", h.ClientProfile)
	protected.Get("/browse_freelancers", h.BrowseFreelancers)
}

type FreelancerProfileReq struct {
	Title           string  `json:"title" form:"title" validate:"required,min=10,max=200"`
	Description     string  `json:"description" form:"description" validate:"required,min=50,max=2000"`
	Skills          string  `json:"skills" form:"skills" validate:"required,min=10,max=1000"`
	ExperienceLevel string  `json:"experience_level" form:"experience_level" validate:"required,oneof=beginner intermediate expert"`
	HourlyRate      float64 `json:"hourly_rate" form:"hourly_rate" validate:"required,gte=5,lte=500"`
	Location        string  `json:"location" form:"location" validate:"max=200"`
	Education       string  `json:"education" form:"education" validate:"max=1000"`
	Certifications  string  `json:"certifications" form:"certifications" validate:"max=1000"`
	PortfolioLinks  string  `json:"portfolio_links" form:"portfolio_links" validate:"max=1000"`
	Languages       string  `json:"languages" form:"languages" validate:"max=500"`
	Availability    string  `json:"availability" form:"availability" validate:"required,oneof=full-time part-time as-needed"`
}

func (r *FreelancerProfileReq) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Skills = strings.TrimSpace(r.Skills)
	r.ExperienceLevel = strings.ToLower(strings.TrimSpace(r.ExperienceLevel))
	r.Location = strings.TrimSpace(r.Location)
	r.Languages = strings.TrimSpace(r.Languages)
	r.Availability = strings.ToLower(strings.TrimSpace(r.Availability))
}

func (r *FreelancerProfileReq) input() profile.FreelancerInput {
	return profile.FreelancerInput{
		Title:           r.Title,
		Description:     r.Description,
		Skills:          r.Skills,
		ExperienceLevel: models.ExperienceLevel(r.ExperienceLevel),
		HourlyRate:      r.HourlyRate,
		Location:        r.Location,
		Education:       r.Education,
		Certifications:  r.Certifications,
		PortfolioLinks:  r.PortfolioLinks,
		Languages:       r.Languages,
		Availability:    models.Availability(r.Availability),
	}
}

type ClientProfileReq struct {
	CompanyName        string `json:"company_name" form:"company_name" validate:"required,min=2,max=200"`
	CompanyDescription string `json:"company_description" form:"company_description" validate:"max=2000"`
	Industry           string `json:"industry" form:"industry" validate:"omitempty,oneof=technology healthcare finance education retail manufacturing consulting marketing real-estate non-profit startup other"`
	Location           string `json:"location" form:"location" validate:"max=200"`
	Website            string `json:"website" form:"website" validate:"max=200"`
	CompanySize        string `json:"company_size" form:"company_size" validate:"omitempty,oneof=1-10 11-50 51-200 200+"`
	Phone              string `json:"phone" form:"phone" validate:"max=20"`
}

func (r *ClientProfileReq) normalize() {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.CompanyDescription = strings.TrimSpace(r.CompanyDescription)
	r.Industry = strings.ToLower(strings.TrimSpace(r.Industry))
	r.Location = strings.TrimSpace(r.Location)
	r.Website = strings.TrimSpace(r.Website)
	r.CompanySize = strings.TrimSpace(r.CompanySize)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *ClientProfileReq) input() profile.ClientInput {
	return profile.ClientInput{
		CompanyName:        r.CompanyName,
		CompanyDescription: r.CompanyDescription,
		Industry:           r.Industry,
		Location:           r.Location,
		Website:            r.Website,
		CompanySize:        r.CompanySize,
		Phone:              r.Phone,
	}
}

// profileFail maps profile service errors that a caller can act on.
func (h *ProfileHandler) profileFail(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, profile.ErrProfileExists):
		return fail200(c, "You already have a profile.")
	case errors.Is(err, profile.ErrUserNotFound):
		return fail404(c, "User not found")
	case errors.Is(err, profile.ErrNotFound):
		return fail404(c, "Profile not found")
	case errors.Is(err, profile.ErrWrongRole):
		return fail404(c, "User has a different role")
	}
	h.Log.WithError(err).Error(op)
	return fail500(c, "Failed to save profile")
}

// issueRole refreshes the session so the new role is visible to role checks.
func (h *ProfileHandler) issueRole(c *fiber.Ctx, u *models.User) error {
	if err := h.Session.Issue(c, u); err != nil {
		h.Log.WithError(err).Error("sign session")
		return fail500(c, "Failed to create token")
	}
	return nil
}

func (h *ProfileHandler) RegisterFreelancer(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var req FreelancerProfileReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	p, err := h.Profiles.CreateFreelancer(c.UserContext(), uid, req.input())
	if err != nil {
		return h.profileFail(c, "create freelancer profile", err)
	}
	h.Metrics.Registered("freelancer")

	if err := h.issueRole(c, &models.User{ID: uid, Role: models.RoleFreelancer}); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Your freelancer profile has been created!",
		"data":    p,
	})
}

func (h *ProfileHandler) RegisterClient(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var req ClientProfileReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	p, err := h.Profiles.CreateClient(c.UserContext(), uid, req.input())
	if err != nil {
		return h.profileFail(c, "create client profile", err)
	}
	h.Metrics.Registered("client")

	if err := h.issueRole(c, &models.User{ID: uid, Role: models.RoleClient}); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Your client profile has been created!",
		"data":    p,
	})
}

func (h *ProfileHandler) UpdateFreelancer(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var req FreelancerProfileReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	p, err := h.Profiles.UpdateFreelancer(c.UserContext(), uid, req.input())
	if err != nil {
		return h.profileFail(c, "update freelancer profile", err)
	}
	return ok(c, "Profile updated", p)
}

func (h *ProfileHandler) UpdateClient(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var req ClientProfileReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	p, err := h.Profiles.UpdateClient(c.UserContext(), uid, req.input())
	if err != nil {
		return h.profileFail(c, "update client profile", err)
	}
	return ok(c, "Profile updated", p)
}

func (h *ProfileHandler) FreelancerProfile(c *fiber.Ctx) error {
	if _, err := getAuth(c); err != nil {
		return err
	}
	userID, err := paramUUID(c, "user_id")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	u, err := h.Profiles.GetFreelancer(ctx, userID)
	if errors.Is(err, profile.ErrWrongRole) {
		return fail404(c, "User is not a freelancer.")
	}
	if err != nil {
		return h.profileFail(c, "load freelancer profile", err)
	}

	summary, err := h.Ratings.Average(ctx, userID)
	if err != nil {
		h.Log.WithError(err).WithField("freelancer_id", userID).Error("rating summary")
		return fail500(c, "Failed to load ratings")
	}
	ratings, err := h.Ratings.ListForFreelancer(ctx, userID)
	if err != nil {
		h.Log.WithError(err).WithField("freelancer_id", userID).Error("list ratings")
		return fail500(c, "Failed to load ratings")
	}

	p := u.FreelancerProfile
	return ok(c, "", fiber.Map{
		"user":            userJSON(u),
		"profile":         p,
		"skills":          p.SkillsList(),
		"portfolio_links": p.PortfolioLinksList(),
		"languages":       p.LanguagesList(),
		"avg_rating":      summary.Average,
		"total_ratings":   summary.Count,
		"distribution":    summary.Distribution,
		"ratings":         ratingsJSON(ratings),
	})
}

func (h *ProfileHandler) ClientProfile(c *fiber.Ctx) error {
	if _, err := getAuth(c); err != nil {
		return err
	}
	userID, err := paramUUID(c, "user_id")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	u, err := h.Profiles.GetClient(ctx, userID)
	if errors.Is(err, profile.ErrWrongRole) {
		return fail404(c, "User is not a client.")
	}
	if err != nil {
		return h.profileFail(c, "load client profile", err)
	}

	projects, err := h.Projects.ListByClient(ctx, userID, models.ProjectOpen)
	if err != nil {
		h.Log.WithError(err).WithField("client_id", userID).Error("list client projects")
		return fail500(c, "Failed to load projects")
	}

	return ok(c, "", fiber.Map{
		"user":     userJSON(u),
		"profile":  u.ClientProfile,
		"projects": projects,
	})
}

func (h *ProfileHandler) BrowseFreelancers(c *fiber.Ctx) error {
	if _, err := getAuth(c); err != nil {
		return err
	}

	f := profile.FreelancerFilter{
		Search:     c.Query("search"),
		Skill:      c.Query("skill"),
		Experience: models.ExperienceLevel(strings.ToLower(strings.TrimSpace(c.Query("experience")))),
		Location:   c.Query("location"),
		MinRate:    queryFloat(c, "min_rate"),
		MaxRate:    queryFloat(c, "max_rate"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 0),
	}

	res, err := h.Profiles.BrowseFreelancers(c.UserContext(), f)
	if err != nil {
		h.Log.WithError(err).Error("browse freelancers")
		return fail500(c, "Failed to load freelancers")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    res.Items,
		"meta":    res.Meta,
	})
}

func ratingsJSON(ratings []models.Rating) []fiber.Map {
	out := make([]fiber.Map, 0, len(ratings))
	for _, r := range ratings {
		item := fiber.Map{
			"id":         r.ID,
			"score":      r.Score,
			"review":     r.Review,
			"created_at": r.CreatedAt,
			"updated_at": r.UpdatedAt,
		}
		if r.Client != nil {
			item["client"] = userRef(r.Client)
		}
		out = append(out, item)
	}
	return out
}
