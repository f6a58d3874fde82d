package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/freelancehub/platform_be/internal/metrics"
	"github.com/freelancehub/platform_be/internal/middleware"
	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/realtime"
	"github.com/freelancehub/platform_be/internal/services/project"
)

type ProjectHandler struct {
	Projects *project.ProjectService
	Notifier realtime.Notifier
	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics
}

func (h *ProjectHandler) Routes(protected fiber.Router) {
	clientOnly := middleware.RequireRoles(models.RoleClient)

	protected.Post("/post_project", clientOnly, h.Create)
	protected.Put("/edit_project/:id", h.Update)
	protected.Get("/project_detail/:id", h.Detail)
	protected.Get("/browse_projects", h.Browse)

	protected.Post("/projects/:id/status", h.Transition)
	protected.Post("/projects/:id/assign", h.Assign)
	protected.Get("/projects/:id/messages", h.Messages)
	protected.Post("/projects/:id/messages", h.PostMessage)
}

const dateLayout = "2006-01-02"

type ProjectReq struct {
	Title          string  `json:"title" form:"title" validate:"required,min=1,max=200"`
	Description    string  `json:"description" form:"description" validate:"required,min=20,max=5000"`
	Budget         float64 `json:"budget" form:"budget" validate:"required,gte=50,lte=100000"`
	Deadline       string  `json:"deadline" form:"deadline" validate:"omitempty,datetime=2006-01-02"`
	SkillsRequired string  `json:"skills_required" form:"skills_required" validate:"required,min=5,max=1000"`
	ProjectType    string  `json:"project_type" form:"project_type" validate:"required,oneof=fixed hourly"`
}

func (r *ProjectReq) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Deadline = strings.TrimSpace(r.Deadline)
	r.SkillsRequired = strings.TrimSpace(r.SkillsRequired)
	r.ProjectType = strings.ToLower(strings.TrimSpace(r.ProjectType))
}

func (r *ProjectReq) input() project.Input {
	in := project.Input{
		Title:          r.Title,
		Description:    r.Description,
		Budget:         r.Budget,
		SkillsRequired: r.SkillsRequired,
		ProjectType:    models.ProjectType(r.ProjectType),
	}
	// already checked by the datetime rule
	if d, err := time.Parse(dateLayout, r.Deadline); err == nil {
		in.Deadline = &d
	}
	return in
}

func (h *ProjectHandler) projectFail(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, project.ErrNotFound):
		return fail404(c, "Project not found")
	case errors.Is(err, project.ErrUserNotFound):
		return fail404(c, "User not found")
	case errors.Is(err, project.ErrNotClient):
		return fail403(c, "Only clients can post projects.")
	case errors.Is(err, project.ErrForbidden):
		return fail403(c, "You are not authorized to access this project.")
	case errors.Is(err, project.ErrNotFreelancer):
		return fail200(c, "User is not a freelancer.")
	case errors.Is(err, project.ErrInvalidTransition):
		return fail200(c, "That status change is not allowed.")
	}
	h.Log.WithError(err).Error(op)
	return fail500(c, "An error occurred while processing the project.")
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	var req ProjectReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	p, err := h.Projects.Create(c.UserContext(), uid, req.input())
	if err != nil {
		return h.projectFail(c, "create project", err)
	}
	h.Metrics.ProjectPosted()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Project posted successfully!",
		"data":    p,
	})
}

func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req ProjectReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	p, err := h.Projects.Update(c.UserContext(), uid, id, req.input())
	if err != nil {
		return h.projectFail(c, "update project", err)
	}
	return ok(c, "Project updated successfully!", p)
}

func (h *ProjectHandler) Detail(c *fiber.Ctx) error {
	if _, err := getAuth(c); err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.Projects.Get(c.UserContext(), id)
	if err != nil {
		return h.projectFail(c, "load project", err)
	}

	var clientProfile *models.ClientProfile
	if p.Client != nil {
		clientProfile = p.Client.ClientProfile
	}
	return ok(c, "", fiber.Map{
		"project":         p,
		"skills_required": p.SkillsRequiredList(),
		"client_profile":  clientProfile,
	})
}

func (h *ProjectHandler) Browse(c *fiber.Ctx) error {
	if _, err := getAuth(c); err != nil {
		return err
	}

	f := project.Filter{
		Search:      c.Query("search"),
		Skill:       c.Query("skill"),
		BudgetMin:   queryFloat(c, "budget_min"),
		BudgetMax:   queryFloat(c, "budget_max"),
		ProjectType: models.ProjectType(strings.ToLower(strings.TrimSpace(c.Query("project_type")))),
		Page:        c.QueryInt("page", 1),
		Limit:       c.QueryInt("limit", 0),
	}

	res, err := h.Projects.Browse(c.UserContext(), f)
	if err != nil {
		h.Log.WithError(err).Error("browse projects")
		return fail500(c, "Failed to load projects")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    res.Items,
		"meta":    res.Meta,
	})
}

type transitionReq struct {
	Status string `json:"status" form:"status" validate:"required,oneof=open in_progress completed cancelled"`
}

func (r *transitionReq) normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func (h *ProjectHandler) Transition(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req transitionReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	to := models.ProjectStatus(req.Status)
	p, changed, err := h.Projects.Transition(c.UserContext(), uid, id, to)
	if err != nil {
		return h.projectFail(c, "transition project", err)
	}
	if !changed {
		return ok(c, "Project status unchanged", p)
	}
	h.Metrics.ProjectTransitioned(string(to))

	h.notifyOthers(c.UserContext(), p, uid, realtime.EventProjectStatus, fiber.Map{
		"project_id": p.ID,
		"title":      p.Title,
		"status":     p.Status,
	})
	return ok(c, "Project status updated", p)
}

type assignReq struct {
	FreelancerID string `json:"freelancer_id" form:"freelancer_id" validate:"required,uuid"`
}

func (h *ProjectHandler) Assign(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req assignReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}
	freelancerID := uuid.MustParse(req.FreelancerID)

	p, err := h.Projects.Assign(c.UserContext(), uid, id, freelancerID)
	if err != nil {
		return h.projectFail(c, "assign project", err)
	}
	h.Metrics.ProjectTransitioned(string(p.Status))

	h.Notifier.Notify(c.UserContext(), freelancerID, realtime.EventProjectAssigned, fiber.Map{
		"project_id": p.ID,
		"title":      p.Title,
	})
	return ok(c, "Freelancer assigned", p)
}

func (h *ProjectHandler) Messages(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	msgs, err := h.Projects.Messages(c.UserContext(), uid, id)
	if err != nil {
		return h.projectFail(c, "list project messages", err)
	}
	return ok(c, "", msgs)
}

type projectMessageReq struct {
	Content string `json:"content" form:"content" validate:"required,max=5000"`
}

func (r *projectMessageReq) normalize() {
	r.Content = strings.TrimSpace(r.Content)
}

func (h *ProjectHandler) PostMessage(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req projectMessageReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	ctx := c.UserContext()
	m, err := h.Projects.PostMessage(ctx, uid, id, req.Content)
	if err != nil {
		return h.projectFail(c, "post project message", err)
	}
	h.Metrics.MessageSent("project")

	if p, err := h.Projects.Get(ctx, id); err == nil {
		h.notifyOthers(ctx, p, uid, realtime.EventProjectMessage, fiber.Map{
			"project_id": p.ID,
			"message_id": m.ID,
			"sender":     m.Sender.Username,
			"content":    m.Content,
		})
	} else {
		h.Log.WithError(err).WithField("project_id", id).Warn("load project for notification")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    m,
	})
}

// notifyOthers pushes an event to every participant except the actor.
func (h *ProjectHandler) notifyOthers(ctx context.Context, p *models.Project, actor uuid.UUID, event string, data fiber.Map) {
	for _, id := range project.Participants(p) {
		if id != actor {
			h.Notifier.Notify(ctx, id, event, data)
		}
	}
}
