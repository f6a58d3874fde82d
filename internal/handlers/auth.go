package handlers

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/freelancehub/platform_be/internal/mailer"
	"github.com/freelancehub/platform_be/internal/metrics"
	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/services/account"
)

type AuthHandler struct {
	Accounts        *account.AccountService
	Session         Session
	Mailer          mailer.Mailer
	Log             logrus.FieldLogger
	Metrics         *metrics.Metrics
	FrontendBaseURL string
	ResetTTL        time.Duration
}

// Routes mounts the endpoints that work without a session. They must be
// registered before any group that applies the session middleware.
func (h *AuthHandler) Routes(public fiber.Router, limiter fiber.Handler) {
	public.Post("/auth/register", limiter, h.Register)
	public.Post("/auth/login", limiter, h.Login)
	public.Post("/auth/logout", h.Logout)
	public.Post("/auth/reset_password_request", limiter, h.RequestReset)
	public.Get("/auth/reset_password/:token", h.CheckReset)
	public.Post("/auth/reset_password/:token", limiter, h.ResetPassword)
}

func (h *AuthHandler) SessionRoutes(protected fiber.Router) {
	protected.Get("/me", h.Me)
	protected.Delete("/me", h.DeleteAccount)
	protected.Get("/select_role", h.SelectRole)
}

type RegisterReq struct {
	Username        string `json:"username" form:"username" validate:"required,min=4,max=20"`
	Email           string `json:"email" form:"email" validate:"required,email,max=120"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
}

func (r *RegisterReq) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = account.NormalizeEmail(r.Email)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	u, err := h.Accounts.Register(c.UserContext(), account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, account.ErrUsernameTaken):
		return fieldFail(c, "username", "Username already taken. Please choose a different one.")
	case errors.Is(err, account.ErrEmailTaken):
		return fieldFail(c, "email", "Email already registered. Please use a different email.")
	case err != nil:
		h.Log.WithError(err).Error("register failed")
		return fail500(c, "Registration failed")
	}
	h.Metrics.Registered("user")

	if err := h.Session.Issue(c, u); err != nil {
		h.Log.WithError(err).Error("sign session")
		return fail500(c, "Failed to create token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Registration successful",
		"data":    fiber.Map{"user": userJSON(u)},
	})
}

type LoginReq struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (r *LoginReq) normalize() {
	r.Email = account.NormalizeEmail(r.Email)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	u, err := h.Accounts.Authenticate(c.UserContext(), req.Email, req.Password)
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		return fail200(c, "Invalid email or password")
	case errors.Is(err, account.ErrInactive):
		return fail200(c, "Account is inactive")
	case err != nil:
		h.Log.WithError(err).Error("login failed")
		return fail500(c, "Login failed")
	}

	if err := h.Session.Issue(c, u); err != nil {
		h.Log.WithError(err).Error("sign session")
		return fail500(c, "Failed to create token")
	}

	return ok(c, "Login successful", fiber.Map{"user": userJSON(u)})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.Session.Clear(c)
	return ok(c, "You have been logged out.", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	u, err := h.Accounts.Get(c.UserContext(), uid)
	if errors.Is(err, account.ErrNotFound) {
		return failStatus(c, fiber.StatusUnauthorized, "User not found")
	}
	if err != nil {
		h.Log.WithError(err).Error("load user")
		return fail500(c, "Failed to load user")
	}
	return ok(c, "", userJSON(u))
}

// SelectRole tells the client whether a profile still has to be created.
func (h *AuthHandler) SelectRole(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	u, err := h.Accounts.Get(c.UserContext(), uid)
	if err != nil {
		return failStatus(c, fiber.StatusUnauthorized, "User not found")
	}

	data := fiber.Map{
		"role":       u.Role.Label(),
		"needs_role": u.Role == models.RoleNone,
		"choices":    []models.Role{models.RoleFreelancer, models.RoleClient},
	}
	return ok(c, "", data)
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	if err := h.Accounts.DeleteUser(c.UserContext(), uid); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fail404(c, "User not found")
		}
		h.Log.WithError(err).WithField("user_id", uid).Error("delete account")
		return fail500(c, "Failed to delete account")
	}

	h.Session.Clear(c)
	return ok(c, "Your account has been deleted.", nil)
}

type resetRequestReq struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

func (r *resetRequestReq) normalize() {
	r.Email = account.NormalizeEmail(r.Email)
}

const resetRequestedMsg = "If an account with that email exists, a password reset link has been sent."

// RequestReset answers the same way whether or not the email is known.
func (h *AuthHandler) RequestReset(c *fiber.Ctx) error {
	var req resetRequestReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	token, u, err := h.Accounts.IssueResetToken(c.UserContext(), req.Email)
	if errors.Is(err, account.ErrNotFound) {
		return ok(c, resetRequestedMsg, nil)
	}
	if err != nil {
		h.Log.WithError(err).Error("issue reset token")
		return fail500(c, "Failed to process reset request")
	}

	link := strings.TrimRight(h.FrontendBaseURL, "/") + "/reset_password/" + url.PathEscape(token)
	mail, err := mailer.PasswordReset(u.Email, u.Username, link, h.ResetTTL)
	if err == nil {
		err = h.Mailer.Send(c.UserContext(), mail)
	}
	if err != nil {
		// same answer as for unknown emails
		h.Metrics.NotificationFailed("email")
		h.Log.WithError(err).WithField("user_id", u.ID).Error("send reset email")
	}

	return ok(c, resetRequestedMsg, nil)
}

// CheckReset lets the frontend validate a link before showing the form.
func (h *AuthHandler) CheckReset(c *fiber.Ctx) error {
	_, err := h.Accounts.VerifyResetToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return h.resetTokenFail(c, err)
	}
	return ok(c, "", fiber.Map{"valid": true})
}

type resetPasswordReq struct {
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	if err := h.Accounts.ResetPassword(c.UserContext(), c.Params("token"), req.Password); err != nil {
		return h.resetTokenFail(c, err)
	}
	return ok(c, "Your password has been updated. You can now log in.", nil)
}

func (h *AuthHandler) resetTokenFail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, account.ErrTokenExpired):
		return fail200(c, "That reset link has expired.")
	case errors.Is(err, account.ErrInvalidToken):
		return fail200(c, "That is an invalid reset link.")
	}
	h.Log.WithError(err).Error("reset password")
	return fail500(c, "Failed to reset password")
}
