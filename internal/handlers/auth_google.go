package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/freelancehub/platform_be/internal/metrics"
	"github.com/freelancehub/platform_be/internal/services/account"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthHandler struct {
	Accounts        *account.AccountService
	Session         Session
	Log             logrus.FieldLogger
	Metrics         *metrics.Metrics
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func (h *GoogleOAuthHandler) Routes(public fiber.Router) {
	public.Get("/auth/google/start", h.GoogleStart)
	public.Get("/auth/google/callback", h.GoogleCallback)
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) shortCookie(c *fiber.Ctx, name, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Session.Secure,
		SameSite: "Lax",
		MaxAge:   maxAge,
	})
}

// safeNext keeps redirects on the frontend origin.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	st := randomState(32)
	h.shortCookie(c, "oauth_state", st, 10*60)
	h.shortCookie(c, "oauth_next", safeNext(c.Query("next", "/")), 10*60)

	authURL := h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOnline)
	return c.Redirect(authURL, http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *GoogleOAuthHandler) loginError(c *fiber.Ctx, msg string) error {
	target := strings.TrimRight(h.FrontendBaseURL, "/") + "/login?err=" + url.QueryEscape(msg)
	return c.Redirect(target, http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return fail200(c, "Missing code/state")
	}
	if st := c.Cookies("oauth_state"); st == "" || st != state {
		return fail200(c, "Invalid state")
	}
	next := safeNext(c.Cookies("oauth_next", "/"))

	h.shortCookie(c, "oauth_state", "", -1)
	h.shortCookie(c, "oauth_next", "", -1)

	gu, err := h.fetchUser(c, code)
	if err != nil {
		h.Log.WithError(err).Warn("google sign-in failed")
		return h.loginError(c, "Google sign-in failed")
	}
	if gu.Email == "" || !gu.VerifiedEmail {
		return h.loginError(c, "Google account has no verified email")
	}

	u, created, err := h.Accounts.FindOrCreateOAuthUser(c.UserContext(), gu.Email, gu.Name)
	if err != nil {
		h.Log.WithError(err).Error("google user upsert")
		return fail500(c, "Failed to create account")
	}
	if created {
		h.Metrics.Registered("google")
	}
	if !u.IsActive {
		return h.loginError(c, "Account is inactive")
	}

	if err := h.Session.Issue(c, u); err != nil {
		return fail500(c, "Failed to create token")
	}

	target := next
	if u.Role == "" {
		target = "/select_role"
	}
	return c.Redirect(strings.TrimRight(h.FrontendBaseURL, "/")+target, http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) fetchUser(c *fiber.Ctx, code string) (*googleUserInfo, error) {
	ctx := c.UserContext()
	tok, err := h.oauthCfg().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := h.oauthCfg().Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	gu.Email = account.NormalizeEmail(gu.Email)
	gu.Name = strings.TrimSpace(gu.Name)
	return &gu, nil
}
