package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppPort         string
	AppBaseURL      string
	FrontendBaseURL string
	CORSOrigins     string
	LogLevel        string

	DBDSN string

	JWTSecret     string
	JWTExpiresMin int
	ResetTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	GoogleClientID string
	GoogleSecret   string
	GoogleRedirect string
}

func Load() Config {
	return Config{
		AppPort:         get("APP_PORT", "8080"),
		AppBaseURL:      get("APP_BASE_URL", "http://localhost:8080"),
		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),
		CORSOrigins:     get("CORS_ORIGINS", "http://127.0.0.1:3000, http://localhost:3000"),
		LogLevel:        get("LOG_LEVEL", "info"),

		DBDSN: must("DB_DSN"),

		JWTSecret:     must("JWT_SECRET"),
		JWTExpiresMin: getInt("JWT_EXPIRES_MIN", 10080),
		ResetTokenTTL: time.Duration(getInt("RESET_TOKEN_TTL_MIN", 60)) * time.Minute,

		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		SMTPHost:     get("SMTP_HOST", ""),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: get("SMTP_USERNAME", ""),
		SMTPPassword: get("SMTP_PASSWORD", ""),
		MailFrom:     get("MAIL_FROM", "noreply@freelancehub.local"),

		GoogleClientID: get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:   get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect: get("GOOGLE_REDIRECT_URL", ""),
	}
}

// GoogleEnabled reports whether Google sign-in has credentials.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleSecret != ""
}

// CookieSecure marks session cookies Secure when the API is served over TLS.
func (c Config) CookieSecure() bool {
	return strings.HasPrefix(c.AppBaseURL, "https://")
}

// SMTPEnabled reports whether outbound mail is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
