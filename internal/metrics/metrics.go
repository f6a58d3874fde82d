package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Requests             *prometheus.CounterVec
	BadRequests          *prometheus.CounterVec
	Registrations        *prometheus.CounterVec
	MessagesSent         *prometheus.CounterVec
	ProjectsPosted       prometheus.Counter
	ProjectTransitions   *prometheus.CounterVec
	RatingsSubmitted     *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freelancehub_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		BadRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freelancehub_http_client_errors_total",
				Help: "Total number of unsuccessful (4xx) HTTP requests",
			},
			[]string{"route"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freelancehub_registrations_total",
				Help: "Accounts and profiles created",
			},
			[]string{"kind"},
		),
		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freelancehub_messages_sent_total",
				Help: "Total number of successfully sent messages",
			},
			[]string{"kind"},
		),
		ProjectsPosted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "freelancehub_projects_posted_total",
				Help: "Total number of projects posted",
			},
		),
		ProjectTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freelancehub_project_transitions_total",
				Help: "Project status changes by target status",
			},
			[]string{"status"},
		),
		RatingsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freelancehub_ratings_submitted_total",
				Help: "Ratings created or updated",
			},
			[]string{"outcome"},
		),
		NotificationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freelancehub_notification_failures_total",
				Help: "Best effort notifications that failed",
			},
			[]string{"channel"},
		),
	}

	reg.MustRegister(
		m.Requests,
		m.BadRequests,
		m.Registrations,
		m.MessagesSent,
		m.ProjectsPosted,
		m.ProjectTransitions,
		m.RatingsSubmitted,
		m.NotificationFailures,
	)
	return m
}

// RegisterGauge exposes a value sampled at scrape time.
func RegisterGauge(reg prometheus.Registerer, name, help string, fn func() float64) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

// Middleware counts every request by matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		m.Requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		if status >= 400 && status < 500 {
			m.BadRequests.WithLabelValues(route).Inc()
		}
		return err
	}
}

func (m *Metrics) Registered(kind string) {
	if m != nil {
		m.Registrations.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) MessageSent(kind string) {
	if m != nil {
		m.MessagesSent.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ProjectPosted() {
	if m != nil {
		m.ProjectsPosted.Inc()
	}
}

func (m *Metrics) ProjectTransitioned(status string) {
	if m != nil {
		m.ProjectTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) RatingSubmitted(created bool) {
	if m == nil {
		return
	}
	outcome := "updated"
	if created {
		outcome = "created"
	}
	m.RatingsSubmitted.WithLabelValues(outcome).Inc()
}

func (m *Metrics) NotificationFailed(channel string) {
	if m != nil {
		m.NotificationFailures.WithLabelValues(channel).Inc()
	}
}
