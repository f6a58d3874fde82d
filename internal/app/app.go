// Package app owns the process-wide resources shared by handlers.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/freelancehub/platform_be/internal/config"
	"github.com/freelancehub/platform_be/internal/db"
	"github.com/freelancehub/platform_be/internal/mailer"
	"github.com/freelancehub/platform_be/internal/metrics"
	"github.com/freelancehub/platform_be/internal/realtime"
)

type App struct {
	Config   config.Config
	Log      *logrus.Logger
	DB       *gorm.DB
	Redis    *redis.Client
	Hub      *realtime.Hub
	Notifier realtime.Notifier
	Mailer   mailer.Mailer
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	stopHub context.CancelFunc
}

// NewLogger builds the JSON logger used across the process.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Open connects every backing service. Redis is optional: when it cannot be
// reached notifications stay local to this process.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	log := NewLogger(cfg.LogLevel)

	gdb, err := db.Connect(cfg.DBDSN, log)
	if err != nil {
		return nil, err
	}

	rdb := realtime.NewRedis(realtime.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable, notifications stay local")
		_ = rdb.Close()
		rdb = nil
	} else {
		log.WithField("addr", cfg.RedisAddr).Info("redis connected")
	}

	var m mailer.Mailer
	if cfg.SMTPEnabled() {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		log.Warn("SMTP_HOST not set, mail is written to the log")
		m = &mailer.LogMailer{Log: log}
	}

	return New(cfg, log, gdb, rdb, m), nil
}

// New wires an App from already opened resources and starts the hub.
func New(cfg config.Config, log *logrus.Logger, gdb *gorm.DB, rdb *redis.Client, m mailer.Mailer) *App {
	reg := prometheus.NewRegistry()
	hub := realtime.NewHub(log)

	hubCtx, stop := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	metrics.RegisterGauge(reg, "freelancehub_ws_connections", "Open websocket connections", func() float64 {
		return float64(hub.Connections())
	})

	return &App{
		Config:   cfg,
		Log:      log,
		DB:       gdb,
		Redis:    rdb,
		Hub:      hub,
		Notifier: &realtime.HubNotifier{Hub: hub, RDB: rdb, Log: log},
		Mailer:   m,
		Metrics:  metrics.New(reg),
		Registry: reg,
		stopHub:  stop,
	}
}

// Close stops the hub and releases connections.
func (a *App) Close() error {
	a.stopHub()

	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, db.Close(a.DB))
	}
	return errors.Join(errs...)
}
