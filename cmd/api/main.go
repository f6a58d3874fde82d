package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/freelancehub/platform_be/internal/app"
	"github.com/freelancehub/platform_be/internal/config"
	"github.com/freelancehub/platform_be/internal/router"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	srv := router.New(a, router.DefaultOptions())

	errCh := make(chan error, 1)
	go func() {
		a.Log.WithField("port", cfg.AppPort).Info("http server listening")
		errCh <- srv.Listen(":" + cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		a.Log.WithError(err).Error("http server stopped")
	case <-ctx.Done():
		a.Log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		a.Log.WithError(err).Warn("graceful shutdown failed")
	}
	if err := a.Close(); err != nil {
		a.Log.WithError(err).Warn("close resources")
	}
}
