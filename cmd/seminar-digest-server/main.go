// The seminar-digest-server binary runs the subscription web service:
// the subscribe form, confirmation and unsubscribe links, per-series
// calendar feeds, and the health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helsinkigse/seminar-digest/internal/config"
	"github.com/helsinkigse/seminar-digest/internal/logger"
	"github.com/helsinkigse/seminar-digest/internal/mailer"
	"github.com/helsinkigse/seminar-digest/internal/store"
	"github.com/helsinkigse/seminar-digest/internal/token"
	"github.com/helsinkigse/seminar-digest/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.RequireServer(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	version, err := store.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", zap.Uint("schema_version", version))

	server := web.New(
		store.New(db, log),
		mailer.New(cfg.SendGridAPIKey, cfg.EmailFrom, log),
		token.NewManager(cfg.SecretKey),
		cfg.AppBaseURL,
		log,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}

	log.Info("stopped")
	return nil
}
