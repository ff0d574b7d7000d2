package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/intake-api/internal/handler/admin"
	appointmentHandler "github.com/jwalitptl/intake-api/internal/handler/appointment"
	fileHandler "github.com/jwalitptl/intake-api/internal/handler/file"
	"github.com/jwalitptl/intake-api/internal/handler/form"
	"github.com/jwalitptl/intake-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/intake-api/internal/handler/patient"
	"github.com/jwalitptl/intake-api/internal/handler/prometheus"
	userHandler "github.com/jwalitptl/intake-api/internal/handler/user"
	"github.com/jwalitptl/intake-api/internal/middleware"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/internal/router"
	appointmentService "github.com/jwalitptl/intake-api/internal/service/appointment"
	eventService "github.com/jwalitptl/intake-api/internal/service/event"
	patientService "github.com/jwalitptl/intake-api/internal/service/patient"
	userService "github.com/jwalitptl/intake-api/internal/service/user"
	"github.com/jwalitptl/intake-api/internal/validation"
	"github.com/jwalitptl/intake-api/pkg/messaging"
	"github.com/jwalitptl/intake-api/pkg/security"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cmd)
		},
	}
}

func runServer(ctx context.Context, cmd *cobra.Command) error {
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	physicians := a.physicians(ctx)
	v := validator.New(validator.WithPhysicians(model.PhysicianNames(physicians)))
	schema := validation.NewSchema(v, "")

	broker, external, err := a.broker(ctx)
	if err != nil {
		return err
	}
	defer broker.Close()

	// Without Redis there is no separate worker process; notify in-process.
	if !external {
		msgs, err := broker.Subscribe(ctx, eventService.Channel)
		if err != nil {
			return err
		}
		consumer := messaging.NewConsumer(broker, func(err error) {
			a.log.Error(err, "failed to handle appointment event")
		})
		go func() {
			if err := consumer.Consume(ctx, msgs, a.notificationHandler()); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error(err, "notification consumer stopped")
			}
		}()
	}

	var verifier security.PasskeyVerifier
	if cfg.Backend.AdminPasskey != "" {
		verifier, err = security.NewPasskeyVerifier(cfg.Backend.AdminPasskey, 0)
		if err != nil {
			return fmt.Errorf("ADMIN_PASSKEY: %w", err)
		}
	} else {
		a.log.Warn("ADMIN_PASSKEY is not set; admin routes are disabled")
	}

	// Services
	events := eventService.NewEventService(broker, a.log, a.metrics)
	users := userService.NewService(a.gateway, schema, a.log.With("service", "user"))
	patients := patientService.NewService(a.gateway, a.gateway, a.gateway, schema, patientService.Config{
		BucketID:    cfg.Backend.BucketID,
		MaxFileSize: patientService.MaxFileSize,
	}, a.log.With("service", "patient"), a.metrics)
	appointments := appointmentService.NewService(a.gateway, a.gateway, schema, events, a.log.With("service", "appointment"))

	// Handlers
	handlers := router.Handlers{
		Health:      health.NewHandler(a.gateway, 0),
		Form:        form.NewHandler(physicians),
		User:        userHandler.NewHandler(users),
		Patient:     patientHandler.NewHandler(patients),
		Appointment: appointmentHandler.NewHandler(appointments),
		Admin: admin.NewHandler(
			appointments,
			middleware.NewAuthMiddleware(verifier),
			middleware.NewAuditMiddleware(a.log),
		),
	}

	if files, ok := a.gateway.(repository.FileReader); ok {
		handlers.File = fileHandler.NewHandler(files)
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins

	rateLimiter := middleware.RateLimiterConfig{}
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RequestsPerSecond,
			Burst: cfg.RateLimit.Burst,
			TTL:   cfg.RateLimit.TTL,
		}
	}

	r := router.NewRouter(handlers, prometheus.New(a.registry, a.metrics), a.log, router.RouterConfig{
		Mode:        cfg.Server.Mode,
		RateLimiter: rateLimiter,
		CORSConfig:  corsConfig,
		SizeLimit:   middleware.DefaultSizeLimitConfig(),
		Timeout:     middleware.TimeoutConfig{Duration: cfg.Server.RequestTimeout},
		Metrics:     a.metrics,
	})
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
