package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/intake-api/internal/handler/health"
	"github.com/jwalitptl/intake-api/internal/handler/prometheus"
	eventService "github.com/jwalitptl/intake-api/internal/service/event"
	"github.com/jwalitptl/intake-api/pkg/messaging"
)

func workerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Send appointment notifications from the event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			port, _ := cmd.Flags().GetInt("health-port")
			return runWorker(ctx, cmd, port)
		},
	}
	cmd.Flags().Int("health-port", 8081, "port for health and metrics endpoints")
	return cmd
}

func runWorker(ctx context.Context, cmd *cobra.Command, port int) error {
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Redis.URL == "" {
		return fmt.Errorf("worker needs redis.url; without it the server notifies in-process")
	}
	broker, _, err := a.broker(ctx)
	if err != nil {
		return err
	}
	defer broker.Close()

	srv := startWorkerHealth(a, port)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	consumer := messaging.NewConsumer(broker, func(err error) {
		a.log.Error(err, "failed to handle appointment event")
	})

	a.log.Info("worker started", "channel", eventService.Channel)
	err = consumer.Run(ctx, eventService.Channel, a.notificationHandler())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("worker shutting down")
	return nil
}

func startWorkerHealth(a *app, port int) *http.Server {
	gin.SetMode(a.cfg.Server.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(a.gateway, 0).RegisterRoutes(engine.Group(""))
	engine.GET("/metrics", prometheus.New(a.registry, a.metrics).Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error(err, "health server failed")
		}
	}()
	return srv
}
