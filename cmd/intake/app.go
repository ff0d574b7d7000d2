package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/intake-api/config"
	"github.com/jwalitptl/intake-api/internal/email"
	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/internal/repository/appwrite"
	"github.com/jwalitptl/intake-api/internal/repository/memory"
	"github.com/jwalitptl/intake-api/internal/repository/postgres"
	"github.com/jwalitptl/intake-api/internal/service/notification"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/messaging"
	"github.com/jwalitptl/intake-api/pkg/messaging/redis"
	"github.com/jwalitptl/intake-api/pkg/metrics"
	"github.com/jwalitptl/intake-api/pkg/worker"
)

// app holds what every command needs: config, logging, metrics and the
// persistence gateway for the configured driver.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	gateway  repository.Gateway
	sms      notification.SMSSender
	postgres *postgres.Gateway
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	paths, _ := cmd.Flags().GetStringSlice("config-path")
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		JSON:       cfg.Logging.JSON,
		TimeFormat: time.RFC3339,
	})
	logger.SetGlobal(log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  metrics.New("intake", registry),
	}
	if err := a.openGateway(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openGateway(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case config.DriverAppwrite:
		b := a.cfg.Backend
		client, err := appwrite.NewClient(appwrite.Config{
			Endpoint:                b.Endpoint,
			ProjectID:               b.ProjectID,
			APIKey:                  b.APIKey,
			DatabaseID:              b.DatabaseID,
			PatientCollectionID:     b.PatientCollectionID,
			DoctorCollectionID:      b.DoctorCollectionID,
			AppointmentCollectionID: b.AppointmentCollectionID,
			BucketID:                b.BucketID,
		}, a.log.Zerolog(), appwrite.WithMetrics(a.metrics))
		if err != nil {
			return err
		}
		a.gateway = client
		if a.cfg.Notifier.SMS {
			a.sms = client
		}

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, a.cfg.Database.ToPostgresConfig())
		if err != nil {
			return err
		}
		a.postgres = postgres.NewGateway(db,
			postgres.WithMetrics(a.metrics),
			postgres.WithFileURLBase(a.cfg.Storage.FileURLBase),
		)
		a.gateway = a.postgres

	case config.DriverMemory:
		a.gateway = memory.New(memory.WithPhysicians(model.DefaultPhysicians))

	default:
		return fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}

	a.log.Info("gateway ready", "driver", a.cfg.Storage.Driver)
	return nil
}

// physicians loads the doctor directory once. The built-in directory is
// used when the backend has none or cannot be reached.
func (a *app) physicians(ctx context.Context) []model.Physician {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	list, err := a.gateway.ListPhysicians(ctx)
	if err != nil {
		a.log.Warn("falling back to built-in physician directory", "error", err.Error())
		return model.DefaultPhysicians
	}
	if len(list) == 0 {
		return model.DefaultPhysicians
	}
	return list
}

// broker is Redis when a URL is configured, otherwise in-process.
func (a *app) broker(ctx context.Context) (messaging.Broker, bool, error) {
	if a.cfg.Redis.URL == "" {
		return messaging.NewMemoryBroker(), false, nil
	}
	b, err := redis.NewRedisBroker(ctx, a.cfg.Redis.ToBrokerConfig(), a.log.Zerolog(), a.metrics)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (a *app) notifier() notification.Service {
	var mailer email.Service
	if smtp := a.cfg.Notifier.SMTP; smtp.Host != "" {
		mailer = email.NewSMTPService(email.SMTPConfig{
			Host:     smtp.Host,
			Port:     smtp.Port,
			Username: smtp.Username,
			Password: smtp.Password,
			From:     smtp.From,
		})
	}
	return notification.NewService(a.gateway, a.sms, mailer, a.log.With("component", "notifier"), a.metrics)
}

// notificationHandler is the retrying event handler both the worker and
// the in-process consumer run.
func (a *app) notificationHandler() messaging.Handler {
	return worker.Retrying(a.notifier().HandleEvent, worker.RetryConfig{
		Attempts: a.cfg.Notifier.RetryAttempts,
		Delay:    a.cfg.Notifier.RetryDelay,
	}, a.log.With("component", "notifier"))
}

func (a *app) close() {
	if err := a.gateway.Close(); err != nil {
		a.log.Error(err, "failed to close gateway")
	}
}
