package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

const backendName = "postgres"

// DefaultFileURLBase is where the API serves stored files.
const DefaultFileURLBase = "/api/v1/files"

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Gateway implements repository.Gateway on PostgreSQL
type Gateway struct {
	db          *sqlx.DB
	metrics     *metrics.Metrics
	fileURLBase string
	now         func() time.Time
}

type Option func(*Gateway)

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithFileURLBase sets the prefix of stored file URLs.
func WithFileURLBase(base string) Option {
	return func(g *Gateway) {
		g.fileURLBase = base
	}
}

func NewGateway(db *sqlx.DB, opts ...Option) *Gateway {
	g := &Gateway{
		db:          db,
		fileURLBase: DefaultFileURLBase,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var (
	_ repository.Gateway    = (*Gateway)(nil)
	_ repository.FileReader = (*Gateway)(nil)
)

// WithTx executes a function within a transaction
func (g *Gateway) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Migrate creates missing tables and indexes.
func (g *Gateway) Migrate(ctx context.Context) error {
	return g.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		return nil
	})
}

func (g *Gateway) Ping(ctx context.Context) error {
	return g.db.PingContext(ctx)
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) observe(op string, start time.Time, err error) {
	g.metrics.ObserveGateway(backendName, op, start, err)
}

// translate maps driver errors onto the gateway sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", errors.ErrNotFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %v", errors.ErrConflict, err)
	}
	return err
}
