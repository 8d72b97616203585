// Package container wires the application's dependencies from config.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/jmoiron/sqlx"

	"breakfit/adapters/chart"
	"breakfit/adapters/db/postgres/migrations"
	"breakfit/adapters/postgres"
	"breakfit/app"
	"breakfit/internal"
	"breakfit/internal/config"
	"breakfit/internal/errors"
	"breakfit/internal/testkit"
	"breakfit/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; nil when DATABASE_URL is empty
	DB *sqlx.DB

	Runs       ports.SelectionRepository
	Charts     ports.ChartRenderer
	Selections *app.SelectionService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
	}, nil
}

// Init connects storage and builds the services. Without a database URL
// runs are kept in memory for the life of the process.
func (c *Container) Init(ctx context.Context) error {
	if c.Config.Database.Enabled() {
		db, err := c.connect(ctx)
		if err != nil {
			return err
		}
		c.DB = db
		if err := migrations.NewMigrator(db).Up(ctx); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, fmt.Errorf("database migration failed: %w", err))
		}
		c.Runs = postgres.NewSelectionRepository(db)
	} else {
		c.Logger.Info("DATABASE_URL not set, keeping selection runs in memory")
		c.Runs = testkit.NewInMemorySelectionRepository()
	}

	c.Charts = chart.NewRenderer("png")

	svc, err := app.NewSelectionService(c.Config,
		app.WithRepository(c.Runs),
		app.WithChartRenderer(c.Charts),
		app.WithServiceLogger(c.Logger),
	)
	if err != nil {
		return err
	}
	c.Selections = svc
	return nil
}

// connect opens the configured database, retrying while it comes up
func (c *Container) connect(ctx context.Context) (*sqlx.DB, error) {
	attempts := c.Config.Database.Retries
	if attempts < 1 {
		attempts = 1
	}
	var db *sqlx.DB
	err := retry.Do(
		func() error {
			var openErr error
			db, openErr = postgres.Open(ctx, c.Config.Database.Driver, c.Config.Database.URL)
			return openErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.Logger.Warn("database not ready (attempt %d/%d): %v", n+1, attempts, err)
		}),
	)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, fmt.Errorf("failed to connect to database: %w", err))
	}
	c.Logger.Info("connected to %s database", c.Config.Database.Driver)
	return db, nil
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
