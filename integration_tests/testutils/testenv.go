// Package testutils starts the containers shared by integration tests.
package testutils

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/database"
	"github.com/Black-And-White-Club/geoguessr-bot/config"
	"github.com/Black-And-White-Club/geoguessr-bot/integration_tests/containers"
)

// appTables lists every table reset between tests.
var appTables = []string{"match_results", "whitelist", "players", "matches", "seasons"}

// TestEnvironment holds the resources shared by one test binary.
type TestEnvironment struct {
	Ctx           context.Context
	PgContainer   *postgres.PostgresContainer
	NatsContainer *tcnats.NATSContainer
	DB            *bun.DB
	Config        *config.Config
}

var (
	envOnce sync.Once
	env     *TestEnvironment
	envErr  error
)

// GetOrCreateTestEnv returns the shared environment, starting containers on
// first use. Integration tests are skipped under -short or when Docker is
// unavailable.
func GetOrCreateTestEnv(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	envOnce.Do(func() {
		env, envErr = newTestEnvironment(context.Background())
	})
	if envErr != nil {
		t.Skipf("integration environment unavailable: %v", envErr)
	}
	return env
}

func newTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	db, err := database.Open(ctx, dsn)
	if err != nil {
		terminate(ctx, pgContainer, natsContainer)
		return nil, err
	}

	if err := database.Migrate(ctx, db, slog.Default()); err != nil {
		db.Close()
		terminate(ctx, pgContainer, natsContainer)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.MigrateRiver(ctx, dsn); err != nil {
		db.Close()
		terminate(ctx, pgContainer, natsContainer)
		return nil, err
	}

	cfg := &config.Config{
		Postgres: config.PostgresConfig{DSN: dsn},
		NATS:     config.NATSConfig{URL: natsURL},
		Season:   config.SeasonConfig{GraceWindow: 24 * time.Hour, Timezone: "UTC"},
		Scraper: config.ScraperConfig{
			BaseURL:           config.DefaultResultsBaseURL,
			RequestsPerSecond: 50,
			Burst:             10,
			Timeout:           5 * time.Second,
		},
		Queue:         config.QueueConfig{Workers: 2, MaxAttempts: 2},
		Observability: config.ObservabilityConfig{LogLevel: "debug", Environment: "test"},
	}

	return &TestEnvironment{
		Ctx:           ctx,
		PgContainer:   pgContainer,
		NatsContainer: natsContainer,
		DB:            db,
		Config:        cfg,
	}, nil
}

// Reset truncates every application table and the River job table, leaving
// season 1 open as after migration.
func (e *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(appTables, ", "))
	if _, err := e.DB.ExecContext(e.Ctx, query); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	if _, err := e.DB.ExecContext(e.Ctx, "INSERT INTO seasons (number, ended_at) VALUES (1, NULL)"); err != nil {
		t.Fatalf("failed to reseed the first season: %v", err)
	}
	if _, err := e.DB.ExecContext(e.Ctx, "DELETE FROM river_job"); err != nil {
		t.Fatalf("failed to clean river jobs: %v", err)
	}
}

// Shutdown stops the shared containers. Call it from TestMain.
func Shutdown() {
	if env == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := env.DB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	terminate(ctx, env.PgContainer, env.NatsContainer)
}

func terminate(ctx context.Context, pg *postgres.PostgresContainer, nc *tcnats.NATSContainer) {
	if nc != nil {
		if err := nc.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if pg != nil {
		if err := pg.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
}
