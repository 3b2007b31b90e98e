package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edufam/edufam-backend/internal/api"
	"github.com/edufam/edufam-backend/internal/config"
	"github.com/edufam/edufam-backend/internal/logger"
	"github.com/edufam/edufam-backend/internal/metrics"
	"github.com/edufam/edufam-backend/internal/repository"
	repoPostgres "github.com/edufam/edufam-backend/internal/repository/postgres"
	"github.com/edufam/edufam-backend/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// SchemaBeforeFingerprint is the migration version that predates the
// refresh token fingerprint column.
const SchemaBeforeFingerprint int64 = 1

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts PostgreSQL and applies every migration.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	return NewTestDBAtVersion(t, 0)
}

// NewTestDBAtVersion starts PostgreSQL and migrates up to version, or fully
// when version is 0.
func NewTestDBAtVersion(t *testing.T, version int64) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_edufam"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	testDB.DB = db

	if err := repoPostgres.MigrateTo(ctx, db, version, logger.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.DB != nil {
		_ = repoPostgres.Close(tdb.DB)
	}
	if tdb.Container != nil {
		_ = tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"refresh_tokens",
		"user_sessions",
		"users",
		"schools",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// Repositories probes the schema and builds repositories on it.
func (tdb *TestDB) Repositories() *repository.Repositories {
	caps := repoPostgres.ProbeCapabilities(tdb.DB, logger.Nop())
	return repoPostgres.NewRepositories(tdb.DB, caps)
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Environment:        "test",
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenDays:   30,
		BcryptCost:         4,
		RefreshRetention:   time.Hour,
		RefreshPurgePeriod: 0,
		AllowedOrigins:     []string{"http://localhost:3000"},
		RateLimit: config.RateLimit{
			Window:     time.Minute,
			LoginMax:   1000,
			RefreshMax: 1000,
			LogoutMax:  1000,
		},
	}
}

// NewTestServices builds the service layer on repos with the test config.
func NewTestServices(t *testing.T, repos *repository.Repositories, cfg *config.Config) *service.Services {
	t.Helper()

	services, err := service.NewServices(repos, cfg, nil, logger.Nop())
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}
	return services
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithConfig(t, TestConfig())
}

// NewTestServerWithConfig is NewTestServer with a caller supplied config.
func NewTestServerWithConfig(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	repos := testDB.Repositories()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	services, err := service.NewServices(repos, cfg, m, logger.Nop())
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}

	router := api.NewRouter(api.Deps{
		Services: services,
		Config:   cfg,
		Limiters: api.NewLimiters(cfg.RateLimit, nil),
		Metrics:  m,
		Gatherer: registry,
		DB:       testDB.DB,
		Logger:   logger.Nop(),
	})

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Metrics:  m,
		Registry: registry,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}
