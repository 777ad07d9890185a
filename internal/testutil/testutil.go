package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/account-market/internal/api"
	"github.com/dom/account-market/internal/config"
	"github.com/dom/account-market/internal/repository"
	repoPostgres "github.com/dom/account-market/internal/repository/postgres"
	"github.com/dom/account-market/internal/service"
	"github.com/dom/account-market/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated
// connection. The test is skipped when no container runtime is available.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_account_market"),
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

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"listings", "user_sessions", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                 "0",
		Environment:          "test",
		LogLevel:             "debug",
		DatabaseURL:          "postgres://unused",
		SessionSecret:        "test-session-secret-for-testing-only",
		SessionTTL:           24 * time.Hour,
		SessionCookieName:    "session",
		SessionBackend:       config.SessionBackendPostgres,
		SessionPurgeSchedule: "@every 1h",
		RequireAuth:          true,
		ListingDeletePolicy:  config.DeletePolicyAny,
		LoginRedirect:        "/dashboard.html",
		LoginPage:            "/login.html",
	}
}

// TestLogger returns a logger that writes through t.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestServer holds all components for HTTP-level testing
type TestServer struct {
	Server   *httptest.Server
	Fakes    *FakeRepositories
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer starts the full router over in-memory stores. Options adjust
// the config before anything is built.
func NewTestServer(t *testing.T, opts ...func(*config.Config)) *TestServer {
	t.Helper()

	cfg := TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Feed goroutines can outlive the test, so nothing here may log through t.
	log := zap.NewNop()
	fakes := NewFakeRepositories()
	repos := fakes.Repositories()

	hub := websocket.NewHub(log)
	go hub.Run()

	services := service.NewServices(repos, cfg, log)
	services.Listing.SetPublisher(hub)
	router := api.NewRouter(services, hub, repos.Store, cfg, log)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Fakes:    fakes,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// URL returns the full URL for a path on the test server
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// WebSocketURL returns the ws:// URL for a path on the test server
func (ts *TestServer) WebSocketURL(path string) string {
	return "ws" + ts.Server.URL[len("http"):] + path
}
