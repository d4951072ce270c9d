package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/socialpedia/internal/api"
	"github.com/dom/socialpedia/internal/config"
	"github.com/dom/socialpedia/internal/events"
	"github.com/dom/socialpedia/internal/media"
	"github.com/dom/socialpedia/internal/metrics"
	"github.com/dom/socialpedia/internal/repository"
	"github.com/dom/socialpedia/internal/repository/memory"
	repoPostgres "github.com/dom/socialpedia/internal/repository/postgres"
	"github.com/dom/socialpedia/internal/service"
	"github.com/dom/socialpedia/internal/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
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

// NewTestDB starts a PostgreSQL container with the users and posts tables
// migrated. The test is skipped when no container runtime is available.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:16-alpine",
		tcPostgres.WithDatabase("test_socialpedia"),
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
	t.Cleanup(testDB.Cleanup)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB.DB = db
	testDB.DSN = dsn
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

	for _, table := range []string{"posts", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Environment:        "test",
		CORSOrigins:        []string{"*"},
		MaxUploadMB:        1,
		DatabaseURL:        "memory://",
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		BcryptCost:         bcrypt.MinCost,
		MediaBackend:       "disk",
		LogLevel:           "debug",
		LogFormat:          "text",
	}
}

// NewTestLogger returns a logger that discards output.
func NewTestLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Store    *memory.Store
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Media    *media.DiskStore
	Metrics  *metrics.Metrics
	Config   *config.Config
	Logs     *test.Hook
}

// NewTestServer wires the full router over the in-memory store.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := TestConfig()
	cfg.MediaDir = t.TempDir()

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	store := memory.NewStore()
	repos := memory.NewRepositories(store)

	hub := websocket.NewHub(log)
	go hub.Run()

	disk, err := media.NewDiskStore(cfg.MediaDir)
	if err != nil {
		t.Fatalf("failed to create media store: %v", err)
	}

	m := metrics.New()
	services := service.NewServices(repos, cfg, service.Options{
		Publisher: events.Multi{hub, m},
		Log:       log,
	})

	router := api.NewRouter(api.Deps{
		Services: services,
		Hub:      hub,
		Media:    disk,
		Metrics:  m,
		Log:      log,
		Config:   cfg,
	})

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Store:    store,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Media:    disk,
		Metrics:  m,
		Config:   cfg,
		Logs:     hook,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// URL returns the full URL for a given path
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http")
	return fmt.Sprintf("%s/ws?token=%s", wsURL, token)
}
