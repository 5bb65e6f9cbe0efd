package helper

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MustStartPostgresContainer starts a Postgres container for tests and
// returns its teardown function and mapped port.
func MustStartPostgresContainer() (func(context.Context, ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("database"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", NewError("start postgres container", err)
	}

	port, err := container.MappedPort(ctx, nat.Port("5432/tcp"))
	if err != nil {
		return container.Terminate, "", NewError("get mapped port", err)
	}

	return container.Terminate, port.Port(), nil
}

// SetTestDatabaseConfigEnvs sets the database environment variables to
// the test container defaults for the duration of the test.
func SetTestDatabaseConfigEnvs(t testing.TB, port string) {
	t.Setenv("STREAMER_DB_HOST", "localhost")
	t.Setenv("STREAMER_DB_PORT", port)
	t.Setenv("STREAMER_DB_DATABASE", "database")
	t.Setenv("STREAMER_DB_USERNAME", "user")
	t.Setenv("STREAMER_DB_PASSWORD", "password")
	t.Setenv("STREAMER_DB_SCHEMA", "public")
	t.Setenv("STREAMER_DB_SSL_MODE", "disable")
}

// NewTestDatabase opens a database connection for tests and panics when
// the connection cannot be established.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := NewLogger(os.Stdout, slog.LevelInfo)
	db, err := NewDatabase("test", config, logger)
	if err != nil {
		panic(err)
	}
	return db
}
