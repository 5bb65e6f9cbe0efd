package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lib/pq"
)

// DatabaseConfiguration holds every value needed to open a database
// connection. It is filled once (from the environment or by hand) and
// passed into the connection factory, nothing reads the environment
// after that.
type DatabaseConfiguration struct {
	Host          string
	Port          string
	Database      string
	Username      string
	Password      string
	Schema        string
	SSLMode       string
	WithTableDrop bool
}

// NewDatabaseConfiguration builds a DatabaseConfiguration from the
// environment. A .env file is loaded first if present. All values have
// defaults matching a local development database.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	LoadEnv()

	config := &DatabaseConfiguration{
		Host:          GetEnvOrDefault("STREAMER_DB_HOST", "localhost"),
		Port:          GetEnvOrDefault("STREAMER_DB_PORT", "5432"),
		Database:      GetEnvOrDefault("STREAMER_DB_DATABASE", "database"),
		Username:      GetEnvOrDefault("STREAMER_DB_USERNAME", "user"),
		Password:      GetEnvOrDefault("STREAMER_DB_PASSWORD", "password"),
		Schema:        GetEnvOrDefault("STREAMER_DB_SCHEMA", "public"),
		SSLMode:       GetEnvOrDefault("STREAMER_DB_SSL_MODE", "disable"),
		WithTableDrop: GetEnvOrDefault("STREAMER_DB_WITH_TABLE_DROP", "false") == "true",
	}

	if _, err := strconv.Atoi(config.Port); err != nil {
		return nil, NewError("database port validation", fmt.Errorf("invalid port %v", config.Port))
	}

	return config, nil
}

func (c *DatabaseConfiguration) connectionString() string {
	return fmt.Sprintf(
		"host=%v port=%v user=%v password=%v dbname=%v sslmode=%v search_path=%v",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode, c.Schema,
	)
}

func (c *DatabaseConfiguration) serverConnectionString() string {
	return fmt.Sprintf(
		"host=%v port=%v user=%v password=%v dbname=postgres sslmode=%v",
		c.Host, c.Port, c.Username, c.Password, c.SSLMode,
	)
}

// Database wraps an open sql.DB together with a name and logger.
type Database struct {
	Name     string
	Logger   *slog.Logger
	Instance *sql.DB
}

// NewDatabase opens a connection with the given configuration and pings
// it to make sure the database is reachable.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil {
		return nil, NewError("database configuration validation", fmt.Errorf("database configuration is nil"))
	}

	instance, err := sql.Open("postgres", config.connectionString())
	if err != nil {
		return nil, NewError("open database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = instance.PingContext(ctx)
	if err != nil {
		instance.Close()
		return nil, NewError("ping database", err)
	}

	logger.Info("Connected to database", "name", name, "database", config.Database)

	return &Database{
		Name:     name,
		Logger:   logger,
		Instance: instance,
	}, nil
}

// NewDatabaseWithDB wraps an already open sql.DB.
func NewDatabaseWithDB(name string, instance *sql.DB, logger *slog.Logger) *Database {
	return &Database{
		Name:     name,
		Logger:   logger,
		Instance: instance,
	}
}

// EnsureDatabase connects to the server maintenance database and creates
// the configured database if it does not exist yet.
func EnsureDatabase(config *DatabaseConfiguration, logger *slog.Logger) error {
	if config == nil {
		return NewError("database configuration validation", fmt.Errorf("database configuration is nil"))
	}

	server, err := sql.Open("postgres", config.serverConnectionString())
	if err != nil {
		return NewError("open server connection", err)
	}
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exists bool
	err = server.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM pg_database WHERE datname = $1)`, config.Database).Scan(&exists)
	if err != nil {
		return NewError("check database existance", err)
	}

	if !exists {
		_, err = server.ExecContext(ctx, fmt.Sprintf(`CREATE DATABASE %v`, pq.QuoteIdentifier(config.Database)))
		if err != nil {
			return NewError("create database", err)
		}
		logger.Info("Created database", "database", config.Database)
	}

	return nil
}

// WithDatabase opens a connection, runs fn with it and closes the
// connection again on every exit path.
func WithDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger, fn func(db *Database) error) error {
	db, err := NewDatabase(name, config, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}

// CheckTableExistance checks if the given table exists in the database.
func (d *Database) CheckTableExistance(table string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`
	err := d.Instance.QueryRowContext(ctx, query, table).Scan(&exists)
	if err != nil {
		return false, NewError("check table existance", err)
	}

	return exists, nil
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	if d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
