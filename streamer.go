package streamer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/siherrmann/streamer/database"
	"github.com/siherrmann/streamer/helper"
	"github.com/siherrmann/streamer/importer"
	"github.com/siherrmann/streamer/model"
	"github.com/siherrmann/streamer/source"

	"golang.org/x/sync/errgroup"
)

// fetchPageSize is the keyset page size used when materializing the full user list.
const fetchPageSize = 100

// Streamer bundles the user database handler, the source filesystem and the
// CSV importer behind one entry point.
type Streamer struct {
	Users      database.UserDBHandlerFunctions
	Filesystem source.Filesystem
	Importer   *importer.Importer

	db     *helper.Database
	logger *slog.Logger
}

// NewStreamer connects to the database described by the given configuration and
// wires up the user database handler, the source filesystem and the importer.
// The database is created if it does not exist yet. A nil logger falls back to
// the pretty console logger on stdout.
func NewStreamer(name string, config *helper.DatabaseConfiguration, logger *slog.Logger) (*Streamer, error) {
	if config == nil {
		return nil, helper.NewError("configuration validation", fmt.Errorf("database configuration is nil"))
	}
	if logger == nil {
		opts := helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, opts))
	}

	err := helper.EnsureDatabase(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure database: %w", err)
	}

	db, err := helper.NewDatabase(name, config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	users, err := database.NewUserDBHandler(db, config.WithTableDrop)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create user database handler: %w", err)
	}

	filesystem, err := source.CreateFilesystemFromEnv()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create filesystem: %w", err)
	}

	csvImporter, err := importer.NewImporter(filesystem, users, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create importer: %w", err)
	}

	return &Streamer{
		Users:      users,
		Filesystem: filesystem,
		Importer:   csvImporter,
		db:         db,
		logger:     logger,
	}, nil
}

// NewStreamerFromEnv loads the database configuration from environment
// variables (and a .env file if present) and creates a Streamer. If
// STREAMER_IMPORT_CSV names a file on the source filesystem it is imported
// right away, import failures only log a warning.
func NewStreamerFromEnv(name string) (*Streamer, error) {
	helper.LoadEnv()

	config, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}

	newStreamer, err := NewStreamer(name, config, nil)
	if err != nil {
		return nil, err
	}

	importPath := helper.GetEnvOrDefault("STREAMER_IMPORT_CSV", "")
	if importPath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		result, err := newStreamer.ImportCSV(ctx, importPath)
		if err != nil {
			newStreamer.logger.Warn("Failed to import csv file", "path", importPath, "error", err)
		} else {
			newStreamer.logger.Info("Imported csv file on startup", "path", importPath, "inserted", result.Inserted, "skipped", result.Skipped)
		}
	}

	return newStreamer, nil
}

// StreamUsers opens a cursor over all users in insertion order.
func (s *Streamer) StreamUsers(ctx context.Context) (*database.UserCursor, error) {
	return s.Users.StreamUsers(ctx)
}

// StreamTable opens a cursor over all rows of the given table.
func (s *Streamer) StreamTable(ctx context.Context, table string) (*database.RowCursor, error) {
	return s.Users.StreamTable(ctx, table)
}

// StreamUserBatches opens a cursor yielding users in slices of batchSize.
func (s *Streamer) StreamUserBatches(ctx context.Context, batchSize int) (*database.BatchCursor, error) {
	return s.Users.StreamUserBatches(ctx, batchSize)
}

// LazyPaginateUsers returns a paginator fetching one page per call.
func (s *Streamer) LazyPaginateUsers(pageSize int) *database.PageCursor {
	return s.Users.LazyPaginateUsers(pageSize)
}

// AverageUserAge computes the mean age over all users in one streaming pass.
func (s *Streamer) AverageUserAge(ctx context.Context) (float64, error) {
	return s.Users.AverageUserAge(ctx)
}

// ImportCSV imports the CSV file at the given path on the source filesystem.
func (s *Streamer) ImportCSV(ctx context.Context, path string) (*database.ImportResult, error) {
	return s.Importer.ImportCSV(ctx, path)
}

// ConcurrentUsers holds the result of fetching the full user list and the
// users above an age threshold in parallel.
type ConcurrentUsers struct {
	All   []*model.User
	Older []*model.User
}

// FetchUsersConcurrently loads all users and the users older than minAge with
// two parallel queries on the shared connection pool.
func (s *Streamer) FetchUsersConcurrently(ctx context.Context, minAge int) (*ConcurrentUsers, error) {
	result := &ConcurrentUsers{}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		lastID := 0
		for {
			err := groupCtx.Err()
			if err != nil {
				return err
			}

			page, err := s.Users.SelectAllUsers(lastID, fetchPageSize)
			if err != nil {
				return err
			}
			result.All = append(result.All, page...)
			if len(page) < fetchPageSize {
				return nil
			}
			lastID = page[len(page)-1].ID
		}
	})
	group.Go(func() error {
		users, err := s.Users.SelectUsersOlderThan(groupCtx, minAge)
		if err != nil {
			return err
		}
		result.Older = users
		return nil
	})

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Fetched users concurrently", "total", len(result.All), "older", len(result.Older))
	return result, nil
}

// Close closes the underlying database connection pool.
func (s *Streamer) Close() error {
	return s.db.Close()
}
