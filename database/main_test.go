package database

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/streamer/helper"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	exitCode := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("error tearing down postgres container: %v", err)
		}
	}

	if exitCode != 0 {
		log.Fatalf("tests failed with exit code: %d", exitCode)
	}
}

// newTestUserDBHandler drops and recreates the user_data table and returns a
// fresh handler for it.
func newTestUserDBHandler(t *testing.T) *UserDBHandler {
	t.Helper()

	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		t.Fatalf("failed to create database configuration: %v", err)
	}
	database := helper.NewTestDatabase(dbConfig)

	userDbHandler, err := NewUserDBHandler(database, true)
	if err != nil {
		t.Fatalf("failed to create user database handler: %v", err)
	}
	return userDbHandler
}
