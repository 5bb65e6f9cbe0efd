package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabaseConfiguration(t *testing.T) {
	t.Run("Valid call NewDatabaseConfiguration with environment", func(t *testing.T) {
		t.Setenv("STREAMER_DB_HOST", "db.internal")
		t.Setenv("STREAMER_DB_PORT", "5433")
		t.Setenv("STREAMER_DB_DATABASE", "streaming")
		t.Setenv("STREAMER_DB_USERNAME", "streamer")
		t.Setenv("STREAMER_DB_PASSWORD", "secret")
		t.Setenv("STREAMER_DB_SCHEMA", "public")
		t.Setenv("STREAMER_DB_SSL_MODE", "require")
		t.Setenv("STREAMER_DB_WITH_TABLE_DROP", "true")

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err, "Expected NewDatabaseConfiguration to not return an error")
		assert.Equal(t, "db.internal", config.Host, "Expected host from environment")
		assert.Equal(t, "5433", config.Port, "Expected port from environment")
		assert.Equal(t, "streaming", config.Database, "Expected database from environment")
		assert.Equal(t, "streamer", config.Username, "Expected username from environment")
		assert.Equal(t, "secret", config.Password, "Expected password from environment")
		assert.Equal(t, "require", config.SSLMode, "Expected ssl mode from environment")
		assert.True(t, config.WithTableDrop, "Expected table drop flag from environment")
	})

	t.Run("Valid call NewDatabaseConfiguration with defaults", func(t *testing.T) {
		t.Setenv("STREAMER_DB_HOST", "")
		t.Setenv("STREAMER_DB_PORT", "")
		t.Setenv("STREAMER_DB_WITH_TABLE_DROP", "")

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err, "Expected NewDatabaseConfiguration to not return an error")
		assert.Equal(t, "localhost", config.Host, "Expected default host")
		assert.Equal(t, "5432", config.Port, "Expected default port")
		assert.False(t, config.WithTableDrop, "Expected table drop to default to false")
	})

	t.Run("Invalid call NewDatabaseConfiguration with invalid port", func(t *testing.T) {
		t.Setenv("STREAMER_DB_PORT", "not-a-port")

		_, err := NewDatabaseConfiguration()
		assert.Error(t, err, "Expected error for invalid port")
		assert.Contains(t, err.Error(), "invalid port", "Expected specific error message for invalid port")
	})
}

func TestConnectionStrings(t *testing.T) {
	config := &DatabaseConfiguration{
		Host:     "localhost",
		Port:     "5432",
		Database: "streaming",
		Username: "streamer",
		Password: "secret",
		Schema:   "public",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=streamer password=secret dbname=streaming sslmode=disable search_path=public",
		config.connectionString(),
		"Expected full connection string",
	)
	assert.Equal(t,
		"host=localhost port=5432 user=streamer password=secret dbname=postgres sslmode=disable",
		config.serverConnectionString(),
		"Expected server connection string against the maintenance database",
	)
}

func TestNewDatabaseWithDB(t *testing.T) {
	db := NewDatabaseWithDB("test", nil, nil)
	require.NotNil(t, db, "Expected NewDatabaseWithDB to return a non-nil database")
	assert.Equal(t, "test", db.Name, "Expected database name to be set")
	assert.NoError(t, db.Close(), "Expected Close without instance to not return an error")
}
