package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	t.Run("Nil error stays nil", func(t *testing.T) {
		assert.NoError(t, classifyError("op", TableName, nil), "Expected nil error to stay nil")
	})

	t.Run("Already classified errors pass through", func(t *testing.T) {
		connErr := &ConnectionError{Op: "op", Err: errors.New("broken")}
		assert.Equal(t, error(connErr), classifyError("other op", TableName, connErr), "Expected ConnectionError to pass through unchanged")

		queryErr := &QueryError{Op: "op", Table: TableName, Err: errors.New("broken")}
		assert.Equal(t, error(queryErr), classifyError("other op", TableName, queryErr), "Expected QueryError to pass through unchanged")

		wrapped := fmt.Errorf("outer: %w", queryErr)
		assert.Equal(t, error(wrapped), classifyError("other op", TableName, wrapped), "Expected wrapped QueryError to pass through unchanged")
	})

	t.Run("Closed handle errors become ConnectionError", func(t *testing.T) {
		for _, err := range []error{
			sql.ErrConnDone,
			driver.ErrBadConn,
			errors.New("sql: database is closed"),
		} {
			classified := classifyError("op", TableName, err)
			var connErr *ConnectionError
			require.ErrorAs(t, classified, &connErr, "Expected ConnectionError for %v", err)
			assert.Equal(t, "op", connErr.Op, "Expected operation on the error")
		}
	})

	t.Run("Network errors become ConnectionError", func(t *testing.T) {
		netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		classified := classifyError("op", TableName, netErr)

		var connErr *ConnectionError
		require.ErrorAs(t, classified, &connErr, "Expected ConnectionError for a network error")
		assert.True(t, errors.Is(classified, netErr), "Expected the network error to stay unwrappable")
	})

	t.Run("Postgres connection classes become ConnectionError", func(t *testing.T) {
		for _, code := range []pq.ErrorCode{"08006", "28P01", "3D000"} {
			classified := classifyError("op", TableName, &pq.Error{Code: code})
			var connErr *ConnectionError
			assert.ErrorAs(t, classified, &connErr, "Expected ConnectionError for code %v", code)
		}
	})

	t.Run("Statement errors become QueryError", func(t *testing.T) {
		missingTable := &pq.Error{Code: "42P01", Message: "relation does not exist"}
		classified := classifyError("stream users", TableName, missingTable)

		var queryErr *QueryError
		require.ErrorAs(t, classified, &queryErr, "Expected QueryError for a missing table")
		assert.Equal(t, "stream users", queryErr.Op, "Expected operation on the error")
		assert.Equal(t, TableName, queryErr.Table, "Expected table on the error")
	})

	t.Run("Unknown errors become QueryError", func(t *testing.T) {
		classified := classifyError("op", TableName, errors.New("something else"))
		var queryErr *QueryError
		assert.ErrorAs(t, classified, &queryErr, "Expected QueryError for an unknown error")
	})
}

func TestConnectionErrorFormat(t *testing.T) {
	cause := errors.New("broken pipe")
	err := &ConnectionError{Op: "stream users", Err: cause}

	assert.Equal(t, "connection error in stream users: broken pipe", err.Error(), "Expected formatted connection error")
	assert.Equal(t, cause, err.Unwrap(), "Expected Unwrap to return the cause")
	assert.True(t, errors.Is(err, cause), "Expected errors.Is to find the cause")
}

func TestQueryErrorFormat(t *testing.T) {
	cause := errors.New("relation does not exist")

	t.Run("With table", func(t *testing.T) {
		err := &QueryError{Op: "stream users", Table: TableName, Err: cause}
		assert.Equal(t, "query error in stream users on table user_data: relation does not exist", err.Error(), "Expected formatted query error with table")
		assert.True(t, errors.Is(err, cause), "Expected errors.Is to find the cause")
	})

	t.Run("Without table", func(t *testing.T) {
		err := &QueryError{Op: "query", Err: cause}
		assert.Equal(t, "query error in query: relation does not exist", err.Error(), "Expected formatted query error without table")
	})
}
