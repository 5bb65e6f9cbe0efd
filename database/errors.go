package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
)

// ErrNoUsers is returned by aggregations over an empty user_data table.
var ErrNoUsers = errors.New("no users in table")

// ConnectionError reports an unusable connection handle: a closed pool,
// a dropped network connection or failed authentication.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error in %v: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError reports a failed statement: a missing table, denied access
// or any other error raised while executing or reading a query.
type QueryError struct {
	Op    string
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("query error in %v on table %v: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("query error in %v: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// classifyError sorts a database error into one of the two error kinds.
// Connection level failures (closed handle, network, authentication,
// unknown database) become ConnectionError, everything raised by the
// statement itself becomes QueryError. Already classified errors pass
// through unchanged.
func classifyError(op string, table string, err error) error {
	if err == nil {
		return nil
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return err
	}
	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		return err
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return &ConnectionError{Op: op, Err: err}
	}

	// database/sql does not export its closed pool error.
	if strings.Contains(err.Error(), "database is closed") {
		return &ConnectionError{Op: op, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ConnectionError{Op: op, Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		// 08 connection exception, 28 invalid authorization, 3D invalid catalog name
		case "08", "28", "3D":
			return &ConnectionError{Op: op, Err: err}
		}
	}

	return &QueryError{Op: op, Table: table, Err: err}
}
