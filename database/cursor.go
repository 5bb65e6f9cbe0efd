package database

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/siherrmann/streamer/model"

	"github.com/lib/pq"
)

// StreamUsers opens a forward-only cursor over all rows of the user_data
// table in natural retrieval order. Rows are fetched on demand, the
// result set is never materialized as a whole. The cursor is bound to
// the given context and must be closed after use; every call issues a
// fresh query and returns an independent cursor.
func (r UserDBHandler) StreamUsers(ctx context.Context) (*UserCursor, error) {
	query := `SELECT id, user_id, name, email, age, created_at FROM user_data`

	r.db.Logger.Debug("Executing query", "query", query)

	rows, err := r.db.Instance.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError("stream users", TableName, err)
	}

	return &UserCursor{rows: rows}, nil
}

// StreamUserAges opens a cursor over the age column only.
func (r UserDBHandler) StreamUserAges(ctx context.Context) (*AgeCursor, error) {
	query := `SELECT age FROM user_data`

	r.db.Logger.Debug("Executing query", "query", query)

	rows, err := r.db.Instance.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError("stream user ages", TableName, err)
	}

	return &AgeCursor{rows: rows}, nil
}

// StreamTable opens a cursor of generic rows over any table. The table
// name is quoted as an identifier, a missing table surfaces as a
// QueryError on the first call.
func (r UserDBHandler) StreamTable(ctx context.Context, table string) (*RowCursor, error) {
	query := fmt.Sprintf(`SELECT * FROM %v`, pq.QuoteIdentifier(table))

	r.db.Logger.Debug("Executing query", "query", query)

	rows, err := r.db.Instance.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError("stream table", table, err)
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, classifyError("read columns", table, err)
	}

	return &RowCursor{rows: rows, table: table, columns: columns}, nil
}

// AverageUserAge streams all ages and returns their mean without loading
// the column into memory. It returns ErrNoUsers when the table is empty.
func (r UserDBHandler) AverageUserAge(ctx context.Context) (float64, error) {
	cursor, err := r.StreamUserAges(ctx)
	if err != nil {
		return 0, err
	}
	defer cursor.Close()

	total := 0
	count := 0
	for cursor.Next() {
		age, err := cursor.Age()
		if err != nil {
			return 0, err
		}
		total += age
		count++
	}
	if err := cursor.Err(); err != nil {
		return 0, err
	}

	if count == 0 {
		return 0, ErrNoUsers
	}

	return float64(total) / float64(count), nil
}

// UserCursor is a forward-only cursor over user_data rows. The consumer
// drives progress: Next prepares the following row (and may block on
// network I/O), User scans it. The cursor holds one row at a time and is
// not safe for concurrent use. Close releases the underlying result set
// and may be called at any point of the iteration.
type UserCursor struct {
	rows *sql.Rows
}

// Next prepares the next row. It returns false when the result set is
// exhausted or an error occurred, which is then available via Err.
func (c *UserCursor) Next() bool {
	return c.rows.Next()
}

// User scans the current row into a fresh user value.
func (c *UserCursor) User() (*model.User, error) {
	user := &model.User{}
	err := c.rows.Scan(
		&user.ID,
		&user.UserID,
		&user.Name,
		&user.Email,
		&user.Age,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, classifyError("scan user", TableName, err)
	}
	return user, nil
}

// Err returns the error that ended iteration, if any.
func (c *UserCursor) Err() error {
	return classifyError("stream users", TableName, c.rows.Err())
}

// Close releases the result set. Closing an exhausted or partially
// consumed cursor is always allowed.
func (c *UserCursor) Close() error {
	return c.rows.Close()
}

// All returns the remaining rows as a range-over-func sequence. The
// cursor is closed when the loop finishes, breaks early or fails.
func (c *UserCursor) All() iter.Seq2[*model.User, error] {
	return func(yield func(*model.User, error) bool) {
		defer c.Close()
		for c.Next() {
			user, err := c.User()
			if !yield(user, err) {
				return
			}
			if err != nil {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// RowCursor is a forward-only cursor of generic rows over one table,
// carrying the column names of the underlying query.
type RowCursor struct {
	rows    *sql.Rows
	table   string
	columns []string
}

// Columns returns the column names in query order.
func (c *RowCursor) Columns() []string {
	return c.columns
}

// Next prepares the next row. It returns false when the result set is
// exhausted or an error occurred, which is then available via Err.
func (c *RowCursor) Next() bool {
	return c.rows.Next()
}

// Row scans the current row into a fresh generic row value.
func (c *RowCursor) Row() (*model.Row, error) {
	return scanGenericRow(c.rows, c.columns, c.table)
}

// Err returns the error that ended iteration, if any.
func (c *RowCursor) Err() error {
	return classifyError("stream table", c.table, c.rows.Err())
}

// Close releases the result set.
func (c *RowCursor) Close() error {
	return c.rows.Close()
}

// All returns the remaining rows as a range-over-func sequence. The
// cursor is closed when the loop finishes, breaks early or fails.
func (c *RowCursor) All() iter.Seq2[*model.Row, error] {
	return func(yield func(*model.Row, error) bool) {
		defer c.Close()
		for c.Next() {
			row, err := c.Row()
			if !yield(row, err) {
				return
			}
			if err != nil {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// AgeCursor is a forward-only cursor over the age column of user_data.
type AgeCursor struct {
	rows *sql.Rows
}

func (c *AgeCursor) Next() bool {
	return c.rows.Next()
}

func (c *AgeCursor) Age() (int, error) {
	var age int
	err := c.rows.Scan(&age)
	if err != nil {
		return 0, classifyError("scan age", TableName, err)
	}
	return age, nil
}

func (c *AgeCursor) Err() error {
	return classifyError("stream user ages", TableName, c.rows.Err())
}

func (c *AgeCursor) Close() error {
	return c.rows.Close()
}

// scanGenericRow scans the current row of rows into a generic row value.
// Raw byte values are converted to strings, everything else keeps the
// driver type.
func scanGenericRow(rows *sql.Rows, columns []string, table string) (*model.Row, error) {
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	if err := rows.Scan(pointers...); err != nil {
		return nil, classifyError("scan row", table, err)
	}

	data := model.DataMap{}
	for i, column := range columns {
		if b, ok := values[i].([]byte); ok {
			data[column] = string(b)
		} else {
			data[column] = values[i]
		}
	}

	return &model.Row{
		Columns: append([]string(nil), columns...),
		Values:  data,
	}, nil
}
