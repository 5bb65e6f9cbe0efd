package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/siherrmann/streamer/helper"
	"github.com/siherrmann/streamer/model"

	"github.com/google/uuid"
)

// TableName is the table all user operations run against.
const TableName = "user_data"

// UserDBHandlerFunctions defines the interface for user_data database operations.
type UserDBHandlerFunctions interface {
	CheckTableExistance() (bool, error)
	CreateTable() error
	DropTable() error
	InsertUser(user *model.User) (*model.User, error)
	UpdateUserEmail(userID uuid.UUID, newEmail string) (*model.User, error)
	DeleteUser(userID uuid.UUID) error
	SelectUser(userID uuid.UUID) (*model.User, error)
	SelectUserByEmail(email string) (*model.User, error)
	SelectAllUsers(lastID int, entries int) ([]*model.User, error)
	SelectUsersOlderThan(ctx context.Context, age int) ([]*model.User, error)
	SelectUserPage(ctx context.Context, limit int, offset int) ([]*model.User, error)
	CountUsers() (int, error)
	ImportUsers(ctx context.Context, users []*model.User) (*ImportResult, error)
	StreamUsers(ctx context.Context) (*UserCursor, error)
	StreamUserBatches(ctx context.Context, batchSize int) (*BatchCursor, error)
	StreamUserAges(ctx context.Context) (*AgeCursor, error)
	StreamTable(ctx context.Context, table string) (*RowCursor, error)
	LazyPaginateUsers(pageSize int) *PageCursor
	AverageUserAge(ctx context.Context) (float64, error)
	Query(ctx context.Context, query string, args ...interface{}) ([]*model.Row, error)
}

// ImportResult reports the outcome of a bulk user import.
type ImportResult struct {
	Inserted int
	Skipped  int
}

// UserDBHandler implements UserDBHandlerFunctions and holds the database connection.
type UserDBHandler struct {
	db *helper.Database
}

// NewUserDBHandler creates a new instance of UserDBHandler.
// It initializes the database connection and optionally drops existing tables.
// If withTableDrop is true, it will drop the existing user_data table before creating a new one
func NewUserDBHandler(dbConnection *helper.Database, withTableDrop bool) (*UserDBHandler, error) {
	if dbConnection == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	userDbHandler := &UserDBHandler{
		db: dbConnection,
	}

	if withTableDrop {
		err := userDbHandler.DropTable()
		if err != nil {
			return nil, helper.NewError("drop table", err)
		}
	}

	err := userDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	return userDbHandler, nil
}

// CheckTableExistance checks if the 'user_data' table exists in the database.
// It returns true if the table exists, otherwise false.
func (r UserDBHandler) CheckTableExistance() (bool, error) {
	userDataExists, err := r.db.CheckTableExistance(TableName)
	if err != nil {
		return false, helper.NewError("user_data table", err)
	}
	return userDataExists, nil
}

// CreateTable creates the 'user_data' table in the database.
// If the table already exists, it does not create it again.
func (r UserDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
		CREATE TABLE IF NOT EXISTS user_data (
			id SERIAL PRIMARY KEY,
			user_id UUID UNIQUE NOT NULL DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			age INT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_user_data_user_id ON user_data(user_id);
		CREATE INDEX IF NOT EXISTS idx_user_data_email ON user_data(email);
	`

	_, err := r.db.Instance.ExecContext(ctx, query)
	if err != nil {
		return helper.NewError("create user_data table", err)
	}

	r.db.Logger.Info("Checked/created table user_data")

	return nil
}

// DropTable drops the 'user_data' table from the database.
func (r UserDBHandler) DropTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `DROP TABLE IF EXISTS user_data`
	_, err := r.db.Instance.ExecContext(ctx, query)
	if err != nil {
		return helper.NewError("drop user_data table", err)
	}

	r.db.Logger.Info("Dropped table user_data")

	return nil
}

// InsertUser inserts a new user record into the database.
// A missing user ID is generated before the insert.
func (r UserDBHandler) InsertUser(user *model.User) (*model.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID := user.UserID
	if userID == uuid.Nil {
		userID = uuid.New()
	}

	newUser := &model.User{}
	query := `
		INSERT INTO user_data (
			user_id,
			name,
			email,
			age
		) VALUES ($1, $2, $3, $4)
		RETURNING
			id,
			user_id,
			name,
			email,
			age,
			created_at`

	r.db.Logger.Debug("Executing query", "query", query)

	err := r.db.Instance.QueryRowContext(ctx, query, userID, user.Name, user.Email, user.Age).Scan(
		&newUser.ID,
		&newUser.UserID,
		&newUser.Name,
		&newUser.Email,
		&newUser.Age,
		&newUser.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("insert user", err)
	}

	return newUser, nil
}

// UpdateUserEmail updates the email of an existing user record.
func (r UserDBHandler) UpdateUserEmail(userID uuid.UUID, newEmail string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updatedUser := &model.User{}
	query := `
		UPDATE user_data
		SET email = $1
		WHERE user_id = $2
		RETURNING
			id,
			user_id,
			name,
			email,
			age,
			created_at`

	r.db.Logger.Debug("Executing query", "query", query)

	err := r.db.Instance.QueryRowContext(ctx, query, newEmail, userID).Scan(
		&updatedUser.ID,
		&updatedUser.UserID,
		&updatedUser.Name,
		&updatedUser.Email,
		&updatedUser.Age,
		&updatedUser.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewError("user not found", fmt.Errorf("no user with user_id %s", userID))
		}
		return nil, helper.NewError("update user email", err)
	}

	return updatedUser, nil
}

// DeleteUser deletes a user record from the database by user ID.
func (r UserDBHandler) DeleteUser(userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `DELETE FROM user_data WHERE user_id = $1`
	result, err := r.db.Instance.ExecContext(ctx, query, userID)
	if err != nil {
		return helper.NewError("delete user", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return helper.NewError("get rows affected", err)
	}

	if rowsAffected == 0 {
		return helper.NewError("user not found", fmt.Errorf("no user with user_id %s", userID))
	}

	return nil
}

// SelectUser retrieves a user by user ID from the database.
func (r UserDBHandler) SelectUser(userID uuid.UUID) (*model.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user := &model.User{}
	query := `
		SELECT id, user_id, name, email, age, created_at
		FROM user_data
		WHERE user_id = $1
	`

	err := r.db.Instance.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.UserID,
		&user.Name,
		&user.Email,
		&user.Age,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewError("user not found", fmt.Errorf("no user with user_id %s", userID))
		}
		return nil, helper.NewError("select user", err)
	}

	return user, nil
}

// SelectUserByEmail retrieves a user by email from the database.
func (r UserDBHandler) SelectUserByEmail(email string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user := &model.User{}
	query := `
		SELECT id, user_id, name, email, age, created_at
		FROM user_data
		WHERE email = $1
	`

	err := r.db.Instance.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.UserID,
		&user.Name,
		&user.Email,
		&user.Age,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewError("user not found", fmt.Errorf("no user with email %s", email))
		}
		return nil, helper.NewError("select user by email", err)
	}

	return user, nil
}

// SelectAllUsers retrieves all users from the database with pagination.
// lastID is the ID of the last user from the previous page (0 for first page)
// entries is the maximum number of users to return
func (r UserDBHandler) SelectAllUsers(lastID int, entries int) ([]*model.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
		SELECT id, user_id, name, email, age, created_at
		FROM user_data
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2
	`

	rows, err := r.db.Instance.QueryContext(ctx, query, lastID, entries)
	if err != nil {
		return nil, helper.NewError("select all users", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user := &model.User{}
		err := rows.Scan(
			&user.ID,
			&user.UserID,
			&user.Name,
			&user.Email,
			&user.Age,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan user", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows iteration", err)
	}

	return users, nil
}

// SelectUsersOlderThan retrieves all users older than the given age.
func (r UserDBHandler) SelectUsersOlderThan(ctx context.Context, age int) ([]*model.User, error) {
	query := `
		SELECT id, user_id, name, email, age, created_at
		FROM user_data
		WHERE age > $1
	`

	r.db.Logger.Debug("Executing query", "query", query, "age", age)

	rows, err := r.db.Instance.QueryContext(ctx, query, age)
	if err != nil {
		return nil, classifyError("select users older than", TableName, err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user := &model.User{}
		err := rows.Scan(
			&user.ID,
			&user.UserID,
			&user.Name,
			&user.Email,
			&user.Age,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan user", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows iteration", err)
	}

	return users, nil
}

// SelectUserPage retrieves one page of users in natural table order.
// The page is fetched with a fresh query, so consecutive calls see
// inserts that happened in between.
func (r UserDBHandler) SelectUserPage(ctx context.Context, limit int, offset int) ([]*model.User, error) {
	query := `
		SELECT id, user_id, name, email, age, created_at
		FROM user_data
		LIMIT $1 OFFSET $2
	`

	r.db.Logger.Debug("Executing query", "query", query, "limit", limit, "offset", offset)

	rows, err := r.db.Instance.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, classifyError("select user page", TableName, err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user := &model.User{}
		err := rows.Scan(
			&user.ID,
			&user.UserID,
			&user.Name,
			&user.Email,
			&user.Age,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan user", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows iteration", err)
	}

	return users, nil
}

// CountUsers returns the number of rows in the user_data table.
func (r UserDBHandler) CountUsers() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var count int
	err := r.db.Instance.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_data`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("count users", err)
	}

	return count, nil
}

// ImportUsers inserts the given users inside one transaction. Users whose
// user ID or email already exists in the table are skipped silently, the
// remaining users are inserted and the whole batch is committed at once.
func (r UserDBHandler) ImportUsers(ctx context.Context, users []*model.User) (*ImportResult, error) {
	result := &ImportResult{}

	err := helper.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		for _, user := range users {
			userID := user.UserID
			if userID == uuid.Nil {
				userID = uuid.New()
			}

			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM user_data WHERE user_id = $1 OR email = $2)`,
				userID, user.Email,
			).Scan(&exists)
			if err != nil {
				return helper.NewError("check user existance", err)
			}
			if exists {
				result.Skipped++
				continue
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO user_data (user_id, name, email, age) VALUES ($1, $2, $3, $4)`,
				userID, user.Name, user.Email, user.Age,
			)
			if err != nil {
				return helper.NewError("insert user", err)
			}
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.db.Logger.Info("Imported users", "inserted", result.Inserted, "skipped", result.Skipped)

	return result, nil
}

// Query runs a parameterized read query and returns all resulting rows as
// generic rows with the column names in query order.
func (r UserDBHandler) Query(ctx context.Context, query string, args ...interface{}) ([]*model.Row, error) {
	r.db.Logger.Debug("Executing query", "query", query)

	rows, err := r.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError("query", "", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, classifyError("read columns", "", err)
	}

	results := []*model.Row{}
	for rows.Next() {
		row, err := scanGenericRow(rows, columns, "")
		if err != nil {
			return nil, err
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, classifyError("rows iteration", "", err)
	}

	return results, nil
}
