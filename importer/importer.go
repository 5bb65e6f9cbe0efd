package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/streamer/database"
	"github.com/siherrmann/streamer/helper"
	"github.com/siherrmann/streamer/model"
	"github.com/siherrmann/streamer/source"
)

// UserStore is the part of the user database handler the importer needs.
type UserStore interface {
	ImportUsers(ctx context.Context, users []*model.User) (*database.ImportResult, error)
}

// Importer reads user records from CSV files on a source filesystem and
// loads them into the user table.
type Importer struct {
	filesystem source.Filesystem
	store      UserStore
	logger     *slog.Logger
}

// NewImporter creates a new Importer reading from the given filesystem and
// writing through the given user store.
func NewImporter(filesystem source.Filesystem, store UserStore, logger *slog.Logger) (*Importer, error) {
	if filesystem == nil {
		return nil, helper.NewError("filesystem validation", fmt.Errorf("filesystem is nil"))
	}
	if store == nil {
		return nil, helper.NewError("user store validation", fmt.Errorf("user store is nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		filesystem: filesystem,
		store:      store,
		logger:     logger,
	}, nil
}

// ImportCSV reads the CSV file at the given path from the source filesystem and
// imports all valid records in one transaction. The header must contain name,
// email and age columns, a user_id column is optional. Rows with a missing or
// invalid age, rows failing validation and duplicates of already stored users
// are skipped and counted in the result.
func (i *Importer) ImportCSV(ctx context.Context, path string) (*database.ImportResult, error) {
	file, err := i.filesystem.Open(path)
	if err != nil {
		return nil, helper.NewError("open csv file", err)
	}
	defer file.Close()

	users, skipped, err := i.parseUsers(file)
	if err != nil {
		return nil, err
	}

	result, err := i.store.ImportUsers(ctx, users)
	if err != nil {
		return nil, err
	}
	result.Skipped += skipped

	i.logger.Info("Imported csv file", "path", path, "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

// ImportAllCSV imports every .csv file found on the source filesystem and sums
// up the results.
func (i *Importer) ImportAllCSV(ctx context.Context) (*database.ImportResult, error) {
	files, err := i.filesystem.ListFiles()
	if err != nil {
		return nil, helper.NewError("list csv files", err)
	}

	total := &database.ImportResult{}
	for _, file := range files {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
			continue
		}
		result, err := i.ImportCSV(ctx, file.Name)
		if err != nil {
			return nil, err
		}
		total.Inserted += result.Inserted
		total.Skipped += result.Skipped
	}
	return total, nil
}

// csvColumns holds the index of each expected column in the header.
type csvColumns struct {
	userID int
	name   int
	email  int
	age    int
}

// parseUsers reads all CSV records from the reader and converts them to users.
// Invalid rows are skipped with a warning and counted, they never abort the
// whole import.
func (i *Importer) parseUsers(reader io.Reader) ([]*model.User, int, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return []*model.User{}, 0, nil
	}
	if err != nil {
		return nil, 0, helper.NewError("read csv header", err)
	}

	columns, err := columnIndexes(header)
	if err != nil {
		return nil, 0, err
	}

	users := []*model.User{}
	skipped := 0
	line := 1
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			i.logger.Warn("Skipping unreadable csv row", "line", line, "error", err)
			skipped++
			continue
		}

		user, err := userFromRecord(record, columns)
		if err != nil {
			i.logger.Warn("Skipping invalid csv row", "line", line, "error", err)
			skipped++
			continue
		}
		users = append(users, user)
	}

	return users, skipped, nil
}

// columnIndexes resolves the position of each expected column in the header.
func columnIndexes(header []string) (*csvColumns, error) {
	columns := &csvColumns{userID: -1, name: -1, email: -1, age: -1}
	for index, column := range header {
		switch strings.ToLower(strings.TrimSpace(column)) {
		case "user_id":
			columns.userID = index
		case "name":
			columns.name = index
		case "email":
			columns.email = index
		case "age":
			columns.age = index
		}
	}
	if columns.name < 0 || columns.email < 0 || columns.age < 0 {
		return nil, helper.NewError("csv header validation", fmt.Errorf("header must contain name, email and age columns, got %v", header))
	}
	return columns, nil
}

// userFromRecord converts one CSV record into a user. A missing user_id gets a
// fresh UUID, ages are accepted as integers or decimal strings.
func userFromRecord(record []string, columns *csvColumns) (*model.User, error) {
	if columns.name >= len(record) || columns.email >= len(record) || columns.age >= len(record) {
		return nil, fmt.Errorf("record has only %v fields", len(record))
	}

	user := &model.User{
		Name:  strings.TrimSpace(record[columns.name]),
		Email: strings.TrimSpace(record[columns.email]),
	}

	if columns.userID >= 0 && columns.userID < len(record) {
		rawID := strings.TrimSpace(record[columns.userID])
		if rawID != "" {
			userID, err := uuid.Parse(rawID)
			if err != nil {
				return nil, helper.NewError("parse user_id", err)
			}
			user.UserID = userID
		}
	}
	if user.UserID == uuid.Nil {
		user.UserID = uuid.New()
	}

	rawAge := strings.TrimSpace(record[columns.age])
	if rawAge == "" {
		return nil, fmt.Errorf("missing age")
	}
	age, err := strconv.ParseFloat(rawAge, 64)
	if err != nil {
		return nil, helper.NewError("parse age", err)
	}
	user.Age = int(age)

	err = validateUser(user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// validateUser checks the user against the validations declared on the model.
// The user fields only use the min<n> requirement.
func validateUser(user *model.User) error {
	for _, validation := range model.UserValidations {
		var value int
		switch validation.Key {
		case "name":
			value = len(user.Name)
		case "email":
			value = len(user.Email)
		case "age":
			value = user.Age
		default:
			continue
		}

		if strings.HasPrefix(validation.Requirement, "min") {
			min, err := strconv.Atoi(strings.TrimPrefix(validation.Requirement, "min"))
			if err != nil {
				return helper.NewError("parse validation requirement", err)
			}
			if value < min {
				return fmt.Errorf("%v below minimum of %v", validation.Key, min)
			}
		}
	}
	return nil
}
