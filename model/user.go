package model

import (
	"time"

	"github.com/google/uuid"
	vm "github.com/siherrmann/validator/model"
)

// User represents one record of the user_data table.
type User struct {
	ID        int       `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

// UserValidations describes the import requirements for user_data records.
// Records failing these are skipped by the importer, not inserted.
var UserValidations = []vm.Validation{
	{Key: "name", Type: vm.String, Requirement: "min1"},
	{Key: "email", Type: vm.String, Requirement: "min3"},
	{Key: "age", Type: vm.Int, Requirement: "min1"},
}
