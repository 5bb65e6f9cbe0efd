package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserJSONRoundTrip(t *testing.T) {
	user := &User{
		ID:        1,
		UserID:    uuid.New(),
		Name:      "Alice",
		Email:     "alice@example.com",
		Age:       30,
		CreatedAt: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(user)
	require.NoError(t, err, "Expected Marshal to not return an error")
	assert.Contains(t, string(data), `"user_id"`, "Expected snake case json keys")
	assert.Contains(t, string(data), `"created_at"`, "Expected snake case json keys")

	parsed := &User{}
	err = json.Unmarshal(data, parsed)
	require.NoError(t, err, "Expected Unmarshal to not return an error")
	assert.Equal(t, user, parsed, "Expected round trip to keep all fields")
}

func TestUserValidations(t *testing.T) {
	require.Len(t, UserValidations, 3, "Expected validations for name, email and age")

	keys := []string{}
	for _, validation := range UserValidations {
		keys = append(keys, validation.Key)
		assert.NotEmpty(t, validation.Requirement, "Expected a requirement for %v", validation.Key)
	}
	assert.Equal(t, []string{"name", "email", "age"}, keys, "Expected validations in field order")
}
