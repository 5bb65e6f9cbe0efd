package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataMapGetByKey(t *testing.T) {
	data := DataMap{
		"name":    "Alice",
		"age":     int64(30),
		"ratio":   float64(27.5),
		"count":   3,
		"created": time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}

	t.Run("Valid call GetStringByKey", func(t *testing.T) {
		assert.Equal(t, "Alice", data.GetStringByKey("name"), "Expected string value")
		assert.Equal(t, "", data.GetStringByKey("missing"), "Expected empty string for missing key")
	})

	t.Run("Valid call GetIntByKey", func(t *testing.T) {
		assert.Equal(t, 30, data.GetIntByKey("age"), "Expected int64 to convert to int")
		assert.Equal(t, 27, data.GetIntByKey("ratio"), "Expected float64 to truncate to int")
		assert.Equal(t, 3, data.GetIntByKey("count"), "Expected int to stay int")
		assert.Equal(t, 0, data.GetIntByKey("name"), "Expected non-numeric value to return 0")
		assert.Equal(t, 0, data.GetIntByKey("missing"), "Expected missing key to return 0")
	})

	t.Run("Valid call GetTimeByKey", func(t *testing.T) {
		assert.Equal(t, "2026-08-25", data.GetTimeByKey("created"), "Expected formatted date")
		assert.Equal(t, "invalid time", data.GetTimeByKey("name"), "Expected invalid time for non-time value")
		assert.Equal(t, "invalid time", data.GetTimeByKey("missing"), "Expected invalid time for missing key")
	})

	t.Run("Valid call Has", func(t *testing.T) {
		assert.True(t, data.Has("name"), "Expected existing key to be found")
		assert.False(t, data.Has("missing"), "Expected missing key to not be found")
	})
}

func TestDataMapGetByPath(t *testing.T) {
	t.Run("Valid call GetByPath with flat map", func(t *testing.T) {
		data := DataMap{"a": 1}

		value, ok := data.GetByPath("a")
		require.True(t, ok, "Expected path to resolve")
		assert.Equal(t, 1, value, "Expected flat value")
	})

	t.Run("Valid call GetByPath with nested map", func(t *testing.T) {
		data := DataMap{"a": DataMap{"b": 2}}

		value, ok := data.GetByPath("a")
		require.True(t, ok, "Expected path to resolve")
		assert.Equal(t, DataMap{"b": 2}, value, "Expected nested map value")

		value, ok = data.GetByPath("a", "b")
		require.True(t, ok, "Expected full path to resolve")
		assert.Equal(t, 2, value, "Expected nested value")
	})

	t.Run("Valid call GetByPath with plain nested map", func(t *testing.T) {
		data := DataMap{"a": map[string]interface{}{"b": 2}}

		value, ok := data.GetByPath("a", "b")
		require.True(t, ok, "Expected path through plain map to resolve")
		assert.Equal(t, 2, value, "Expected nested value")
	})

	t.Run("Invalid call GetByPath with missing key", func(t *testing.T) {
		data := DataMap{"a": DataMap{"b": 2}}

		_, ok := data.GetByPath("missing")
		assert.False(t, ok, "Expected missing first key to not resolve")

		_, ok = data.GetByPath("a", "missing")
		assert.False(t, ok, "Expected missing nested key to not resolve")

		_, ok = data.GetByPath("a", "b", "c")
		assert.False(t, ok, "Expected path through a leaf value to not resolve")
	})
}

func TestDataMapScanValue(t *testing.T) {
	data := DataMap{"name": "Alice", "age": float64(30)}

	value, err := data.Value()
	require.NoError(t, err, "Expected Value to not return an error")

	scanned := DataMap{}
	err = scanned.Scan(value)
	require.NoError(t, err, "Expected Scan to not return an error")
	assert.Equal(t, data, scanned, "Expected scanned map to match original")

	err = scanned.Scan(42)
	assert.Error(t, err, "Expected error when scanning a non-byte value")
}

func TestRowAccess(t *testing.T) {
	row := &Row{
		Columns: []string{"name", "age"},
		Values:  DataMap{"name": "Alice", "age": int64(30)},
	}

	t.Run("Valid call Get", func(t *testing.T) {
		value, ok := row.Get("name")
		require.True(t, ok, "Expected existing column to be found")
		assert.Equal(t, "Alice", value, "Expected column value")

		_, ok = row.Get("missing")
		assert.False(t, ok, "Expected missing column to not be found")
	})

	t.Run("Valid call GetString and GetInt", func(t *testing.T) {
		assert.Equal(t, "Alice", row.GetString("name"), "Expected string column value")
		assert.Equal(t, 30, row.GetInt("age"), "Expected int column value")
	})

	t.Run("Valid call Field", func(t *testing.T) {
		column, value := row.Field(0)
		assert.Equal(t, "name", column, "Expected first column name")
		assert.Equal(t, "Alice", value, "Expected first column value")

		column, value = row.Field(2)
		assert.Equal(t, "", column, "Expected empty column name out of range")
		assert.Nil(t, value, "Expected nil value out of range")
	})

	t.Run("Valid call Len", func(t *testing.T) {
		assert.Equal(t, 2, row.Len(), "Expected the number of columns")
	})
}
