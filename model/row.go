package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type DataMap map[string]interface{}

func (d *DataMap) GetStringByKey(key string) string {
	if value, ok := (*d)[key]; ok {
		return fmt.Sprintf("%v", value)
	}
	return ""
}

func (d *DataMap) GetIntByKey(key string) int {
	if value, ok := (*d)[key]; ok {
		switch number := value.(type) {
		case int:
			return number
		case int64:
			return int(number)
		case float64:
			return int(number)
		}
		return 0
	}
	return 0
}

func (d *DataMap) GetTimeByKey(key string) string {
	if value, ok := (*d)[key]; ok {
		if date, ok := value.(time.Time); ok {
			return date.Format("2006-01-02")
		}
		return "invalid time"
	}
	return "invalid time"
}

// GetByPath walks nested DataMap values along the given key path.
// It returns the value at the end of the path or false if any key is missing.
func (d *DataMap) GetByPath(path ...string) (interface{}, bool) {
	var current interface{} = *d
	for _, key := range path {
		switch nested := current.(type) {
		case DataMap:
			value, ok := nested[key]
			if !ok {
				return nil, false
			}
			current = value
		case map[string]interface{}:
			value, ok := nested[key]
			if !ok {
				return nil, false
			}
			current = value
		default:
			return nil, false
		}
	}
	return current, true
}

func (d DataMap) Value() (driver.Value, error) {
	return d.Marshal()
}

func (d *DataMap) Scan(value interface{}) error {
	return d.Unmarshal(value)
}

func (d DataMap) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

func (d *DataMap) Unmarshal(value interface{}) error {
	if s, ok := value.(DataMap); ok {
		*d = DataMap(s)
	} else {
		b, ok := value.([]byte)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		return json.Unmarshal(b, d)
	}
	return nil
}

func (d *DataMap) Has(key string) bool {
	if _, ok := (*d)[key]; ok {
		return true
	}
	return false
}

// Row is one record returned by a table read: the column names in query
// order plus the value per column. Rows are value-only once produced,
// a cursor never hands out the same Row twice.
type Row struct {
	Columns []string
	Values  DataMap
}

// Get returns the value of the named column.
func (r *Row) Get(column string) (interface{}, bool) {
	value, ok := r.Values[column]
	return value, ok
}

func (r *Row) GetString(column string) string {
	return r.Values.GetStringByKey(column)
}

func (r *Row) GetInt(column string) int {
	return r.Values.GetIntByKey(column)
}

// Field returns the column name and value at position i in query order.
func (r *Row) Field(i int) (string, interface{}) {
	if i < 0 || i >= len(r.Columns) {
		return "", nil
	}
	return r.Columns[i], r.Values[r.Columns[i]]
}

func (r *Row) Len() int {
	return len(r.Columns)
}
