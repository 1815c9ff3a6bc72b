package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringSet is an insertion-ordered set of strings stored as a JSON array
type StringSet []string

// Contains reports whether v is a member of the set
func (s StringSet) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// Add appends v unless it is already present and reports whether it was added
func (s *StringSet) Add(v string) bool {
	if s.Contains(v) {
		return false
	}
	*s = append(*s, v)
	return true
}

// Value implements the driver.Valuer interface for StringSet
func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for StringSet
func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	var result []string
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*s = result
	return nil
}
