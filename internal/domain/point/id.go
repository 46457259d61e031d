package point

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MaxIDLength bounds string identifiers. It keeps storage keys reasonably short.
const MaxIDLength = 256

// ID is the primary identifier assigned by the system of record.
// It is either an integer or a non-empty string and keeps that shape on the wire.
type ID struct {
	raw     string
	numeric bool
}

// IntID creates a numeric identifier.
func IntID(n int64) ID {
	return ID{raw: strconv.FormatInt(n, 10), numeric: true}
}

// StringID validates and creates a string identifier.
func StringID(s string) (ID, error) {
	if s == "" {
		return ID{}, fmt.Errorf("id is required")
	}
	if len(s) > MaxIDLength {
		return ID{}, fmt.Errorf("id too long (max %d)", MaxIDLength)
	}
	return ID{raw: s}, nil
}

// stringKeyPrefix marks string identifiers in storage keys.
// Integers never start with it, so 1 and "1" do not collide.
const stringKeyPrefix = "s:"

// String returns the identifier as given by the caller.
func (id ID) String() string { return id.raw }

// Key returns the storage form of the identifier.
func (id ID) Key() string {
	if id.numeric {
		return id.raw
	}
	return stringKeyPrefix + id.raw
}

// IsNumeric reports whether the identifier was given as an integer.
func (id ID) IsNumeric() bool { return id.numeric }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return id.raw == "" }

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.raw), nil
	}
	return json.Marshal(id.raw)
}

// UnmarshalJSON implements json.Unmarshaler. Accepts an integer or a string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		parsed, err := StringID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be an integer or a string, got %s", data)
	}
	*id = IntID(n)
	return nil
}
