// Package value defines the tagged union used for payload metadata and filter conditions.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind discriminates the Value union.
type Kind int

// Value kinds. KindInvalid is the zero value and marks an absent (null) value.
const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBool
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRange:
		return "range"
	default:
		return "invalid"
	}
}

// Value is an immutable scalar (string, number, bool) or a numeric range.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	rng  Range
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// FromRange wraps a validated Range.
func FromRange(r Range) Value { return Value{kind: KindRange, rng: r} }

// Kind returns the discriminator.
func (v Value) Kind() Kind { return v.kind }

// IsScalar reports whether v is a string, number or bool.
func (v Value) IsScalar() bool {
	return v.kind == KindString || v.kind == KindNumber || v.kind == KindBool
}

// AsString returns the string payload. Only meaningful for KindString.
func (v Value) AsString() string { return v.str }

// AsNumber returns the numeric payload. Only meaningful for KindNumber.
func (v Value) AsNumber() float64 { return v.num }

// AsBool returns the boolean payload. Only meaningful for KindBool.
func (v Value) AsBool() bool { return v.b }

// AsRange returns the range payload. Only meaningful for KindRange.
func (v Value) AsRange() Range { return v.rng }

// Text is the canonical string form of a scalar, used as a tag value.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports scalar equality. Values of different kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	default:
		return false
	}
}

// FormatNumber renders f in the shortest form that parses back to the same float64.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindRange:
		return json.Marshal(v.rng.bounds())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. JSON null leaves v as KindInvalid.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}

	switch data[0] {
	case 'n':
		*v = Value{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string: %w", err)
		}
		*v = String(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decode bool: %w", err)
		}
		*v = Bool(b)
		return nil
	case '{':
		r, err := decodeRange(data)
		if err != nil {
			return err
		}
		*v = FromRange(r)
		return nil
	case '[':
		return fmt.Errorf("arrays are not supported")
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("decode number %q: %w", data, err)
		}
		*v = Number(f)
		return nil
	}
}

func decodeRange(data []byte) (Range, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Range{}, fmt.Errorf("decode range: %w", err)
	}

	var gt, gte, lt, lte *float64
	for k, msg := range raw {
		var f float64
		if err := json.Unmarshal(msg, &f); err != nil {
			return Range{}, fmt.Errorf("range bound %q must be a number", k)
		}
		switch k {
		case "gt":
			gt = &f
		case "gte":
			gte = &f
		case "lt":
			lt = &f
		case "lte":
			lte = &f
		default:
			return Range{}, fmt.Errorf("unknown range bound %q (want gt, gte, lt, lte)", k)
		}
	}

	return NewRange(gt, gte, lt, lte)
}

// Map is a string-keyed set of values. Decoding drops null entries.
type Map map[string]Value

// UnmarshalJSON implements json.Unmarshaler.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err //nolint:wrapcheck // field context is added by the caller's decoder
	}
	out := make(Map, len(raw))
	for k, v := range raw {
		if v.kind != KindInvalid {
			out[k] = v
		}
	}
	*m = out
	return nil
}
