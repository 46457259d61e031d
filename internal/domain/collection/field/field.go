package field

import (
	"fmt"
	"regexp"
	"strings"
)

// Type is the indexing type of a field.
type Type string

// Field type constants.
const (
	// Tag is an exact-match field. Scalars are indexed by their text form.
	Tag     Type = "tag"
	Numeric Type = "numeric"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Field is an immutable value object describing a filterable payload key.
type Field struct {
	name      string
	fieldType Type
}

// New validates and creates a Field.
// Name must be an identifier of at most 64 chars and must not use the "__" prefix,
// which is reserved for point bookkeeping. Type must be tag or numeric.
func New(name string, ft Type) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(name) > 64 {
		return Field{}, fmt.Errorf("field name %q too long (max 64)", name)
	}
	if strings.HasPrefix(name, "__") {
		return Field{}, fmt.Errorf("field name %q is reserved", name)
	}
	if !nameRegex.MatchString(name) {
		return Field{}, fmt.Errorf("field name %q must be an identifier", name)
	}
	if ft != Tag && ft != Numeric {
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	return Field{name: name, fieldType: ft}, nil
}

// Reconstruct creates a Field without validation (storage hydration).
func Reconstruct(name string, ft Type) Field {
	return Field{name: name, fieldType: ft}
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// FieldType returns the field's indexing type.
func (f Field) FieldType() Type { return f.fieldType }
