// Package schema declares and enforces field constraints for candidate
// records. A schema is written as a CUE struct; regular fields are
// required, optional fields (`name?: type`) are allowed but not required.
//
// The schema is the oracle the harness checks the store against: Apply
// decides, for any candidate record, whether persistence must succeed
// (returning the cleaned record) or fail (returning a *FieldError).
package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Kind is the declared type of a schema field.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
)

// Field is a single declared field constraint.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema holds the declared field constraints in declaration order.
type Schema struct {
	fields []Field
	index  map[string]Field
}

// FieldError is returned when a candidate record violates the schema.
type FieldError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable reason
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// Load reads and parses a CUE schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(string(data))
}

// Parse compiles CUE source into a Schema.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The source should be a struct of field declarations, e.g.:
//
//	username: string
//	password: string
//	age?:     int
func Parse(source string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(source)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	// Iterate declared fields, including optional ones.
	iter, err := v.Fields(cue.Optional(true))
	if err != nil {
		return nil, fmt.Errorf("iterate schema fields: %w", err)
	}

	s := &Schema{index: make(map[string]Field)}
	for iter.Next() {
		name := iter.Label()
		kind, err := kindOf(iter.Value())
		if err != nil {
			return nil, &FieldError{Field: name, Message: err.Error()}
		}
		field := Field{
			Name:     name,
			Kind:     kind,
			Required: !iter.IsOptional(),
		}
		s.fields = append(s.fields, field)
		s.index[name] = field
	}

	return s, nil
}

// kindOf maps a CUE value's incomplete kind to a schema Kind.
func kindOf(v cue.Value) (Kind, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return KindString, nil
	case cue.IntKind, cue.NumberKind:
		return KindInt, nil
	case cue.BoolKind:
		return KindBool, nil
	default:
		return "", fmt.Errorf("unsupported field type %s (only string, int, bool)", v.IncompleteKind())
	}
}

// Fields returns the declared fields in declaration order.
// The returned slice is a copy; mutating it does not affect the schema.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the declaration for a field name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.index[name]
	return f, ok
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Apply validates a candidate record against the schema.
//
// On acceptance it returns a cleaned copy of the record with undeclared
// fields silently dropped. On rejection it returns a *FieldError.
// The input map is never mutated.
//
// Rejection cases:
//   - a required field is missing
//   - a declared field carries a value of the wrong type
//   - a declared field carries a null value
func (s *Schema) Apply(record map[string]any) (map[string]any, error) {
	clean := make(map[string]any, len(s.fields))

	for _, f := range s.fields {
		value, present := record[f.Name]
		if !present {
			if f.Required {
				return nil, &FieldError{Field: f.Name, Message: "required field is missing"}
			}
			continue
		}
		if value == nil {
			return nil, &FieldError{Field: f.Name, Message: "null value is not allowed"}
		}
		coerced, ok := coerce(f.Kind, value)
		if !ok {
			return nil, &FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("expected %s, got %T", f.Kind, value),
			}
		}
		clean[f.Name] = coerced
	}

	// Undeclared fields are dropped, not rejected. The harness relies on
	// this to distinguish expectedEqual=false round trips.
	return clean, nil
}

// coerce checks a value against a kind and normalizes integer width.
// YAML and JSON decoders hand back int, int64, or float64 for numbers;
// the stored form always uses int64.
func coerce(kind Kind, value any) (any, bool) {
	switch kind {
	case KindString:
		v, ok := value.(string)
		return v, ok
	case KindInt:
		switch v := value.(type) {
		case int:
			return int64(v), true
		case int64:
			return v, true
		case float64:
			if v == float64(int64(v)) {
				return int64(v), true
			}
			return nil, false
		default:
			return nil, false
		}
	case KindBool:
		v, ok := value.(bool)
		return v, ok
	default:
		return nil, false
	}
}
