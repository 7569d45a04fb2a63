package store

import (
	"context"
	"fmt"
	"regexp"
)

// validFieldName matches identifiers safe to interpolate into a JSON path.
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via path interpolation.
var validFieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Record is the stored form of an accepted candidate record.
//
// ID and Version are store-generated and are not part of the logical
// schema; Fields carries only the declared field values.
type Record struct {
	ID      string
	Version int64
	Fields  map[string]any
}

// Insert persists a record's fields and returns the augmented stored form.
// The identifier and version marker are generated by the store.
//
// The fields map must already be schema-cleaned; the store does not
// validate it beyond canonical JSON constraints (no floats, no nulls).
func (s *Store) Insert(ctx context.Context, fields map[string]any) (*Record, error) {
	fieldsJSON, err := marshalFields(fields)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	rec := &Record{
		ID:      s.ids.Generate(),
		Version: s.versions.Next(),
		Fields:  copyFields(fields),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, version, fields)
		VALUES (?, ?, ?)
	`, rec.ID, rec.Version, fieldsJSON)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	return rec, nil
}

// FindByField performs a point lookup by a single field value.
//
// Returns (nil, nil) when no record matches. Returns an error when more
// than one record matches: a point lookup against an ambiguous field is
// a caller bug, not an empty result.
func (s *Store) FindByField(ctx context.Context, name string, value any) (*Record, error) {
	if !validFieldName.MatchString(name) {
		return nil, fmt.Errorf("find record: invalid field name %q: must match pattern %s", name, validFieldName.String())
	}

	// json_extract yields 0/1 for JSON booleans.
	param := value
	if b, ok := value.(bool); ok {
		if b {
			param = 1
		} else {
			param = 0
		}
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, version, fields
		FROM records
		WHERE json_extract(fields, '$.%s') = ?
		LIMIT 2
	`, name), param)
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("find record: %w", err)
		}
		return nil, nil
	}

	var (
		rec        Record
		fieldsJSON string
	)
	if err := rows.Scan(&rec.ID, &rec.Version, &fieldsJSON); err != nil {
		return nil, fmt.Errorf("find record: scan: %w", err)
	}
	rec.Fields, err = unmarshalFields(fieldsJSON)
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}

	if rows.Next() {
		return nil, fmt.Errorf("find record: multiple records match %s=%v", name, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}

	return &rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Wipe erases all stored records.
// Used at teardown to leave a clean slate for the next run.
func (s *Store) Wipe(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("wipe records: %w", err)
	}
	return nil
}

// copyFields returns a shallow copy so callers can't mutate stored state.
func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
