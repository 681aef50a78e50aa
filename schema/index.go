package schema

import (
	"fmt"
	"strings"
)

// Index declares an index over one or more schema fields.
type Index struct {
	// The fields covered by this index, in order.
	Fields []string
	// Whether the index should be unique.
	Unique bool
	// Name overrides the generated index name.
	Name string
}

// NewIndex returns an index over the given fields.
func NewIndex(fields ...string) *Index {
	return &Index{Fields: fields}
}

// NewUniqueIndex returns a unique index over the given fields.
func NewUniqueIndex(fields ...string) *Index {
	return &Index{Fields: fields, Unique: true}
}

// IndexName returns the name used for the index on the given table:
// the explicit override if set, otherwise <table>_<fields_joined>_idx.
// The generated name is deterministic so re-creation can be skipped.
func IndexName(table string, idx *Index) string {
	if idx.Name != "" {
		return idx.Name
	}
	return table + "_" + strings.Join(idx.Fields, "_") + "_idx"
}

// ValidateIndexes checks that every index covers at least one field and
// only fields the schema declares. It runs before any DDL.
func ValidateIndexes(s *Schema, indexes []*Index) error {
	for _, idx := range indexes {
		if len(idx.Fields) == 0 {
			return fmt.Errorf("index %q has no fields", idx.Name)
		}
		for _, f := range idx.Fields {
			if !s.Has(f) {
				return fmt.Errorf("index field %q: %w", f, ErrFieldNotFound)
			}
		}
	}
	return nil
}
