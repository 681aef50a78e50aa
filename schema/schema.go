// Package schema holds the runtime field metadata a model declares:
// field kinds, constraints and indexes. A Schema is immutable once
// built and is shared between the model façade and the backend drivers,
// which derive DDL and value coercions from it.
package schema

import (
	"errors"
	"fmt"
)

// Kind is the logical type of a field. Backends map kinds to their
// native column types; the file and memory backends store values as
// JSON scalars.
type Kind int

const (
	Int Kind = 1 + iota
	BigInt
	String
	JSON
	Bool
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "INT"
	case BigInt:
		return "BIGINT"
	case String:
		return "STRING"
	case JSON:
		return "JSON"
	case Bool:
		return "BOOLEAN"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Meta is a bit set of field attributes.
type Meta uint8

const (
	// Auto marks a field whose value is assigned by an increasing
	// counter on insert. At most one per schema; SQL backends also
	// treat it as the primary key.
	Auto Meta = 1 << iota
	// Required fields must be present and non-null on insert and may
	// not be set to null on update.
	Required
	// Filtered fields are stripped from exported views.
	Filtered
)

func (m Meta) Has(flag Meta) bool {
	return m&flag != 0
}

// Reference declares a foreign key: the value of the field must exist
// in the given field of the given table.
type Reference struct {
	Table string
	Field string
}

// Field describes a single column of a model.
type Field struct {
	Name string
	Kind Kind
	Meta Meta
	// Size constrains String fields, both as the DDL column width and
	// as a length check on insert and update.
	Size    int
	Foreign *Reference
}

var (
	ErrMultipleAuto   = errors.New("schema declares more than one auto field")
	ErrSizeOnNonString = errors.New("size is only valid on STRING fields")
	// ErrFieldNotFound is returned when an index or reference names a
	// field the schema does not declare. It is raised before any DDL
	// is executed.
	ErrFieldNotFound = errors.New("field not found")
)

// Schema is an ordered, immutable set of fields.
type Schema struct {
	names  []string
	fields map[string]*Field
	auto   string
}

// New builds a Schema from the given fields, which keep their declared
// order. It fails if two fields share a name, more than one field is
// marked Auto, a Size is declared on a non-String field, or an Auto
// field is not an integer kind.
func New(fields ...*Field) (*Schema, error) {
	s := &Schema{
		names:  make([]string, 0, len(fields)),
		fields: make(map[string]*Field, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, errors.New("schema field with empty name")
		}
		if _, ok := s.fields[f.Name]; ok {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		if f.Size != 0 && f.Kind != String {
			return nil, fmt.Errorf("field %q: %w", f.Name, ErrSizeOnNonString)
		}
		if f.Meta.Has(Auto) {
			if s.auto != "" {
				return nil, fmt.Errorf("fields %q and %q: %w", s.auto, f.Name, ErrMultipleAuto)
			}
			if f.Kind != Int && f.Kind != BigInt {
				return nil, fmt.Errorf("auto field %q must be INT or BIGINT, not %s", f.Name, f.Kind)
			}
			s.auto = f.Name
		}
		s.names = append(s.names, f.Name)
		s.fields[f.Name] = f
	}
	return s, nil
}

// Names returns the field names in declaration order. The returned
// slice must not be modified.
func (s *Schema) Names() []string {
	return s.names
}

// Field returns the field with the given name, or nil.
func (s *Schema) Field(name string) *Field {
	return s.fields[name]
}

// Has reports whether the schema declares the given field.
func (s *Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Auto returns the name of the Auto field, or the empty string if the
// schema has none.
func (s *Schema) Auto() string {
	return s.auto
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	return len(s.names)
}

// Fields returns the fields in declaration order. The returned slice
// is a copy.
func (s *Schema) Fields() []*Field {
	fields := make([]*Field, len(s.names))
	for ii, name := range s.names {
		fields[ii] = s.fields[name]
	}
	return fields
}
