package strata

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/query"
	"github.com/strata-db/strata/schema"
)

// ForeignKey declares that a field references another model. Field is
// the referenced field name; if empty, the referenced model's auto
// field is used.
type ForeignKey struct {
	Model *Model
	Field string
}

// FieldDef declares a single model field.
type FieldDef struct {
	Name    string
	Kind    schema.Kind
	Meta    schema.Meta
	Size    int
	Foreign *ForeignKey
}

// Options describes a model. An implicit auto INT field named "id" is
// injected unless the declaration already names an "id" field or marks
// another field as auto.
type Options struct {
	Table   string
	Fields  []FieldDef
	Version int64
	Indexes []*schema.Index
	// Driver binds the model to a backend. If nil, the process-wide
	// default is used.
	Driver driver.Driver
}

// Model binds a table name and a field schema to a storage backend.
// Models are immutable after construction; Init must complete before
// any data operation.
type Model struct {
	table   string
	schema  *schema.Schema
	version int64
	indexes []*schema.Index
	drv     driver.Driver
	foreign map[string]*ForeignKey
}

// New validates the declaration and returns a Model.
func New(o *Options) (*Model, error) {
	if o.Table == "" {
		return nil, errors.New("model without table name")
	}
	defs := o.Fields
	if needsImplicitID(defs) {
		defs = append([]FieldDef{{Name: "id", Kind: schema.Int, Meta: schema.Auto}}, defs...)
	}
	fields := make([]*schema.Field, len(defs))
	foreign := make(map[string]*ForeignKey)
	for ii, def := range defs {
		if def.Kind < schema.Int || def.Kind > schema.Bool {
			return nil, fmt.Errorf("field %q has no kind", def.Name)
		}
		f := &schema.Field{
			Name: def.Name,
			Kind: def.Kind,
			Meta: def.Meta,
			Size: def.Size,
		}
		if def.Foreign != nil {
			fk := *def.Foreign
			if fk.Model == nil {
				return nil, fmt.Errorf("field %q references a nil model", def.Name)
			}
			if fk.Field == "" {
				fk.Field = fk.Model.schema.Auto()
				if fk.Field == "" {
					return nil, fmt.Errorf("field %q references model %q, which has no auto field", def.Name, fk.Model.table)
				}
			}
			if !fk.Model.schema.Has(fk.Field) {
				return nil, fmt.Errorf("field %q references %s.%s: %w", def.Name, fk.Model.table, fk.Field, schema.ErrFieldNotFound)
			}
			f.Foreign = &schema.Reference{Table: fk.Model.table, Field: fk.Field}
			foreign[def.Name] = &fk
		}
		fields[ii] = f
	}
	s, err := schema.New(fields...)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateIndexes(s, o.Indexes); err != nil {
		return nil, err
	}
	version := o.Version
	if version < 1 {
		version = 1
	}
	return &Model{
		table:   o.Table,
		schema:  s,
		version: version,
		indexes: o.Indexes,
		drv:     o.Driver,
		foreign: foreign,
	}, nil
}

// MustNew works like New, but panics if there's an error.
func MustNew(o *Options) *Model {
	m, err := New(o)
	if err != nil {
		panic(err)
	}
	return m
}

func needsImplicitID(defs []FieldDef) bool {
	for _, def := range defs {
		if def.Name == "id" || def.Meta.Has(schema.Auto) {
			return false
		}
	}
	return true
}

// Table returns the model's table name.
func (m *Model) Table() string {
	return m.table
}

// Schema returns the model's field schema.
func (m *Model) Schema() *schema.Schema {
	return m.schema
}

// Version returns the declared schema version.
func (m *Model) Version() int64 {
	return m.version
}

// Indexes returns the declared indexes.
func (m *Model) Indexes() []*schema.Index {
	return m.indexes
}

func (m *Model) driver() (driver.Driver, error) {
	if m.drv != nil {
		return m.drv, nil
	}
	if defaultDriver != nil {
		return defaultDriver, nil
	}
	return nil, fmt.Errorf("model %q: %w", m.table, ErrNoDefaultConnection)
}

func (m *Model) auto() (string, error) {
	if a := m.schema.Auto(); a != "" {
		return a, nil
	}
	return "", fmt.Errorf("model %q has no auto field", m.table)
}

// Init reconciles the backend with the declared schema. It must
// complete before any data operation and is safe to call repeatedly.
func (m *Model) Init() error {
	drv, err := m.driver()
	if err != nil {
		return err
	}
	return drv.Initialize(m)
}

// Insert validates and stores a new row, returning the value assigned
// to the model's auto field. Validation runs before any backend I/O.
func (m *Model) Insert(data Row) (int64, error) {
	drv, err := m.driver()
	if err != nil {
		return 0, err
	}
	if err := m.validate(data, false); err != nil {
		return 0, err
	}
	row, err := m.serialize(data)
	if err != nil {
		return 0, err
	}
	return drv.Insert(m, row)
}

// Update validates and applies the supplied fields to the row with the
// given id. It returns the id.
func (m *Model) Update(id int64, data Row) (int64, error) {
	drv, err := m.driver()
	if err != nil {
		return 0, err
	}
	if _, err := m.auto(); err != nil {
		return 0, err
	}
	if err := m.validate(data, true); err != nil {
		return 0, err
	}
	row, err := m.serialize(data)
	if err != nil {
		return 0, err
	}
	if err := drv.Update(m, id, row); err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns the row with the given id, or nil if it does not exist.
func (m *Model) Get(id int64) (Row, error) {
	auto, err := m.auto()
	if err != nil {
		return nil, err
	}
	row, err := m.Query(Where{auto: id}).One()
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return row, err
}

// Delete removes the row with the given id. Deleting a missing id is
// not an error.
func (m *Model) Delete(id int64) error {
	drv, err := m.driver()
	if err != nil {
		return err
	}
	if _, err := m.auto(); err != nil {
		return err
	}
	return drv.Delete(m, id)
}

// Search returns the rows matching the given condition. It is a
// shorthand for Query(cond).All().
func (m *Model) Search(cond query.Q) ([]Row, error) {
	return m.Query(cond).All()
}

// Count returns the number of rows matching the given condition.
func (m *Model) Count(cond query.Q) (uint64, error) {
	return m.Query(cond).Count()
}

func (m *Model) validate(data Row, partial bool) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f := m.schema.Field(k)
		if f == nil {
			return fmt.Errorf("field %q: %w", k, ErrUnknownField)
		}
		if f.Meta.Has(schema.Auto) {
			return fmt.Errorf("field %q: %w", k, ErrAutoValue)
		}
	}
	for _, k := range keys {
		f := m.schema.Field(k)
		if f.Kind == schema.String && f.Size > 0 {
			if s, ok := data[k].(string); ok && len(s) > f.Size {
				return fmt.Errorf("field %q: %d > %d: %w", k, len(s), f.Size, ErrFieldTooLong)
			}
		}
	}
	for _, k := range keys {
		fk := m.foreign[k]
		if fk == nil || data[k] == nil {
			continue
		}
		count, err := fk.Model.Count(Where{fk.Field: data[k]})
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("field %q: no %s with %s = %v: %w", k, fk.Model.table, fk.Field, data[k], ErrForeignKeyViolation)
		}
	}
	if partial {
		for _, k := range keys {
			if m.schema.Field(k).Meta.Has(schema.Required) && data[k] == nil {
				return fmt.Errorf("field %q: %w", k, ErrRequiredFieldNull)
			}
		}
		return nil
	}
	for _, f := range m.schema.Fields() {
		if !f.Meta.Has(schema.Required) || f.Meta.Has(schema.Auto) {
			continue
		}
		v, ok := data[f.Name]
		if !ok {
			return fmt.Errorf("field %q: %w", f.Name, ErrRequiredFieldMissing)
		}
		if v == nil {
			return fmt.Errorf("field %q: %w", f.Name, ErrRequiredFieldNull)
		}
	}
	return nil
}

// serialize prepares a validated payload for storage: JSON fields are
// encoded to their textual form.
func (m *Model) serialize(data Row) (Row, error) {
	out := make(Row, len(data))
	for k, v := range data {
		if f := m.schema.Field(k); f != nil && f.Kind == schema.JSON && v != nil {
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = string(encoded)
			continue
		}
		out[k] = v
	}
	return out, nil
}

// process normalizes a stored row for callers: keys the schema does
// not declare are dropped, absent fields read as nil, JSON fields are
// decoded and scalar kinds are coerced to a single Go type per kind.
func (m *Model) process(raw Row) (Row, error) {
	row := make(Row, m.schema.Len())
	for _, f := range m.schema.Fields() {
		v, err := coerce(f, raw[f.Name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		row[f.Name] = v
	}
	return row, nil
}

func coerce(f *schema.Field, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Kind {
	case schema.Int, schema.BigInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case uint64:
			return int64(x), nil
		case float64:
			return int64(x), nil
		case float32:
			return int64(x), nil
		}
	case schema.Bool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case int:
			return x != 0, nil
		case float64:
			return x != 0, nil
		}
	case schema.String:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}
	case schema.JSON:
		var data []byte
		switch x := v.(type) {
		case string:
			data = []byte(x)
		case []byte:
			data = x
		default:
			// Stored before serialization was in place; pass through.
			return v, nil
		}
		var decoded interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	}
	return nil, fmt.Errorf("can't coerce %T to %s", v, f.Kind)
}
