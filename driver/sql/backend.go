// Package sql implements the storage driver shared by every
// database/sql backend. The driver compiles predicate trees into
// parameterized SQL, builds DDL from a model's schema and runs the
// schema reconciliation engine; everything dialect-specific is behind
// the Backend interface, implemented once per engine in the mysql,
// postgres and sqlite packages.
//
// Identifiers are always quoted with double quotes; the mysql opener
// sets sql_mode ANSI so the same statements work there too.
package sql

import (
	"github.com/strata-db/strata/schema"
)

// Backend is the interface implemented by SQL dialects.
type Backend interface {
	// Name is the database/sql driver name passed to sql.Open.
	Name() string
	// Placeholder returns the placeholder for the n'th parameter,
	// 1-based. Dialects with positional placeholders ($n) use n,
	// the rest return ?.
	Placeholder(n int) string
	// OffsetRequiresLimit reports whether the dialect cannot express
	// OFFSET without LIMIT. Such queries fail with ErrUnsupportedQuery
	// instead of silently dropping the offset.
	OffsetRequiresLimit() bool
	// FieldType returns the column type for the given field.
	FieldType(f *schema.Field) (string, error)
	// FieldOptions returns the column options (NOT NULL, PRIMARY
	// KEY...) for the given field.
	FieldOptions(f *schema.Field) ([]string, error)
	// DefaultValues is the clause used for an INSERT with no columns.
	DefaultValues() string
	// InlineForeignKeys reports whether ALTER TABLE ADD COLUMN must
	// carry the REFERENCES clause inline because the dialect cannot
	// add a constraint afterwards (sqlite).
	InlineForeignKeys() bool
	// Insert runs an insert statement and returns the value generated
	// for autoCol, or 0 if autoCol is empty.
	Insert(db *DB, stmt string, autoCol string, args []interface{}) (int64, error)
	// Columns returns the names of the live columns of the given
	// table, or (nil, nil) if the table does not exist.
	Columns(db *DB, table string) (map[string]bool, error)
	// HasIndex reports whether an index with the given name exists on
	// the given table.
	HasIndex(db *DB, table string, name string) (bool, error)
}
