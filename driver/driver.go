// Package driver defines the contract implemented by the storage
// backends. A Driver receives a model description (table name, schema,
// version and indexes) with every call, compiles the given condition
// with its own predicate compiler and returns plain rows. Drivers
// register themselves by URL scheme, and are selected by the scheme of
// the configuration URL used to open the connection.
package driver

import (
	"github.com/strata-db/strata/config"
	"github.com/strata-db/strata/query"
	"github.com/strata-db/strata/schema"
)

// Row is a stored row: a mapping from field name to a scalar or nil.
type Row map[string]interface{}

// Model is the model description drivers operate on.
type Model interface {
	// Table returns the logical table name, without any prefix.
	Table() string
	// Schema returns the declared fields.
	Schema() *schema.Schema
	// Version returns the declared schema version.
	Version() int64
	// Indexes returns the declared indexes.
	Indexes() []*schema.Index
}

// Driver is the interface implemented by every storage backend.
type Driver interface {
	// Initialize ensures the backend has a table matching the model's
	// schema. It is idempotent: if the stored schema version matches
	// the declared one it does nothing, and on a version change it
	// applies additive-only migration.
	Initialize(m Model) error
	// Query returns the rows matching q, ordered, limited and offset
	// per opts. A nil q matches every row.
	Query(m Model, q query.Q, opts QueryOptions) ([]Row, error)
	// Count returns the number of rows matching q.
	Count(m Model, q query.Q) (uint64, error)
	// Insert stores a new row and returns the value assigned to the
	// model's auto field.
	Insert(m Model, row Row) (int64, error)
	// Update modifies the fields present in row on the row identified
	// by the model's auto field.
	Update(m Model, id int64, row Row) error
	// Delete removes the row with the given id. Deleting a missing id
	// is not an error.
	Delete(m Model, id int64) error
	Close() error
}

// Opener opens a driver from a configuration URL.
type Opener func(url *config.URL) (Driver, error)

var registry = map[string]Opener{}

// Register makes a driver available under the given URL scheme.
// It is expected to be called from the driver package's init.
func Register(scheme string, opener Opener) {
	registry[scheme] = opener
}

// Get returns the Opener registered for the given scheme, or nil.
func Get(scheme string) Opener {
	return registry[scheme]
}
