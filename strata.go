// Package strata is a connection-agnostic data-mapping layer: a model
// declares a table name, a set of typed fields and a schema version,
// and can be backed interchangeably by a flat-file JSON store, MySQL,
// PostgreSQL, SQLite or an in-memory store. All backends evaluate the
// same predicate trees identically, whether by scanning rows in
// process or by lowering the tree to parameterized SQL.
package strata

import (
	"fmt"

	"github.com/strata-db/strata/config"
	"github.com/strata-db/strata/driver"
)

var imports = map[string]string{
	"file":     "github.com/strata-db/strata/driver/file",
	"memory":   "github.com/strata-db/strata/driver/memory",
	"mysql":    "github.com/strata-db/strata/driver/mysql",
	"postgres": "github.com/strata-db/strata/driver/postgres",
	"sqlite":   "github.com/strata-db/strata/driver/sqlite",
}

// Row is a stored row, mapping field names to scalars or nil.
type Row = driver.Row

type SortDirection = driver.SortDirection

const (
	ASC  = driver.ASC
	DESC = driver.DESC
)

// Open creates a driver from a configuration pseudo-URL, e.g.
// file:///var/data?prefix=app_ or postgres://dbname=foo user=bar.
// The scheme selects the driver, which must have been registered by
// importing its package.
func Open(rawurl string) (driver.Driver, error) {
	u, err := config.ParseURL(rawurl)
	if err != nil {
		return nil, err
	}
	opener := driver.Get(u.Scheme)
	if opener == nil {
		if imp, ok := imports[u.Scheme]; ok {
			return nil, fmt.Errorf("please, import package %q to use driver %q", imp, u.Scheme)
		}
		return nil, fmt.Errorf("no driver named %q", u.Scheme)
	}
	drv, err := opener(u)
	if err != nil {
		return nil, fmt.Errorf("error opening driver %q: %w", u.Scheme, err)
	}
	return drv, nil
}

var defaultDriver driver.Driver

// SetDefault sets the process-wide default driver, used by models
// created without an explicit one. It belongs in application wiring;
// the core never touches it except as a fallback at the model boundary.
func SetDefault(d driver.Driver) {
	defaultDriver = d
}

// Default returns the process-wide default driver, or nil.
func Default() driver.Driver {
	return defaultDriver
}
