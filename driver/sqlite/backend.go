// Package sqlite implements the SQLite dialect on top of the pure-Go
// modernc.org/sqlite driver, so the whole SQL path can run without a
// server (or cgo).
package sqlite

import (
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/strata-db/strata/config"
	"github.com/strata-db/strata/driver"
	sqldrv "github.com/strata-db/strata/driver/sql"
	"github.com/strata-db/strata/schema"
)

var sqliteBackend = &Backend{}

type Backend struct {
}

func (b *Backend) Name() string {
	return "sqlite"
}

func (b *Backend) Placeholder(n int) string {
	return "?"
}

func (b *Backend) OffsetRequiresLimit() bool {
	return false
}

func (b *Backend) FieldType(f *schema.Field) (string, error) {
	switch f.Kind {
	case schema.Int, schema.BigInt, schema.Bool:
		return "INTEGER", nil
	case schema.String, schema.JSON:
		return "TEXT", nil
	}
	return "", fmt.Errorf("can't map field kind %s to a sqlite type", f.Kind)
}

func (b *Backend) FieldOptions(f *schema.Field) ([]string, error) {
	var opts []string
	if f.Meta.Has(schema.Required) {
		opts = append(opts, "NOT NULL")
	}
	if f.Meta.Has(schema.Auto) {
		opts = append(opts, "PRIMARY KEY", "AUTOINCREMENT")
	}
	return opts, nil
}

func (b *Backend) DefaultValues() string {
	return "DEFAULT VALUES"
}

// InlineForeignKeys is true: sqlite has no ALTER TABLE ADD CONSTRAINT,
// so migrated columns carry their REFERENCES clause inline.
func (b *Backend) InlineForeignKeys() bool {
	return true
}

func (b *Backend) Insert(db *sqldrv.DB, stmt string, autoCol string, args []interface{}) (int64, error) {
	res, err := db.Exec(stmt, args...)
	if err != nil {
		return 0, err
	}
	if autoCol == "" {
		return 0, nil
	}
	return res.LastInsertId()
}

func (b *Backend) Columns(db *sqldrv.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, typ string
		var notNull int
		var dflt interface{}
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}
	return cols, nil
}

func (b *Backend) HasIndex(db *sqldrv.DB, table string, name string) (bool, error) {
	row, err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", name)
	if err != nil {
		return false, err
	}
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func sqliteOpener(url *config.URL) (driver.Driver, error) {
	if url.Scheme != "sqlite" {
		return nil, fmt.Errorf("%w: expected sqlite://, got %s://", driver.ErrProtocolMismatch, url.Scheme)
	}
	return sqldrv.NewDriver(sqliteBackend, url.Value, url.Get("prefix")), nil
}

func init() {
	driver.Register("sqlite", sqliteOpener)
}
