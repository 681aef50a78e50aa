// Package postgres implements the PostgreSQL dialect: positional $n
// placeholders, SERIAL auto fields and RETURNING for generated ids.
package postgres

import (
	"fmt"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/strata-db/strata/config"
	"github.com/strata-db/strata/driver"
	sqldrv "github.com/strata-db/strata/driver/sql"
	"github.com/strata-db/strata/schema"
)

var postgresBackend = &Backend{}

type Backend struct {
}

func (b *Backend) Name() string {
	return "postgres"
}

func (b *Backend) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (b *Backend) OffsetRequiresLimit() bool {
	return false
}

func (b *Backend) FieldType(f *schema.Field) (string, error) {
	if f.Meta.Has(schema.Auto) {
		if f.Kind == schema.BigInt {
			return "BIGSERIAL", nil
		}
		return "SERIAL", nil
	}
	switch f.Kind {
	case schema.Int:
		return "INTEGER", nil
	case schema.BigInt:
		return "BIGINT", nil
	case schema.String:
		if f.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", f.Size), nil
		}
		return "TEXT", nil
	case schema.JSON:
		return "TEXT", nil
	case schema.Bool:
		return "BOOLEAN", nil
	}
	return "", fmt.Errorf("can't map field kind %s to a postgres type", f.Kind)
}

func (b *Backend) FieldOptions(f *schema.Field) ([]string, error) {
	var opts []string
	if f.Meta.Has(schema.Required) {
		opts = append(opts, "NOT NULL")
	}
	if f.Meta.Has(schema.Auto) {
		opts = append(opts, "PRIMARY KEY")
	}
	return opts, nil
}

func (b *Backend) DefaultValues() string {
	return "DEFAULT VALUES"
}

func (b *Backend) InlineForeignKeys() bool {
	return false
}

func (b *Backend) Insert(db *sqldrv.DB, stmt string, autoCol string, args []interface{}) (int64, error) {
	if autoCol == "" {
		_, err := db.Exec(stmt, args...)
		return 0, err
	}
	row, err := db.QueryRow(stmt+` RETURNING "`+autoCol+`"`, args...)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *Backend) Columns(db *sqldrv.DB, table string) (map[string]bool, error) {
	rows, err := db.Query("SELECT column_name FROM information_schema.columns "+
		"WHERE table_name = $1 AND table_schema = current_schema()", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
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
	row, err := db.QueryRow("SELECT COUNT(*) FROM pg_class WHERE relname = $1", name)
	if err != nil {
		return false, err
	}
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func postgresOpener(url *config.URL) (driver.Driver, error) {
	if url.Scheme != "postgres" {
		return nil, fmt.Errorf("%w: expected postgres://, got %s://", driver.ErrProtocolMismatch, url.Scheme)
	}
	// url.Value is a lib/pq connection string, e.g.
	// "dbname=foo user=bar password=baz sslmode=disable".
	return sqldrv.NewDriver(postgresBackend, url.Value, url.Get("prefix")), nil
}

func init() {
	driver.Register("postgres", postgresOpener)
}
