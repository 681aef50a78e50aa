// Package mysql implements the MySQL dialect. The connection is opened
// with sql_mode ANSI so identifiers can be quoted with double quotes
// like on every other backend.
package mysql

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/strata-db/strata/config"
	"github.com/strata-db/strata/driver"
	sqldrv "github.com/strata-db/strata/driver/sql"
	"github.com/strata-db/strata/schema"
)

var mysqlBackend = &Backend{}

type Backend struct {
}

func (b *Backend) Name() string {
	return "mysql"
}

func (b *Backend) Placeholder(n int) string {
	return "?"
}

// OffsetRequiresLimit is true: MySQL has no OFFSET without LIMIT, and
// silently ignoring the offset would change the result set.
func (b *Backend) OffsetRequiresLimit() bool {
	return true
}

func (b *Backend) FieldType(f *schema.Field) (string, error) {
	switch f.Kind {
	case schema.Int:
		return "INT", nil
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
		return "BOOL", nil
	}
	return "", fmt.Errorf("can't map field kind %s to a mysql type", f.Kind)
}

func (b *Backend) FieldOptions(f *schema.Field) ([]string, error) {
	var opts []string
	if f.Meta.Has(schema.Required) {
		opts = append(opts, "NOT NULL")
	}
	if f.Meta.Has(schema.Auto) {
		opts = append(opts, "AUTO_INCREMENT", "PRIMARY KEY")
	}
	return opts, nil
}

func (b *Backend) DefaultValues() string {
	return "() VALUES()"
}

func (b *Backend) InlineForeignKeys() bool {
	return false
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
	rows, err := db.Query("SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS "+
		"WHERE TABLE_NAME = ? AND TABLE_SCHEMA = DATABASE()", table)
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
	row, err := db.QueryRow("SELECT COUNT(*) FROM INFORMATION_SCHEMA.STATISTICS "+
		"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND INDEX_NAME = ?", table, name)
	if err != nil {
		return false, err
	}
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func mysqlOpener(url *config.URL) (driver.Driver, error) {
	if url.Scheme != "mysql" {
		return nil, fmt.Errorf("%w: expected mysql://, got %s://", driver.ErrProtocolMismatch, url.Scheme)
	}
	dsn := url.Value
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "sql_mode=%27ANSI%27&clientFoundRows=true&parseTime=true"
	return sqldrv.NewDriver(mysqlBackend, dsn, url.Get("prefix")), nil
}

func init() {
	driver.Register("mysql", mysqlOpener)
}
