package sql

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"

	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/schema"
)

// VersionTable tracks the schema version of every initialized table.
// The table prefix, if any, is applied to it as well.
const VersionTable = "strata_schema"

// Initialize reconciles the backend table with the declared schema:
//
//  1. no version record: create the table from the full field list,
//     create the declared indexes and record the version.
//  2. version unchanged: nothing to do.
//  3. version changed: add every declared column missing from the live
//     table (plus its foreign key constraint), create the declared
//     indexes and record the new version. Existing columns are never
//     dropped or altered.
//
// The sequence is not transactional, so every step is written to be
// safe to retry after a partial failure.
func (d *Driver) Initialize(m driver.Model) error {
	s := m.Schema()
	if err := schema.ValidateIndexes(s, m.Indexes()); err != nil {
		return err
	}
	if err := d.ensureVersionTable(); err != nil {
		return err
	}
	table := d.tableName(m)
	stored, ok, err := d.storedVersion(table)
	if err != nil {
		return err
	}
	if !ok {
		if err := d.createTable(table, s); err != nil {
			return err
		}
		if err := d.createIndexes(table, m.Indexes(), s); err != nil {
			return err
		}
		return d.writeVersion(table, m.Version(), false)
	}
	if stored == m.Version() {
		return nil
	}
	if err := d.addMissingColumns(table, s); err != nil {
		return err
	}
	if err := d.createIndexes(table, m.Indexes(), s); err != nil {
		return err
	}
	return d.writeVersion(table, m.Version(), true)
}

func (d *Driver) ensureVersionTable() error {
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(255) NOT NULL PRIMARY KEY, %s BIGINT NOT NULL)",
		quoteIdentifier(d.prefix+VersionTable), quoteIdentifier("name"), quoteIdentifier("version"))
	_, err := d.db.Exec(stmt)
	return err
}

func (d *Driver) storedVersion(table string) (int64, bool, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		quoteIdentifier("version"), quoteIdentifier(d.prefix+VersionTable),
		quoteIdentifier("name"), d.backend.Placeholder(1))
	row, err := d.db.QueryRow(stmt, table)
	if err != nil {
		return 0, false, err
	}
	var version int64
	if err := row.Scan(&version); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return version, true, nil
}

func (d *Driver) writeVersion(table string, version int64, update bool) error {
	var stmt string
	if update {
		stmt = fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
			quoteIdentifier(d.prefix+VersionTable), quoteIdentifier("version"),
			d.backend.Placeholder(1), quoteIdentifier("name"), d.backend.Placeholder(2))
		_, err := d.db.Exec(stmt, version, table)
		return err
	}
	stmt = fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
		quoteIdentifier(d.prefix+VersionTable), quoteIdentifier("name"), quoteIdentifier("version"),
		d.backend.Placeholder(1), d.backend.Placeholder(2))
	_, err := d.db.Exec(stmt, table, version)
	return err
}

func (d *Driver) createTable(table string, s *schema.Schema) error {
	stmt, err := CreateTableSQL(d.backend, table, s, d.prefix)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(stmt)
	return err
}

// CreateTableSQL builds the full CREATE TABLE statement for the given
// schema: auto fields become the primary key, required fields NOT NULL
// and foreign keys table-level FOREIGN KEY constraints. The statement
// carries IF NOT EXISTS so a retry after a crash between table
// creation and the version write finds nothing to do. Exposed for
// tests.
func CreateTableSQL(b Backend, table string, s *schema.Schema, prefix string) (string, error) {
	var lines []string
	for _, f := range s.Fields() {
		def, err := columnDef(b, f, false, prefix)
		if err != nil {
			return "", err
		}
		lines = append(lines, def)
	}
	for _, f := range s.Fields() {
		if f.Foreign != nil {
			lines = append(lines, fmt.Sprintf("FOREIGN KEY(%s) REFERENCES %s(%s)",
				quoteIdentifier(f.Name), quoteIdentifier(prefix+f.Foreign.Table), quoteIdentifier(f.Foreign.Field)))
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quoteIdentifier(table), strings.Join(lines, ",\n\t")), nil
}

func columnDef(b Backend, f *schema.Field, inlineRefs bool, prefix string) (string, error) {
	ft, err := b.FieldType(f)
	if err != nil {
		return "", err
	}
	opts, err := b.FieldOptions(f)
	if err != nil {
		return "", err
	}
	def := quoteIdentifier(f.Name) + " " + ft
	if len(opts) > 0 {
		def += " " + strings.Join(opts, " ")
	}
	if inlineRefs && f.Foreign != nil {
		def += fmt.Sprintf(" REFERENCES %s(%s)", quoteIdentifier(prefix+f.Foreign.Table), quoteIdentifier(f.Foreign.Field))
	}
	return def, nil
}

// addMissingColumns diffs the declared fields against the live columns
// and emits ALTER TABLE ADD COLUMN for each missing one, with the
// foreign key constraint added in a follow-up statement on dialects
// that support it.
func (d *Driver) addMissingColumns(table string, s *schema.Schema) error {
	live, err := d.backend.Columns(d.db, table)
	if err != nil {
		return err
	}
	if live == nil {
		return fmt.Errorf("table %s has a version record but does not exist", table)
	}
	inline := d.backend.InlineForeignKeys()
	for _, f := range s.Fields() {
		if live[f.Name] {
			continue
		}
		def, err := columnDef(d.backend, f, inline, d.prefix)
		if err != nil {
			return err
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdentifier(table), def)
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
		if f.Foreign != nil && !inline {
			if err := d.addForeignKey(table, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Driver) addForeignKey(table string, f *schema.Field) error {
	name := fmt.Sprintf("%s_%s_%s_%s", table, f.Name, d.prefix+f.Foreign.Table, f.Foreign.Field)
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		quoteIdentifier(table), quoteIdentifier(name), quoteIdentifier(f.Name),
		quoteIdentifier(d.prefix+f.Foreign.Table), quoteIdentifier(f.Foreign.Field))
	_, err := d.db.Exec(stmt)
	return err
}

func (d *Driver) createIndexes(table string, indexes []*schema.Index, s *schema.Schema) error {
	for _, idx := range indexes {
		name := schema.IndexName(table, idx)
		has, err := d.backend.HasIndex(d.db, table, name)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := d.db.Exec(CreateIndexSQL(table, idx, name)); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndexSQL builds the CREATE INDEX statement for the given
// index. Exposed for tests.
func CreateIndexSQL(table string, idx *schema.Index, name string) string {
	var buf bytes.Buffer
	buf.WriteString("CREATE ")
	if idx.Unique {
		buf.WriteString("UNIQUE ")
	}
	buf.WriteString("INDEX ")
	writeIdentifier(&buf, name)
	buf.WriteString(" ON ")
	writeIdentifier(&buf, table)
	buf.WriteString(" (")
	for ii, f := range idx.Fields {
		if ii > 0 {
			buf.WriteByte(',')
		}
		writeIdentifier(&buf, f)
	}
	buf.WriteByte(')')
	return buf.String()
}
