// Package memory implements a process-local storage backend. Tables
// are plain row slices filtered with the in-process predicate compiler,
// and auto fields are assigned from per-field counters.
//
// The driver performs no locking: overlapping writes to the same table
// from multiple goroutines can race. Callers needing atomicity must
// serialize externally. This is a documented limitation shared with the
// file backend, not a guarantee.
package memory

import (
	"github.com/strata-db/strata/config"
	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/driver/match"
	"github.com/strata-db/strata/query"
)

type table struct {
	auto map[string]int64
	rows []driver.Row
}

type Driver struct {
	prefix string
	tables map[string]*table
}

// New returns an empty in-memory driver. The prefix, if any, is
// applied to every table name.
func New(prefix string) *Driver {
	return &Driver{
		prefix: prefix,
		tables: make(map[string]*table),
	}
}

func (d *Driver) table(m driver.Model) *table {
	name := d.prefix + m.Table()
	t := d.tables[name]
	if t == nil {
		t = &table{auto: make(map[string]int64)}
		d.tables[name] = t
	}
	return t
}

// Initialize creates the table container if absent. Rows carry no
// declared columns, so schema version changes need no migration: fields
// added in a later version read as nil until set.
func (d *Driver) Initialize(m driver.Model) error {
	d.table(m)
	return nil
}

func (d *Driver) Query(m driver.Model, q query.Q, opts driver.QueryOptions) ([]driver.Row, error) {
	t := d.table(m)
	var out []driver.Row
	for _, row := range t.rows {
		ok, err := match.Matches(q, row)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, copyRow(row))
		}
	}
	match.SortRows(out, opts.Sort)
	return match.Slice(out, opts.Limit, opts.Offset), nil
}

func (d *Driver) Count(m driver.Model, q query.Q) (uint64, error) {
	t := d.table(m)
	var n uint64
	for _, row := range t.rows {
		ok, err := match.Matches(q, row)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (d *Driver) Insert(m driver.Model, row driver.Row) (int64, error) {
	t := d.table(m)
	stored := copyRow(row)
	var id int64
	if auto := m.Schema().Auto(); auto != "" {
		t.auto[auto]++
		id = t.auto[auto]
		stored[auto] = id
	}
	t.rows = append(t.rows, stored)
	return id, nil
}

func (d *Driver) Update(m driver.Model, id int64, row driver.Row) error {
	t := d.table(m)
	auto := m.Schema().Auto()
	for _, stored := range t.rows {
		if match.Compare(stored[auto], id) == 0 {
			for k, v := range row {
				stored[k] = v
			}
			return nil
		}
	}
	return nil
}

func (d *Driver) Delete(m driver.Model, id int64) error {
	t := d.table(m)
	auto := m.Schema().Auto()
	for ii, stored := range t.rows {
		if match.Compare(stored[auto], id) == 0 {
			t.rows = append(t.rows[:ii], t.rows[ii+1:]...)
			return nil
		}
	}
	return nil
}

func (d *Driver) Close() error {
	d.tables = make(map[string]*table)
	return nil
}

func copyRow(row driver.Row) driver.Row {
	out := make(driver.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func memoryOpener(url *config.URL) (driver.Driver, error) {
	if url.Scheme != "memory" {
		return nil, driver.ErrProtocolMismatch
	}
	return New(url.Get("prefix")), nil
}

func init() {
	driver.Register("memory", memoryOpener)
}
