// Package file implements a flat-file JSON storage backend. Each table
// is a single file of the shape
//
//	{"auto": {"id": 3}, "data": [{...}, {...}]}
//
// where auto tracks the next counter value per auto field. Every
// operation is a full-file read-modify-write with no locking:
// overlapping writes to the same table can lose updates. Callers
// needing atomicity must serialize externally.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strata-db/strata/config"
	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/driver/match"
	"github.com/strata-db/strata/query"
)

type tableFile struct {
	Auto map[string]int64 `json:"auto"`
	Data []driver.Row     `json:"data"`
}

type Driver struct {
	dir    string
	prefix string
}

// New returns a file driver storing one JSON file per table under dir.
func New(dir, prefix string) (*Driver, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Driver{dir: dir, prefix: prefix}, nil
}

func (d *Driver) path(m driver.Model) string {
	return filepath.Join(d.dir, d.prefix+m.Table()+".json")
}

func (d *Driver) load(m driver.Model) (*tableFile, error) {
	data, err := os.ReadFile(d.path(m))
	if err != nil {
		if os.IsNotExist(err) {
			return &tableFile{Auto: make(map[string]int64)}, nil
		}
		return nil, err
	}
	var t tableFile
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("corrupt table file %s: %w", d.path(m), err)
	}
	if t.Auto == nil {
		t.Auto = make(map[string]int64)
	}
	return &t, nil
}

func (d *Driver) flush(m driver.Model, t *tableFile) error {
	if t.Data == nil {
		t.Data = []driver.Row{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(d.path(m), data, 0644)
}

// Initialize creates the table file if absent. Stored rows are
// schemaless, so a version change needs no migration: fields added in
// a later version read as nil until set.
func (d *Driver) Initialize(m driver.Model) error {
	if _, err := os.Stat(d.path(m)); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return d.flush(m, &tableFile{Auto: make(map[string]int64)})
}

func (d *Driver) Query(m driver.Model, q query.Q, opts driver.QueryOptions) ([]driver.Row, error) {
	t, err := d.load(m)
	if err != nil {
		return nil, err
	}
	var out []driver.Row
	for _, row := range t.Data {
		ok, err := match.Matches(q, row)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	match.SortRows(out, opts.Sort)
	return match.Slice(out, opts.Limit, opts.Offset), nil
}

func (d *Driver) Count(m driver.Model, q query.Q) (uint64, error) {
	t, err := d.load(m)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, row := range t.Data {
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
	t, err := d.load(m)
	if err != nil {
		return 0, err
	}
	stored := make(driver.Row, len(row))
	for k, v := range row {
		stored[k] = v
	}
	var id int64
	if auto := m.Schema().Auto(); auto != "" {
		t.Auto[auto]++
		id = t.Auto[auto]
		stored[auto] = id
	}
	t.Data = append(t.Data, stored)
	if err := d.flush(m, t); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *Driver) Update(m driver.Model, id int64, row driver.Row) error {
	t, err := d.load(m)
	if err != nil {
		return err
	}
	auto := m.Schema().Auto()
	for _, stored := range t.Data {
		if match.Compare(stored[auto], id) == 0 {
			for k, v := range row {
				stored[k] = v
			}
			return d.flush(m, t)
		}
	}
	return nil
}

func (d *Driver) Delete(m driver.Model, id int64) error {
	t, err := d.load(m)
	if err != nil {
		return err
	}
	auto := m.Schema().Auto()
	for ii, stored := range t.Data {
		if match.Compare(stored[auto], id) == 0 {
			t.Data = append(t.Data[:ii], t.Data[ii+1:]...)
			return d.flush(m, t)
		}
	}
	return nil
}

func (d *Driver) Close() error {
	return nil
}

func fileOpener(url *config.URL) (driver.Driver, error) {
	if url.Scheme != "file" {
		return nil, driver.ErrProtocolMismatch
	}
	return New(url.Value, url.Get("prefix"))
}

func init() {
	driver.Register("file", fileOpener)
}
