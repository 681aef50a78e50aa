package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/config"
	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/query"
	"github.com/strata-db/strata/schema"
)

type testModel struct {
	table  string
	schema *schema.Schema
}

func (m *testModel) Table() string            { return m.table }
func (m *testModel) Schema() *schema.Schema   { return m.schema }
func (m *testModel) Version() int64           { return 1 }
func (m *testModel) Indexes() []*schema.Index { return nil }

func newTestModel(t *testing.T) *testModel {
	s, err := schema.New(
		&schema.Field{Name: "id", Kind: schema.Int, Meta: schema.Auto},
		&schema.Field{Name: "name", Kind: schema.String},
		&schema.Field{Name: "age", Kind: schema.Int},
	)
	require.NoError(t, err)
	return &testModel{table: "people", schema: s}
}

func TestInsertAssignsAuto(t *testing.T) {
	d := New("")
	m := newTestModel(t)
	require.NoError(t, d.Initialize(m))

	id, err := d.Insert(m, driver.Row{"name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = d.Insert(m, driver.Row{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestQuery(t *testing.T) {
	d := New("")
	m := newTestModel(t)
	require.NoError(t, d.Initialize(m))

	for _, row := range []driver.Row{
		{"name": "alice", "age": 30},
		{"name": "bob", "age": 20},
		{"name": "carol", "age": 40},
	} {
		_, err := d.Insert(m, row)
		require.NoError(t, err)
	}

	rows, err := d.Query(m, query.Map{"name": "bob"}, driver.Unbounded())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 20, rows[0]["age"])

	opts := driver.Unbounded()
	opts.Sort = []driver.Sort{{Field: "age", Direction: driver.DESC}}
	opts.Limit = 2
	rows, err = d.Query(m, nil, opts)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "carol", rows[0]["name"])
	assert.Equal(t, "alice", rows[1]["name"])

	count, err := d.Count(m, &query.Gt{Field: query.Field{Field: "age", Value: 25}})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestQueryReturnsCopies(t *testing.T) {
	d := New("")
	m := newTestModel(t)
	_, err := d.Insert(m, driver.Row{"name": "alice"})
	require.NoError(t, err)

	rows, err := d.Query(m, nil, driver.Unbounded())
	require.NoError(t, err)
	rows[0]["name"] = "mutated"

	rows, err = d.Query(m, nil, driver.Unbounded())
	require.NoError(t, err)
	assert.Equal(t, "alice", rows[0]["name"])
}

func TestUpdateDelete(t *testing.T) {
	d := New("")
	m := newTestModel(t)
	id, err := d.Insert(m, driver.Row{"name": "alice", "age": 30})
	require.NoError(t, err)

	require.NoError(t, d.Update(m, id, driver.Row{"age": 31}))
	rows, err := d.Query(m, nil, driver.Unbounded())
	require.NoError(t, err)
	assert.Equal(t, 31, rows[0]["age"])
	assert.Equal(t, "alice", rows[0]["name"], "untouched fields survive")

	// Updating or deleting a missing id is not an error.
	require.NoError(t, d.Update(m, 99, driver.Row{"age": 1}))
	require.NoError(t, d.Delete(m, 99))

	require.NoError(t, d.Delete(m, id))
	rows, err = d.Query(m, nil, driver.Unbounded())
	require.NoError(t, err)
	assert.Len(t, rows, 0)

	// Counters keep increasing after deletion.
	id, err = d.Insert(m, driver.Row{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestPrefix(t *testing.T) {
	d := New("app_")
	m := newTestModel(t)
	_, err := d.Insert(m, driver.Row{"name": "alice"})
	require.NoError(t, err)
	assert.Contains(t, d.tables, "app_people")
}

func TestOpener(t *testing.T) {
	opener := driver.Get("memory")
	require.NotNil(t, opener)
	drv, err := opener(config.MustParseURL("memory://?prefix=app_"))
	require.NoError(t, err)
	defer drv.Close()
	assert.Equal(t, "app_", drv.(*Driver).prefix)

	_, err = opener(config.MustParseURL("bogus://"))
	assert.ErrorIs(t, err, driver.ErrProtocolMismatch)
}
