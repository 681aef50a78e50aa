package strata_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata"
	"github.com/strata-db/strata/driver"
	_ "github.com/strata-db/strata/driver/file"
	_ "github.com/strata-db/strata/driver/memory"
	_ "github.com/strata-db/strata/driver/sqlite"
	"github.com/strata-db/strata/query"
	"github.com/strata-db/strata/schema"
)

func backends(t *testing.T) map[string]driver.Driver {
	out := make(map[string]driver.Driver)
	for name, rawurl := range map[string]string{
		"memory": "memory://",
		"file":   "file://" + t.TempDir(),
		"sqlite": "sqlite://" + filepath.Join(t.TempDir(), "test.db"),
	} {
		d, err := strata.Open(rawurl)
		require.NoError(t, err, name)
		t.Cleanup(func() { d.Close() })
		out[name] = d
	}
	return out
}

func itemsModel(t *testing.T, d driver.Driver) *strata.Model {
	m, err := strata.New(&strata.Options{
		Table: "items",
		Fields: []strata.FieldDef{
			{Name: "foo", Kind: schema.String, Meta: schema.Required},
			{Name: "bar", Kind: schema.String},
			{Name: "num", Kind: schema.Int},
			{Name: "flag", Kind: schema.Bool},
		},
		Driver: d,
	})
	require.NoError(t, err)
	require.NoError(t, m.Init())
	return m
}

// Every backend must return the same row set for the same stored data
// and the same condition, whether the condition is a predicate tree or
// the equality-map shorthand.
func TestBackendEquivalence(t *testing.T) {
	conds := []struct {
		name string
		cond query.Q
	}{
		{"eq", strata.Eq("foo", "a")},
		{"eq map", strata.Where{"foo": "a"}},
		{"null", strata.Where{"bar": nil}},
		{"false", strata.Where{"flag": false}},
		{"neq", strata.Neq("bar", "x")},
		{"neq over null", strata.Neq("flag", true)},
		{"not in", strata.Neq("num", []int{1})},
		{"in", strata.In("num", []int{1, 3})},
		{"in with null member", strata.In("bar", []interface{}{"x", nil})},
		{"in empty", strata.In("num", []int{})},
		{"range", strata.And(strata.Gt("num", 1), strata.Lte("num", 3))},
		{"or", strata.Or(strata.Eq("foo", "a"), strata.Eq("num", 3))},
		{"empty or", strata.Or()},
		{"nested", strata.And(strata.Neq("bar", nil), strata.Or(strata.Lt("num", 2), strata.Gte("num", 3)))},
	}

	results := make(map[string]map[string][]int64)
	for backend, d := range backends(t) {
		m := itemsModel(t, d)
		for _, row := range []strata.Row{
			{"foo": "a", "bar": "x", "num": 1, "flag": true},
			{"foo": "b", "num": 2, "flag": false},
			{"foo": "c", "bar": "y", "num": 3},
		} {
			_, err := m.Insert(row)
			require.NoError(t, err, backend)
		}

		results[backend] = make(map[string][]int64)
		for _, tc := range conds {
			rows, err := m.Query(tc.cond).Sort("num", strata.ASC).All()
			require.NoError(t, err, "%s: %s", backend, tc.name)
			ids := make([]int64, len(rows))
			for ii, row := range rows {
				ids[ii] = row["id"].(int64)
			}
			results[backend][tc.name] = ids
		}
	}

	for _, tc := range conds {
		assert.Equal(t, results["memory"][tc.name], results["file"][tc.name], "file vs memory: %s", tc.name)
		assert.Equal(t, results["memory"][tc.name], results["sqlite"][tc.name], "sqlite vs memory: %s", tc.name)
	}

	// Spot-check the expected sets against one backend.
	m := itemsModel(t, backends(t)["memory"])
	for _, row := range []strata.Row{
		{"foo": "a", "bar": "x", "num": 1, "flag": true},
		{"foo": "b", "num": 2, "flag": false},
		{"foo": "c", "bar": "y", "num": 3},
	} {
		_, err := m.Insert(row)
		require.NoError(t, err)
	}
	count, err := m.Count(strata.Where{"bar": nil})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	count, err = m.Count(strata.Where{"flag": false})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count, "false matches stored false and null alike")
}

// Inserting two rows and searching for a null field returns only the
// row that never set it, with the field read back as nil.
func TestNullSearch(t *testing.T) {
	for backend, d := range backends(t) {
		m := itemsModel(t, d)

		id, err := m.Insert(strata.Row{"foo": "bar", "bar": "baz"})
		require.NoError(t, err, backend)
		assert.Equal(t, int64(1), id, backend)

		id, err = m.Insert(strata.Row{"foo": "bin"})
		require.NoError(t, err, backend)
		assert.Equal(t, int64(2), id, backend)

		rows, err := m.Search(strata.Where{"bar": nil})
		require.NoError(t, err, backend)
		require.Len(t, rows, 1, backend)
		assert.Equal(t, int64(2), rows[0]["id"], backend)
		assert.Equal(t, "bin", rows[0]["foo"], backend)
		assert.Nil(t, rows[0]["bar"], backend)
	}
}

// Sorting a field ascending returns insertion order, descending the
// reverse, on every backend.
func TestSortOrder(t *testing.T) {
	for backend, d := range backends(t) {
		m := itemsModel(t, d)
		for _, v := range []string{"arg_a", "arg_b", "arg_c"} {
			_, err := m.Insert(strata.Row{"foo": "x", "bar": v})
			require.NoError(t, err, backend)
		}

		rows, err := m.Query(nil).Sort("bar", strata.DESC).All()
		require.NoError(t, err, backend)
		require.Len(t, rows, 3, backend)
		assert.Equal(t, "arg_c", rows[0]["bar"], backend)
		assert.Equal(t, "arg_a", rows[2]["bar"], backend)

		rows, err = m.Query(nil).Sort("bar", strata.ASC).All()
		require.NoError(t, err, backend)
		assert.Equal(t, "arg_a", rows[0]["bar"], backend)
		assert.Equal(t, "arg_c", rows[2]["bar"], backend)
	}
}
