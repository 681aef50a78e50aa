package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/driver"
	"github.com/strata-db/strata/query"
)

func eqQ(field string, value interface{}) query.Q {
	return &query.Eq{Field: query.Field{Field: field, Value: value}}
}

func TestMatchesEq(t *testing.T) {
	row := driver.Row{"a": int64(1), "b": "x", "c": true}

	for _, tt := range []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"same type", int64(1), true},
		{"cross numeric", float64(1), true},
		{"cross numeric int", 1, true},
		{"mismatch", int64(2), false},
		{"string", "x", false},
	} {
		got, err := Matches(eqQ("a", tt.value), row)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	got, err := Matches(eqQ("b", "x"), row)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Matches(eqQ("c", true), row)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestMatchesEqNull(t *testing.T) {
	// Nil matches both stored nulls and absent fields.
	for _, row := range []driver.Row{{"a": nil}, {}} {
		got, err := Matches(eqQ("a", nil), row)
		require.NoError(t, err)
		assert.True(t, got)

		got, err = Matches(&query.Neq{Field: query.Field{Field: "a", Value: nil}}, row)
		require.NoError(t, err)
		assert.False(t, got)
	}

	got, err := Matches(eqQ("a", nil), driver.Row{"a": int64(0)})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMatchesEqFalse(t *testing.T) {
	// False coalesces with null and absence, true does not.
	for _, row := range []driver.Row{{"a": false}, {"a": nil}, {}} {
		got, err := Matches(eqQ("a", false), row)
		require.NoError(t, err)
		assert.True(t, got)
	}
	got, err := Matches(eqQ("a", false), driver.Row{"a": true})
	require.NoError(t, err)
	assert.False(t, got)

	got, err = Matches(eqQ("a", true), driver.Row{})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMatchesIn(t *testing.T) {
	row := driver.Row{"a": int64(2)}
	got, err := Matches(&query.In{Field: query.Field{Field: "a", Value: []int{1, 2, 3}}}, row)
	require.NoError(t, err)
	assert.True(t, got)

	// Nothing is a member of the empty set.
	got, err = Matches(&query.In{Field: query.Field{Field: "a", Value: []int{}}}, row)
	require.NoError(t, err)
	assert.False(t, got)

	// A slice value in EQ means membership too.
	got, err = Matches(eqQ("a", []interface{}{float64(2)}), row)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestMatchesOrdering(t *testing.T) {
	row := driver.Row{"a": int64(5)}
	got, err := Matches(&query.Lt{Field: query.Field{Field: "a", Value: 10}}, row)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Matches(&query.Gte{Field: query.Field{Field: "a", Value: float64(5)}}, row)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Matches(&query.Gt{Field: query.Field{Field: "a", Value: 5}}, row)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMatchesCombinators(t *testing.T) {
	row := driver.Row{"a": int64(1), "b": int64(2)}

	and := &query.And{Combinator: query.Combinator{Conditions: []query.Q{
		eqQ("a", 1), eqQ("b", 2),
	}}}
	got, err := Matches(and, row)
	require.NoError(t, err)
	assert.True(t, got)

	or := &query.Or{Combinator: query.Combinator{Conditions: []query.Q{
		eqQ("a", 9), eqQ("b", 2),
	}}}
	got, err = Matches(or, row)
	require.NoError(t, err)
	assert.True(t, got)

	// Empty AND matches everything, empty OR matches nothing.
	got, err = Matches(&query.And{}, row)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Matches(&query.Or{}, row)
	require.NoError(t, err)
	assert.False(t, got)

	// Nil matches everything.
	got, err = Matches(nil, row)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestMatchesMap(t *testing.T) {
	row := driver.Row{"a": int64(1), "b": nil}
	got, err := Matches(query.Map{"a": 1, "b": nil}, row)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCompare(t *testing.T) {
	// Total order across types: nil < bool < number < string.
	assert.Equal(t, -1, Compare(nil, false))
	assert.Equal(t, -1, Compare(false, true))
	assert.Equal(t, -1, Compare(true, int64(0)))
	assert.Equal(t, -1, Compare(int64(99), "a"))
	assert.Equal(t, 1, Compare("b", "a"))
	assert.Equal(t, 0, Compare(int64(3), float64(3)))
	assert.Equal(t, 0, Compare(nil, nil))
	assert.Equal(t, 1, Compare("x", nil))
}

func TestSortRows(t *testing.T) {
	rows := []driver.Row{
		{"a": int64(2), "b": "x"},
		{"a": int64(1), "b": "z"},
		{"a": int64(2), "b": "a"},
		{"a": nil, "b": "m"},
	}
	SortRows(rows, []driver.Sort{
		{Field: "a", Direction: driver.ASC},
		{Field: "b", Direction: driver.DESC},
	})
	assert.Nil(t, rows[0]["a"], "nil sorts first")
	assert.Equal(t, int64(1), rows[1]["a"])
	assert.Equal(t, "x", rows[2]["b"], "ties broken by secondary key, descending")
	assert.Equal(t, "a", rows[3]["b"])
}

func TestSlice(t *testing.T) {
	rows := []driver.Row{{"a": 1}, {"a": 2}, {"a": 3}}
	assert.Len(t, Slice(rows, -1, -1), 3)
	assert.Len(t, Slice(rows, 2, -1), 2)
	assert.Equal(t, 3, Slice(rows, -1, 2)[0]["a"])
	assert.Len(t, Slice(rows, 1, 1), 1)
	assert.Equal(t, 2, Slice(rows, 1, 1)[0]["a"])
	assert.Nil(t, Slice(rows, -1, 5))
	assert.Len(t, Slice(rows, 0, -1), 0)
}
