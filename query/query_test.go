package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldNames(t *testing.T) {
	q := &And{Combinator{Conditions: []Q{
		&Eq{Field{Field: "a", Value: 1}},
		&Or{Combinator{Conditions: []Q{
			&Lt{Field{Field: "b", Value: 2}},
			&In{Field{Field: "a", Value: []int{1, 2}}},
		}}},
		&Neq{Field{Field: "c", Value: nil}},
	}}}
	assert.Equal(t, []string{"a", "b", "c"}, FieldNames(q))
	assert.Nil(t, FieldNames(nil))
}

func TestMapCond(t *testing.T) {
	assert.Nil(t, Map(nil).Cond())
	assert.Nil(t, Map{}.Cond())

	// Single key compiles to a bare comparison.
	cond := Map{"a": 1}.Cond()
	eq, ok := cond.(*Eq)
	require.True(t, ok)
	assert.Equal(t, "a", eq.Field.Field)
	assert.Equal(t, 1, eq.Value)

	// Slice values mean membership.
	cond = Map{"a": []int{1, 2}}.Cond()
	_, ok = cond.(*In)
	require.True(t, ok)

	// Several keys become an AND, expanded in lexical order.
	cond = Map{"b": 2, "a": nil}.Cond()
	and, ok := cond.(*And)
	require.True(t, ok)
	require.Len(t, and.Conditions, 2)
	first := and.Conditions[0].(*Eq)
	assert.Equal(t, "a", first.Field.Field)
	assert.Nil(t, first.Value)
	second := and.Conditions[1].(*Eq)
	assert.Equal(t, "b", second.Field.Field)
}

func TestNormalize(t *testing.T) {
	q := &Or{Combinator{Conditions: []Q{
		Map{"a": 1},
		&Eq{Field{Field: "b", Value: 2}},
	}}}
	norm := Normalize(q)
	or, ok := norm.(*Or)
	require.True(t, ok)
	_, ok = or.Conditions[0].(*Eq)
	assert.True(t, ok, "map should be expanded")
	_, ok = or.Conditions[1].(*Eq)
	assert.True(t, ok)

	assert.Nil(t, Normalize(Map{}))
	// Non-map trees pass through unchanged.
	eq := &Eq{Field{Field: "a", Value: 1}}
	assert.Equal(t, Q(eq), Normalize(eq))
}

func TestFieldNamesMap(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, FieldNames(Map{"b": 1, "a": 2}))
}
