package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New(
		&Field{Name: "id", Kind: Int, Meta: Auto},
		&Field{Name: "name", Kind: String, Size: 100, Meta: Required},
		&Field{Name: "meta", Kind: JSON},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "meta"}, s.Names())
	assert.Equal(t, "id", s.Auto())
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("meta"))
	assert.False(t, s.Has("missing"))
	assert.Nil(t, s.Field("missing"))
	require.NotNil(t, s.Field("name"))
	assert.Equal(t, 100, s.Field("name").Size)
	assert.True(t, s.Field("name").Meta.Has(Required))
}

func TestNewErrors(t *testing.T) {
	_, err := New(
		&Field{Name: "a", Kind: Int, Meta: Auto},
		&Field{Name: "b", Kind: Int, Meta: Auto},
	)
	assert.ErrorIs(t, err, ErrMultipleAuto)

	_, err = New(&Field{Name: "a", Kind: Int, Size: 10})
	assert.ErrorIs(t, err, ErrSizeOnNonString)

	_, err = New(&Field{Name: "a", Kind: String, Meta: Auto})
	assert.Error(t, err)

	_, err = New(&Field{Name: "a", Kind: Int}, &Field{Name: "a", Kind: Int})
	assert.Error(t, err)

	_, err = New(&Field{Kind: Int})
	assert.Error(t, err)
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "users_email_idx", IndexName("users", NewIndex("email")))
	assert.Equal(t, "users_last_first_idx", IndexName("users", NewIndex("last", "first")))
	assert.Equal(t, "custom", IndexName("users", &Index{Fields: []string{"email"}, Name: "custom"}))
}

func TestValidateIndexes(t *testing.T) {
	s, err := New(
		&Field{Name: "id", Kind: Int, Meta: Auto},
		&Field{Name: "email", Kind: String},
	)
	require.NoError(t, err)

	assert.NoError(t, ValidateIndexes(s, []*Index{NewUniqueIndex("email")}))
	assert.ErrorIs(t, ValidateIndexes(s, []*Index{NewIndex("missing")}), ErrFieldNotFound)
	assert.Error(t, ValidateIndexes(s, []*Index{{}}))
}
