package columns

import (
	"testing"
	"time"

	"github.com/kzaag/cqlengine/cqltypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerToDatabaseIsIdempotent(t *testing.T) {
	cases := []struct {
		name  string
		col   Column
		value interface{}
	}{
		{"set", NewSet(NewInteger()), []int{1, 2, 3}},
		{"set of times", NewSet(NewDateTime()), []time.Time{time.Unix(10, 0)}},
		{"list", NewList(NewText()), []string{"a", "b"}},
		{"map", NewMap(NewText(), NewInteger()), map[string]int{"a": 1, "b": 2}},
		{"map of bools", NewMap(NewInteger(), NewBoolean()), map[int]bool{1: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once, err := tc.col.ToDatabase(tc.value)
			require.NoError(t, err)
			twice, err := tc.col.ToDatabase(once)
			require.NoError(t, err)
			assert.True(t, cqltypes.Equal(once, twice))
			assert.Equal(t, cqltypes.RenderLiteral(once), cqltypes.RenderLiteral(twice))
		})
	}
}

func TestSetToDatabase(t *testing.T) {
	c := NewSet(NewText())
	v, err := c.ToDatabase(map[string]struct{}{"b": {}, "a": {}})
	require.NoError(t, err)
	assert.Equal(t, cqltypes.NewSet("a", "b"), v)
	assert.Equal(t, "{'a', 'b'}", cqltypes.RenderLiteral(v))
}

func TestSetValidate(t *testing.T) {
	c := named(NewSet(NewInteger(), Strict()), "tags")
	_, err := c.Validate([]int{1, 2})
	verr := assertValidationError(t, err)
	assert.Contains(t, verr.Message, "is not a set object")

	v, err := c.Validate(cqltypes.NewSet(1, 2))
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.NewSet(1, 2), v)

	loose := named(NewSet(NewInteger()), "tags")
	v, err = loose.Validate([]int{1, 2, 2})
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.NewSet(1, 2), v)

	_, err = loose.Validate([]interface{}{1, nil})
	verr = assertValidationError(t, err)
	assert.Contains(t, verr.Message, "None not allowed")

	_, err = loose.Validate("abc")
	assertValidationError(t, err)

	_, err = loose.Validate([]interface{}{"x"})
	assertValidationError(t, err)
}

func TestContainerDefaultsToEmpty(t *testing.T) {
	v, err := NewSet(NewInteger()).Validate(nil)
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.SetValue{}, v)

	v, err = NewList(NewInteger()).Validate(nil)
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.ListValue{}, v)

	v, err = NewMap(NewInteger(), NewInteger()).Validate(nil)
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.MapValue{}, v)
}

func TestCollectionSizeLimit(t *testing.T) {
	big := make([]int, MaxCollectionSize+1)
	for i := range big {
		big[i] = i
	}
	_, err := NewList(NewInteger()).Validate(big)
	verr := assertValidationError(t, err)
	assert.Contains(t, verr.Message, "65535")

	_, err = NewSet(NewInteger()).Validate(big)
	assertValidationError(t, err)

	_, err = NewList(NewInteger()).Validate(big[:MaxCollectionSize])
	assert.NoError(t, err)
}

func TestListValidate(t *testing.T) {
	c := named(NewList(NewInteger()), "scores")
	v, err := c.Validate([]interface{}{3, "4"})
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.ListValue{3, 4}, v)

	_, err = c.Validate([]interface{}{1, nil})
	verr := assertValidationError(t, err)
	assert.Contains(t, verr.Message, "None is not allowed in a list")

	_, err = c.Validate(map[string]int{"a": 1})
	assertValidationError(t, err)
}

func TestMapValidate(t *testing.T) {
	c := named(NewMap(NewText(), NewInteger()), "counts")
	v, err := c.Validate(map[string]interface{}{"a": "1"})
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.MapValue{"a": 1}, v)

	_, err = c.Validate(map[string]interface{}{"a": nil})
	assertValidationError(t, err)

	_, err = c.Validate([]int{1})
	verr := assertValidationError(t, err)
	assert.Contains(t, verr.Message, "is not a dict object")
}

func TestMapRender(t *testing.T) {
	c := NewMap(NewInteger(), NewText())
	v, err := c.ToDatabase(map[int]string{2: "b", 1: "a"})
	require.NoError(t, err)
	assert.Equal(t, "{1: 'a', 2: 'b'}", cqltypes.RenderLiteral(v))
}

func TestFromDatabase(t *testing.T) {
	s, err := NewSet(NewText()).FromDatabase([]string{"x", "y"})
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.NewSet("x", "y"), s)

	s, err = NewSet(NewText()).FromDatabase(nil)
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.SetValue{}, s)

	l, err := NewList(NewInteger()).FromDatabase([]int{1, 2})
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.ListValue{1, 2}, l)

	m, err := NewMap(NewText(), NewBigInt()).FromDatabase(map[string]int64{"a": 1})
	assert.NoError(t, err)
	assert.Equal(t, cqltypes.MapValue{"a": int64(1)}, m)
}

func TestCheckElements(t *testing.T) {
	assert.Error(t, NewSet(NewList(NewInteger())).Check())
	assert.Error(t, NewList(NewMap(NewText(), NewText())).Check())
	assert.Error(t, NewSet(NewBytes()).Check())
	assert.Error(t, NewMap(NewBytes(), NewText()).Check())
	assert.Error(t, NewList(NewCounter()).Check())
	assert.NoError(t, NewList(NewBytes()).Check())
	assert.NoError(t, NewMap(NewText(), NewBytes()).Check())
}

func TestParse(t *testing.T) {
	c, err := Parse("map<text, frozen>")
	assert.Error(t, err)
	assert.Nil(t, c)

	c, err = Parse("map<text, list<int>>")
	require.NoError(t, err)
	assert.Equal(t, "map<text, list<int>>", c.DBType())
	assert.Error(t, c.(Container).Check())

	c, err = Parse("set<uuid>", Index())
	require.NoError(t, err)
	assert.Equal(t, "set<uuid>", c.DBType())
	assert.True(t, c.Info().Index)

	for _, typ := range []string{
		"blob", "ascii", "text", "int", "bigint", "varint", "counter",
		"timestamp", "uuid", "timeuuid", "boolean", "double", "float", "decimal",
	} {
		c, err := Parse(typ)
		require.NoError(t, err, typ)
		assert.Equal(t, typ, c.DBType())
	}

	_, err = Parse("tuple<int>")
	assert.Error(t, err)
	_, err = Parse("list<int")
	assert.Error(t, err)
}
