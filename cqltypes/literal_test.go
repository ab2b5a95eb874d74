package cqltypes

import (
	"math/big"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
)

func TestRenderScalars(t *testing.T) {
	assert.Equal(t, "true", RenderLiteral(true))
	assert.Equal(t, "false", RenderLiteral(false))
	assert.Equal(t, "NULL", RenderLiteral(nil))
	assert.Equal(t, "'it''s'", RenderLiteral("it's"))
	assert.Equal(t, "42", RenderLiteral(42))
	assert.Equal(t, "-7", RenderLiteral(int64(-7)))
	assert.Equal(t, "1.5", RenderLiteral(1.5))
	assert.Equal(t, "12345678901234567890", RenderLiteral(
		new(big.Int).SetUint64(12345678901234567890)))
	assert.Equal(t, "0xcafe", RenderLiteral(Blob{0xca, 0xfe}))
	assert.Equal(t, "0x00ff", RenderLiteral([]byte{0x00, 0xff}))

	ts := time.Date(2014, 1, 1, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, "1388534401000", RenderLiteral(ts))

	u, err := gocql.ParseUUID("a4a70900-24e1-11df-8924-001ff3591711")
	assert.NoError(t, err)
	assert.Equal(t, "a4a70900-24e1-11df-8924-001ff3591711", RenderLiteral(u))
}

func TestRenderContainers(t *testing.T) {
	assert.Equal(t, "{1, 2, 3}", RenderLiteral(NewSet(3, 1, 2)))
	assert.Equal(t, "{}", RenderLiteral(NewSet()))
	assert.Equal(t, "['a', 'b']", RenderLiteral(ListValue{"a", "b"}))
	assert.Equal(t, "{'a': 1, 'b': 2}", RenderLiteral(MapValue{"b": 2, "a": 1}))
	assert.Equal(t, "(1, 'x')", RenderLiteral([]interface{}{1, "x"}))
}

func TestSetOps(t *testing.T) {
	v := NewSet(2, 3, 4, 5)
	p := NewSet(1, 2, 3, 4)
	assert.Equal(t, NewSet(5), v.Difference(p))
	assert.Equal(t, NewSet(1), p.Difference(v))
	assert.False(t, v.Equal(p))
	assert.True(t, v.Equal(NewSet(5, 4, 3, 2)))
	assert.Equal(t, []interface{}{2, 3, 4, 5}, v.Items())
}

func TestListOps(t *testing.T) {
	l := ListValue{1, 2, 3}
	assert.Equal(t, ListValue{3, 2, 1}, l.Reversed())
	assert.True(t, l.Equal(ListValue{1, 2, 3}))
	assert.False(t, l.Equal(ListValue{1, 2}))
	assert.Equal(t, ListValue{1, 2, 3}, l)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(int32(1), int64(1)))
	assert.True(t, Equal(MapValue{1: "a"}, MapValue{1: "a"}))
	assert.False(t, Equal(MapValue{1: "a"}, MapValue{1: "b"}))
	assert.True(t, Equal(Blob("x"), Blob("x")))
	assert.False(t, Equal(nil, 0))
	now := time.Now()
	assert.True(t, Equal(now, now.In(time.UTC)))
}

func TestLessOrdering(t *testing.T) {
	vs := []interface{}{5, 3, int64(4), 1}
	SortValues(vs)
	assert.Equal(t, []interface{}{1, 3, int64(4), 5}, vs)

	ss := []interface{}{"b", "c", "a"}
	SortValues(ss)
	assert.Equal(t, []interface{}{"a", "b", "c"}, ss)
}
