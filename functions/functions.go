// Package functions holds the bind values used on the right hand side of
// where clauses: plain values, inline IN lists and the CQL query functions token,
// MinTimeUUID and MaxTimeUUID.
package functions

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kzaag/cqlengine/columns"
	"github.com/kzaag/cqlengine/cqltypes"
)

// Value is a right hand side that owns a run of bind slots.
type Value interface {
	// ContextSize is the number of bind slots the value needs. It depends
	// only on the value itself.
	ContextSize() int
	SetContextID(id int)
	ContextID() int
	// UpdateContext writes the bound values into ctx.
	UpdateContext(ctx map[string]interface{})
	// String renders the placeholders, e.g. ":3" or "token(:3, :4)".
	String() string
}

// Function is a Value wrapping a CQL query function. Filters accept a
// Function in place of a literal value.
type Function interface {
	Value
	function()
}

type contextID struct {
	id int
}

func (c *contextID) SetContextID(id int) { c.id = id }
func (c *contextID) ContextID() int      { return c.id }

func placeholder(id int) string {
	return ":" + strconv.Itoa(id)
}

// Bound is a single value bound to one slot.
type Bound struct {
	contextID
	Value interface{}
}

func Bind(v interface{}) *Bound {
	return &Bound{Value: v}
}

func (b *Bound) ContextSize() int { return 1 }

func (b *Bound) UpdateContext(ctx map[string]interface{}) {
	ctx[strconv.Itoa(b.id)] = b.Value
}

func (b *Bound) String() string { return placeholder(b.id) }

// List is the right hand side of IN. The elements are rendered inline as
// a parenthesized literal list and bind nothing.
type List struct {
	contextID
	Values []interface{}
}

func InList(vs []interface{}) *List {
	return &List{Values: vs}
}

func (l *List) ContextSize() int { return 0 }

func (l *List) UpdateContext(map[string]interface{}) {}

func (l *List) String() string {
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		parts[i] = cqltypes.RenderLiteral(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type timeUUIDBound struct {
	contextID
	name string
	at   time.Time
}

func (f *timeUUIDBound) function() {}

func (f *timeUUIDBound) ContextSize() int { return 1 }

func (f *timeUUIDBound) UpdateContext(ctx map[string]interface{}) {
	ctx[strconv.Itoa(f.id)] = f.at.UnixNano() / int64(time.Millisecond)
}

func (f *timeUUIDBound) String() string {
	return fmt.Sprintf("%s(%s)", f.name, placeholder(f.id))
}

// MinTimeUUID compares a timeuuid column against the smallest timeuuid for
// the given instant.
func MinTimeUUID(t time.Time) Function {
	return &timeUUIDBound{name: "MinTimeUUID", at: t}
}

// MaxTimeUUID compares a timeuuid column against the largest timeuuid for
// the given instant.
func MaxTimeUUID(t time.Time) Function {
	return &timeUUIDBound{name: "MaxTimeUUID", at: t}
}

// TokenValue is token(...) over the partition key values. It needs one slot
// per partition key column.
type TokenValue struct {
	contextID
	Values []interface{}
}

// Token wraps partition key values for a token comparison. It is only valid
// against the pk__token pseudo column.
func Token(values ...interface{}) *TokenValue {
	if len(values) == 1 {
		if vs, ok := values[0].([]interface{}); ok {
			values = vs
		}
	}
	return &TokenValue{Values: values}
}

func (t *TokenValue) function() {}

// SetColumns converts the values through the partition key columns. The
// arity must match.
func (t *TokenValue) SetColumns(cols []columns.Column) error {
	if len(cols) != len(t.Values) {
		return fmt.Errorf("token() received %d arguments but model has %d partition keys",
			len(t.Values), len(cols))
	}
	for i, c := range cols {
		dv, err := c.ToDatabase(t.Values[i])
		if err != nil {
			return err
		}
		t.Values[i] = dv
	}
	return nil
}

func (t *TokenValue) ContextSize() int { return len(t.Values) }

func (t *TokenValue) UpdateContext(ctx map[string]interface{}) {
	for i, v := range t.Values {
		ctx[strconv.Itoa(t.id+i)] = v
	}
}

func (t *TokenValue) String() string {
	parts := make([]string, len(t.Values))
	for i := range t.Values {
		parts[i] = placeholder(t.id + i)
	}
	return "token(" + strings.Join(parts, ", ") + ")"
}
