// Package statements renders CQL statements from clauses. Every clause owns
// a run of bind slots ("context ids") inside the statement; the statement
// hands out disjoint runs and merges the bound values into one context map
// keyed by the decimal slot id.
package statements

import (
	"reflect"
	"strconv"

	"github.com/kzaag/cqlengine/columns"
	"github.com/kzaag/cqlengine/functions"
	"github.com/kzaag/cqlengine/operators"
)

// Clause is a fragment of a statement that binds values.
type Clause interface {
	Field() string
	// ContextSize is the number of bind slots the clause needs. It depends
	// only on the clause values, never on its context id.
	ContextSize() int
	SetContextID(id int)
	ContextID() int
	// UpdateContext writes the bound values into ctx.
	UpdateContext(ctx map[string]interface{})
	String() string
}

// Assignment is a clause usable in INSERT or UPDATE.
type Assignment interface {
	Clause
	assignment()
}

// DeleteField is a clause usable in the field list of a DELETE.
type DeleteField interface {
	Clause
	deleteField()
}

type baseClause struct {
	field     string
	contextID int
}

func (c *baseClause) Field() string       { return c.field }
func (c *baseClause) SetContextID(id int) { c.contextID = id }
func (c *baseClause) ContextID() int      { return c.contextID }

func (c *baseClause) quoted() string {
	return columns.Quote(c.field)
}

func slot(id int) string {
	return strconv.Itoa(id)
}

func placeholder(id int) string {
	return ":" + strconv.Itoa(id)
}

// WhereClause is `"field" <op> <value>`.
type WhereClause struct {
	baseClause
	Operator   operators.Operator
	Value      interface{}
	quoteField bool
	queryValue functions.Value
}

// NewWhereClause compares a column with a value. IN takes a slice rendered
// inline as literals; query functions bind their own slots.
func NewWhereClause(field string, op operators.Operator, value interface{}) *WhereClause {
	w := &WhereClause{
		baseClause: baseClause{field: field},
		Operator:   op,
		Value:      value,
		quoteField: true,
	}
	switch v := value.(type) {
	case functions.Value:
		w.queryValue = v
	default:
		if operators.IsIn(op) {
			w.queryValue = functions.InList(toSlice(value))
		} else {
			w.queryValue = functions.Bind(value)
		}
	}
	return w
}

// NewExprWhereClause is a where clause whose left hand side is an
// expression rendered as is, e.g. token("a", "b").
func NewExprWhereClause(expr string, op operators.Operator, value interface{}) *WhereClause {
	w := NewWhereClause(expr, op, value)
	w.quoteField = false
	return w
}

func (w *WhereClause) SetContextID(id int) {
	w.contextID = id
	w.queryValue.SetContextID(id)
}

func (w *WhereClause) ContextSize() int {
	return w.queryValue.ContextSize()
}

func (w *WhereClause) UpdateContext(ctx map[string]interface{}) {
	w.queryValue.UpdateContext(ctx)
}

func (w *WhereClause) String() string {
	field := w.field
	if w.quoteField {
		field = w.quoted()
	}
	return field + " " + w.Operator.CQL() + " " + w.queryValue.String()
}

func toSlice(v interface{}) []interface{} {
	if s, ok := v.([]interface{}); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []interface{}{v}
	}
	ret := make([]interface{}, rv.Len())
	for i := range ret {
		ret[i] = rv.Index(i).Interface()
	}
	return ret
}

// AssignmentClause is `"field" = :N`.
type AssignmentClause struct {
	baseClause
	Value interface{}
}

func NewAssignmentClause(field string, value interface{}) *AssignmentClause {
	return &AssignmentClause{baseClause: baseClause{field: field}, Value: value}
}

func (a *AssignmentClause) assignment() {}

func (a *AssignmentClause) ContextSize() int { return 1 }

func (a *AssignmentClause) UpdateContext(ctx map[string]interface{}) {
	ctx[slot(a.contextID)] = a.Value
}

func (a *AssignmentClause) String() string {
	return a.quoted() + " = " + placeholder(a.contextID)
}

// CounterUpdateClause increments or decrements a counter by the distance
// between value and previous. It always binds one slot.
type CounterUpdateClause struct {
	baseClause
	Value    int64
	Previous int64
}

func NewCounterUpdateClause(field string, value, previous int64) *CounterUpdateClause {
	return &CounterUpdateClause{
		baseClause: baseClause{field: field},
		Value:      value,
		Previous:   previous,
	}
}

func (c *CounterUpdateClause) assignment() {}

func (c *CounterUpdateClause) ContextSize() int { return 1 }

func (c *CounterUpdateClause) UpdateContext(ctx map[string]interface{}) {
	delta := c.Value - c.Previous
	if delta < 0 {
		delta = -delta
	}
	ctx[slot(c.contextID)] = delta
}

func (c *CounterUpdateClause) String() string {
	sign := "+"
	if c.Value-c.Previous < 0 {
		sign = "-"
	}
	f := c.quoted()
	return f + " = " + f + " " + sign + " " + placeholder(c.contextID)
}

// FieldDeleteClause deletes a whole column. It binds nothing.
type FieldDeleteClause struct {
	baseClause
}

func NewFieldDeleteClause(field string) *FieldDeleteClause {
	return &FieldDeleteClause{baseClause{field: field}}
}

func (f *FieldDeleteClause) deleteField() {}

func (f *FieldDeleteClause) ContextSize() int { return 0 }

func (f *FieldDeleteClause) UpdateContext(map[string]interface{}) {}

func (f *FieldDeleteClause) String() string { return f.quoted() }
