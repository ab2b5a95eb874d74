package statements

import (
	"strings"

	"github.com/kzaag/cqlengine/cqltypes"
)

// Operation forces a specific collection update instead of a diff.
type Operation string

const (
	OpNone    Operation = ""
	OpAdd     Operation = "add"
	OpRemove  Operation = "remove"
	OpAppend  Operation = "append"
	OpPrepend Operation = "prepend"
	OpUpdate  Operation = "update"
)

// SetUpdateClause updates a set column from previous to value. Depending on
// the diff it renders an assignment, an addition, a removal or both.
// A nil value or a value equal to previous is a no-op.
type SetUpdateClause struct {
	baseClause
	Value     cqltypes.SetValue
	Previous  cqltypes.SetValue
	Operation Operation

	analyzed    bool
	noop        bool
	assignments cqltypes.SetValue
	additions   cqltypes.SetValue
	removals    cqltypes.SetValue
}

func NewSetUpdateClause(field string, value, previous cqltypes.SetValue, op Operation) *SetUpdateClause {
	return &SetUpdateClause{
		baseClause: baseClause{field: field},
		Value:      value,
		Previous:   previous,
		Operation:  op,
	}
}

func (s *SetUpdateClause) assignment() {}

func (s *SetUpdateClause) analyze() {
	if s.analyzed {
		return
	}
	s.analyzed = true
	switch {
	case s.Value == nil || (s.Previous != nil && s.Value.Equal(s.Previous)):
		s.noop = true
	case s.Operation == OpAdd:
		s.additions = s.Value
	case s.Operation == OpRemove:
		s.removals = s.Value
	case s.Previous == nil:
		// an empty set is still assigned so the column gets cleared
		s.assignments = s.Value
	default:
		if d := s.Value.Difference(s.Previous); len(d) > 0 {
			s.additions = d
		}
		if d := s.Previous.Difference(s.Value); len(d) > 0 {
			s.removals = d
		}
	}
}

func (s *SetUpdateClause) ContextSize() int {
	s.analyze()
	n := 0
	if s.assignments != nil {
		n++
	}
	if len(s.additions) > 0 {
		n++
	}
	if len(s.removals) > 0 {
		n++
	}
	return n
}

func (s *SetUpdateClause) UpdateContext(ctx map[string]interface{}) {
	s.analyze()
	id := s.contextID
	if s.assignments != nil {
		ctx[slot(id)] = s.assignments
		id++
	}
	if len(s.additions) > 0 {
		ctx[slot(id)] = s.additions
		id++
	}
	if len(s.removals) > 0 {
		ctx[slot(id)] = s.removals
	}
}

func (s *SetUpdateClause) String() string {
	s.analyze()
	var qs []string
	f := s.quoted()
	id := s.contextID
	if s.assignments != nil {
		qs = append(qs, f+" = "+placeholder(id))
		id++
	}
	if len(s.additions) > 0 {
		qs = append(qs, f+" = "+f+" + "+placeholder(id))
		id++
	}
	if len(s.removals) > 0 {
		qs = append(qs, f+" = "+f+" - "+placeholder(id))
	}
	return strings.Join(qs, ", ")
}

// ListUpdateClause updates a list column from previous to value. When
// previous appears as a contiguous run inside value, the elements before it
// are prepended and the ones after it appended; otherwise the whole list is
// assigned.
type ListUpdateClause struct {
	baseClause
	Value     cqltypes.ListValue
	Previous  cqltypes.ListValue
	Operation Operation

	analyzed    bool
	assignments cqltypes.ListValue
	assign      bool
	prepend     cqltypes.ListValue
	append      cqltypes.ListValue
}

func NewListUpdateClause(field string, value, previous cqltypes.ListValue, op Operation) *ListUpdateClause {
	return &ListUpdateClause{
		baseClause: baseClause{field: field},
		Value:      value,
		Previous:   previous,
		Operation:  op,
	}
}

func (l *ListUpdateClause) assignment() {}

func (l *ListUpdateClause) analyze() {
	if l.analyzed {
		return
	}
	l.analyzed = true
	v, p := l.Value, l.Previous
	switch {
	case v == nil || (p != nil && v.Equal(p)):
	case l.Operation == OpAppend:
		l.append = v
	case l.Operation == OpPrepend:
		l.prepend = v
	case p == nil, len(v) < len(p), len(p) == 0:
		l.assign, l.assignments = true, v
	default:
		size := len(p)
		for i := 0; i+size <= len(v); i++ {
			sub := v[i : i+size]
			if !cqltypes.Equal(p[0], sub[0]) || !cqltypes.Equal(p[size-1], sub[size-1]) {
				continue
			}
			if p.Equal(sub) {
				if i > 0 {
					l.prepend = v[:i]
				}
				if i+size < len(v) {
					l.append = v[i+size:]
				}
				break
			}
		}
		if l.prepend == nil && l.append == nil {
			l.assign, l.assignments = true, v
		}
	}
}

func (l *ListUpdateClause) ContextSize() int {
	l.analyze()
	n := 0
	if l.assign {
		n++
	}
	if len(l.prepend) > 0 {
		n++
	}
	if len(l.append) > 0 {
		n++
	}
	return n
}

func (l *ListUpdateClause) UpdateContext(ctx map[string]interface{}) {
	l.analyze()
	id := l.contextID
	if l.assign {
		ctx[slot(id)] = l.assignments
		id++
	}
	if len(l.prepend) > 0 {
		// Cassandra prepends one element at a time, so the run goes in
		// reversed to come out in order.
		ctx[slot(id)] = l.prepend.Reversed()
		id++
	}
	if len(l.append) > 0 {
		ctx[slot(id)] = l.append
	}
}

func (l *ListUpdateClause) String() string {
	l.analyze()
	var qs []string
	f := l.quoted()
	id := l.contextID
	if l.assign {
		qs = append(qs, f+" = "+placeholder(id))
		id++
	}
	if len(l.prepend) > 0 {
		qs = append(qs, f+" = "+placeholder(id)+" + "+f)
		id++
	}
	if len(l.append) > 0 {
		qs = append(qs, f+" = "+f+" + "+placeholder(id))
	}
	return strings.Join(qs, ", ")
}

// MapUpdateClause writes the map entries that differ from previous, one
// `"f"[:k] = :v` pair per key. OpUpdate writes every key of value.
type MapUpdateClause struct {
	baseClause
	Value     cqltypes.MapValue
	Previous  cqltypes.MapValue
	Operation Operation

	analyzed bool
	updates  []interface{}
}

func NewMapUpdateClause(field string, value, previous cqltypes.MapValue, op Operation) *MapUpdateClause {
	return &MapUpdateClause{
		baseClause: baseClause{field: field},
		Value:      value,
		Previous:   previous,
		Operation:  op,
	}
}

func (m *MapUpdateClause) assignment() {}

func (m *MapUpdateClause) analyze() {
	if m.analyzed {
		return
	}
	m.analyzed = true
	if m.Operation == OpUpdate {
		m.updates = m.Value.Keys()
		return
	}
	for _, k := range m.Value.Keys() {
		prev, ok := m.Previous[k]
		if !ok || !cqltypes.Equal(m.Value[k], prev) {
			m.updates = append(m.updates, k)
		}
	}
}

func (m *MapUpdateClause) ContextSize() int {
	m.analyze()
	return len(m.updates) * 2
}

func (m *MapUpdateClause) UpdateContext(ctx map[string]interface{}) {
	m.analyze()
	id := m.contextID
	for _, k := range m.updates {
		ctx[slot(id)] = k
		ctx[slot(id+1)] = m.Value[k]
		id += 2
	}
}

func (m *MapUpdateClause) String() string {
	m.analyze()
	qs := make([]string, 0, len(m.updates))
	f := m.quoted()
	id := m.contextID
	for range m.updates {
		qs = append(qs, f+"["+placeholder(id)+"] = "+placeholder(id+1))
		id += 2
	}
	return strings.Join(qs, ", ")
}

// MapDeleteClause removes the keys present in previous but missing from
// value, one `"f"[:k]` per key.
type MapDeleteClause struct {
	baseClause
	Value    cqltypes.MapValue
	Previous cqltypes.MapValue

	analyzed bool
	removals []interface{}
}

func NewMapDeleteClause(field string, value, previous cqltypes.MapValue) *MapDeleteClause {
	return &MapDeleteClause{
		baseClause: baseClause{field: field},
		Value:      value,
		Previous:   previous,
	}
}

func (m *MapDeleteClause) deleteField() {}

func (m *MapDeleteClause) analyze() {
	if m.analyzed {
		return
	}
	m.analyzed = true
	for _, k := range m.Previous.Keys() {
		if _, ok := m.Value[k]; !ok {
			m.removals = append(m.removals, k)
		}
	}
}

func (m *MapDeleteClause) ContextSize() int {
	m.analyze()
	return len(m.removals)
}

func (m *MapDeleteClause) UpdateContext(ctx map[string]interface{}) {
	m.analyze()
	for i, k := range m.removals {
		ctx[slot(m.contextID+i)] = k
	}
}

func (m *MapDeleteClause) String() string {
	m.analyze()
	qs := make([]string, len(m.removals))
	f := m.quoted()
	for i := range m.removals {
		qs[i] = f + "[" + placeholder(m.contextID+i) + "]"
	}
	return strings.Join(qs, ", ")
}
