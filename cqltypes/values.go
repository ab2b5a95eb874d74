// Package cqltypes holds the database-side value wrappers produced by column
// conversion and the functions that render them as CQL literals.
//
// Wrapped values are what the clause layer diffs and binds. A value that is
// already wrapped is never wrapped a second time, which keeps column
// conversion idempotent.
package cqltypes

import (
	"reflect"
	"sort"
)

// SetValue is a database-ready CQL set. Elements must be comparable.
type SetValue map[interface{}]struct{}

// NewSet builds a set from the given elements.
func NewSet(items ...interface{}) SetValue {
	s := make(SetValue, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s SetValue) Add(v interface{}) {
	s[v] = struct{}{}
}

func (s SetValue) Contains(v interface{}) bool {
	_, ok := s[v]
	return ok
}

// Difference returns the elements of s that are not in o.
func (s SetValue) Difference(o SetValue) SetValue {
	ret := make(SetValue)
	for k := range s {
		if _, ok := o[k]; !ok {
			ret[k] = struct{}{}
		}
	}
	return ret
}

func (s SetValue) Equal(o SetValue) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if _, ok := o[k]; !ok {
			return false
		}
	}
	return true
}

// Items returns the elements in a stable order.
func (s SetValue) Items() []interface{} {
	ret := make([]interface{}, 0, len(s))
	for k := range s {
		ret = append(ret, k)
	}
	SortValues(ret)
	return ret
}

// ListValue is a database-ready CQL list.
type ListValue []interface{}

func (l ListValue) Equal(o ListValue) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if !Equal(l[i], o[i]) {
			return false
		}
	}
	return true
}

// Reversed returns a copy of l in reverse order.
func (l ListValue) Reversed() ListValue {
	ret := make(ListValue, len(l))
	for i := range l {
		ret[len(l)-1-i] = l[i]
	}
	return ret
}

// MapValue is a database-ready CQL map. Keys must be comparable.
type MapValue map[interface{}]interface{}

// Keys returns the map keys in a stable order.
func (m MapValue) Keys() []interface{} {
	ret := make([]interface{}, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	SortValues(ret)
	return ret
}

func (m MapValue) Equal(o MapValue) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// Blob is a database-ready blob, rendered as a 0x hex literal.
type Blob []byte

// SortValues sorts vs in place using Less.
func SortValues(vs []interface{}) {
	sort.SliceStable(vs, func(i, j int) bool {
		return Less(vs[i], vs[j])
	})
}

// Copy returns a shallow copy of collection values so that later in-place
// changes to v do not leak into the copy. Other values are returned as is.
func Copy(v interface{}) interface{} {
	switch t := v.(type) {
	case SetValue:
		if t == nil {
			return t
		}
		ret := make(SetValue, len(t))
		for k := range t {
			ret[k] = struct{}{}
		}
		return ret
	case ListValue:
		if t == nil {
			return t
		}
		return append(ListValue{}, t...)
	case MapValue:
		if t == nil {
			return t
		}
		ret := make(MapValue, len(t))
		for k, e := range t {
			ret[k] = e
		}
		return ret
	case Blob:
		if t == nil {
			return t
		}
		return append(Blob{}, t...)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		ret := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(ret, rv)
		return ret.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		ret := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			ret.SetMapIndex(iter.Key(), iter.Value())
		}
		return ret.Interface()
	}
	return v
}
