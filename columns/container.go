package columns

import (
	"fmt"
	"reflect"

	"github.com/kzaag/cqlengine/cqltypes"
)

type container struct {
	base
}

func (c *container) checkSize(n int) error {
	if n > MaxCollectionSize {
		return c.errorf("Collection can't have more than %d elements.", MaxCollectionSize)
	}
	return nil
}

// checkElement verifies that col may be used inside a collection.
func checkElement(col Column, hashable bool) error {
	if col == nil {
		return &ValidationError{Message: "value_type must be a column"}
	}
	if _, ok := col.(Container); ok {
		return &ValidationError{Message: "container types cannot be nested"}
	}
	if col.DBType() == "" {
		return &ValidationError{Message: "value_type cannot be an abstract column type"}
	}
	if _, ok := col.(*CounterColumn); ok {
		return &ValidationError{Message: "counters cannot be collection elements"}
	}
	if _, ok := col.(*BytesColumn); ok && hashable {
		return &ValidationError{Message: "blob values cannot be set elements or map keys"}
	}
	return nil
}

// SetColumn is a CQL set. The Go value is a cqltypes.SetValue; unless the
// column is strict, slices are accepted and converted.
type SetColumn struct {
	container
	value Column
}

// NewSet creates a set column. Unless a default is given, a missing value
// defaults to the empty set.
func NewSet(value Column, opts ...Option) *SetColumn {
	c := &SetColumn{container: container{base{newInfo(opts)}}, value: value}
	if c.info.Default == nil {
		c.info.Default = func() interface{} { return cqltypes.SetValue{} }
	}
	return c
}

func (c *SetColumn) DBType() string {
	return fmt.Sprintf("set<%s>", c.value.DBType())
}

func (c *SetColumn) Elements() []Column { return []Column{c.value} }

// Check verifies the element column.
func (c *SetColumn) Check() error {
	return checkElement(c.value, true)
}

func (c *SetColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	items, isSet, ok := setItems(v)
	if !ok || (c.info.Strict && !isSet) {
		if c.info.Strict {
			return nil, c.errorf("%v is not a set object", v)
		}
		return nil, c.errorf("%v cannot be coerced to a set object", v)
	}
	if err := c.checkSize(len(items)); err != nil {
		return nil, err
	}
	ret := make(cqltypes.SetValue, len(items))
	for _, it := range items {
		if it == nil {
			return nil, c.errorf("None not allowed in a set")
		}
		vv, err := c.value.Validate(it)
		if err != nil {
			return nil, err
		}
		ret.Add(vv)
	}
	return ret, nil
}

func (c *SetColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	items, _, ok := setItems(v)
	if !ok {
		return nil, c.errorf("%v cannot be coerced to a set object", v)
	}
	ret := make(cqltypes.SetValue, len(items))
	for _, it := range items {
		dv, err := c.value.ToDatabase(it)
		if err != nil {
			return nil, err
		}
		ret.Add(dv)
	}
	return ret, nil
}

func (c *SetColumn) FromDatabase(value interface{}) (interface{}, error) {
	ret := make(cqltypes.SetValue)
	if value == nil {
		return ret, nil
	}
	items, _, ok := setItems(value)
	if !ok {
		return nil, c.errorf("%v cannot be coerced to a set object", value)
	}
	for _, it := range items {
		pv, err := c.value.FromDatabase(it)
		if err != nil {
			return nil, err
		}
		ret.Add(pv)
	}
	return ret, nil
}

// ListColumn is a CQL list held as a cqltypes.ListValue.
type ListColumn struct {
	container
	value Column
}

func NewList(value Column, opts ...Option) *ListColumn {
	c := &ListColumn{container: container{base{newInfo(opts)}}, value: value}
	if c.info.Default == nil {
		c.info.Default = func() interface{} { return cqltypes.ListValue{} }
	}
	return c
}

func (c *ListColumn) DBType() string {
	return fmt.Sprintf("list<%s>", c.value.DBType())
}

func (c *ListColumn) Elements() []Column { return []Column{c.value} }

func (c *ListColumn) Check() error {
	return checkElement(c.value, false)
}

func (c *ListColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	items, _, ok := setItems(v)
	if !ok {
		return nil, c.errorf("%v is not a list object", v)
	}
	if err := c.checkSize(len(items)); err != nil {
		return nil, err
	}
	ret := make(cqltypes.ListValue, len(items))
	for i, it := range items {
		if it == nil {
			return nil, c.errorf("None is not allowed in a list")
		}
		if ret[i], err = c.value.Validate(it); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (c *ListColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	items, _, ok := setItems(v)
	if !ok {
		return nil, c.errorf("%v is not a list object", v)
	}
	ret := make(cqltypes.ListValue, len(items))
	var err error
	for i, it := range items {
		if ret[i], err = c.value.ToDatabase(it); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (c *ListColumn) FromDatabase(value interface{}) (interface{}, error) {
	if value == nil {
		return cqltypes.ListValue{}, nil
	}
	items, _, ok := setItems(value)
	if !ok {
		return nil, c.errorf("%v is not a list object", value)
	}
	ret := make(cqltypes.ListValue, len(items))
	var err error
	for i, it := range items {
		if ret[i], err = c.value.FromDatabase(it); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// MapColumn is a CQL map held as a cqltypes.MapValue.
type MapColumn struct {
	container
	key   Column
	value Column
}

func NewMap(key, value Column, opts ...Option) *MapColumn {
	c := &MapColumn{
		container: container{base{newInfo(opts)}},
		key:       key,
		value:     value,
	}
	if c.info.Default == nil {
		c.info.Default = func() interface{} { return cqltypes.MapValue{} }
	}
	return c
}

func (c *MapColumn) DBType() string {
	return fmt.Sprintf("map<%s, %s>", c.key.DBType(), c.value.DBType())
}

func (c *MapColumn) Elements() []Column { return []Column{c.key, c.value} }

// KeyColumn is the column used to convert map keys.
func (c *MapColumn) KeyColumn() Column { return c.key }

func (c *MapColumn) Check() error {
	if err := checkElement(c.key, true); err != nil {
		return err
	}
	return checkElement(c.value, false)
}

func (c *MapColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	m, ok := mapItems(v)
	if !ok {
		return nil, c.errorf("%v is not a dict object", v)
	}
	if err := c.checkSize(len(m)); err != nil {
		return nil, err
	}
	ret := make(cqltypes.MapValue, len(m))
	for k, val := range m {
		if k == nil || val == nil {
			return nil, c.errorf("None is not allowed in a map")
		}
		vk, err := c.key.Validate(k)
		if err != nil {
			return nil, err
		}
		vv, err := c.value.Validate(val)
		if err != nil {
			return nil, err
		}
		ret[vk] = vv
	}
	return ret, nil
}

func (c *MapColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	m, ok := mapItems(v)
	if !ok {
		return nil, c.errorf("%v is not a dict object", v)
	}
	return c.convert(m, c.key.ToDatabase, c.value.ToDatabase)
}

func (c *MapColumn) FromDatabase(value interface{}) (interface{}, error) {
	if value == nil {
		return cqltypes.MapValue{}, nil
	}
	m, ok := mapItems(value)
	if !ok {
		return nil, c.errorf("%v is not a dict object", value)
	}
	return c.convert(m, c.key.FromDatabase, c.value.FromDatabase)
}

func (c *MapColumn) convert(
	m cqltypes.MapValue,
	kf, vf func(interface{}) (interface{}, error),
) (interface{}, error) {
	ret := make(cqltypes.MapValue, len(m))
	for k, v := range m {
		dk, err := kf(k)
		if err != nil {
			return nil, err
		}
		dv, err := vf(v)
		if err != nil {
			return nil, err
		}
		ret[dk] = dv
	}
	return ret, nil
}

// setItems flattens a set, slice or array into its elements. isSet is true
// when the input was a set: a cqltypes.SetValue or a map whose values are
// struct{} or bool (only true entries count).
func setItems(v interface{}) (items []interface{}, isSet bool, ok bool) {
	switch t := v.(type) {
	case cqltypes.SetValue:
		return t.Items(), true, true
	case cqltypes.ListValue:
		return []interface{}(t), false, true
	case []interface{}:
		return t, false, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// byte slices are scalars, not collections
			return nil, false, false
		}
		items = make([]interface{}, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, false, true
	case reflect.Map:
		et := rv.Type().Elem()
		switch {
		case et.Kind() == reflect.Struct && et.NumField() == 0:
			for _, k := range rv.MapKeys() {
				items = append(items, k.Interface())
			}
		case et.Kind() == reflect.Bool:
			for _, k := range rv.MapKeys() {
				if rv.MapIndex(k).Bool() {
					items = append(items, k.Interface())
				}
			}
		default:
			return nil, false, false
		}
		cqltypes.SortValues(items)
		return items, true, true
	}
	return nil, false, false
}

func mapItems(v interface{}) (cqltypes.MapValue, bool) {
	switch t := v.(type) {
	case cqltypes.MapValue:
		return t, true
	case cqltypes.SetValue:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	ret := make(cqltypes.MapValue, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		ret[iter.Key().Interface()] = iter.Value().Interface()
	}
	return ret, true
}

// IsNull reports whether v is absent for col. Empty collections count as
// absent because Cassandra does not distinguish them from null.
func IsNull(col Column, v interface{}) bool {
	if v == nil {
		return true
	}
	if _, ok := col.(Container); !ok {
		return false
	}
	switch t := v.(type) {
	case cqltypes.SetValue:
		return len(t) == 0
	case cqltypes.ListValue:
		return len(t) == 0
	case cqltypes.MapValue:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
