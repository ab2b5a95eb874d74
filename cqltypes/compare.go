package cqltypes

import (
	"bytes"
	"math/big"
	"reflect"
	"time"

	"gopkg.in/inf.v0"
)

// Equal reports whether two database values are equal.
func Equal(a, b interface{}) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case SetValue:
		y, ok := b.(SetValue)
		return ok && x.Equal(y)
	case ListValue:
		y, ok := b.(ListValue)
		return ok && x.Equal(y)
	case MapValue:
		y, ok := b.(MapValue)
		return ok && x.Equal(y)
	case Blob:
		y, ok := b.(Blob)
		return ok && bytes.Equal(x, y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case *big.Int:
		y, ok := b.(*big.Int)
		return ok && x.Cmp(y) == 0
	case *inf.Dec:
		y, ok := b.(*inf.Dec)
		return ok && x.Cmp(y) == 0
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

// Less orders database values. Numbers compare numerically, strings
// lexically, times chronologically; anything else falls back to the
// literal rendering so that ordering stays deterministic.
func Less(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa < fb
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	case bool:
		if y, ok := b.(bool); ok {
			return !x && y
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Before(y)
		}
	case *big.Int:
		if y, ok := b.(*big.Int); ok {
			return x.Cmp(y) < 0
		}
	case *inf.Dec:
		if y, ok := b.(*inf.Dec); ok {
			return x.Cmp(y) < 0
		}
	}
	return RenderLiteral(a) < RenderLiteral(b)
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
