package columns

import (
	"math"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/kzaag/cqlengine/cqltypes"
	"gopkg.in/inf.v0"
)

// BytesColumn stores raw bytes as a CQL blob.
type BytesColumn struct{ base }

func NewBytes(opts ...Option) *BytesColumn {
	return &BytesColumn{base{newInfo(opts)}}
}

func (c *BytesColumn) DBType() string { return "blob" }

func (c *BytesColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	switch t := v.(type) {
	case []byte:
		return t, nil
	case cqltypes.Blob:
		return []byte(t), nil
	case string:
		return []byte(t), nil
	}
	return nil, c.errorf("%v is not a byte sequence", v)
}

func (c *BytesColumn) ToDatabase(value interface{}) (interface{}, error) {
	switch t := c.defaultFor(value).(type) {
	case nil:
		return nil, nil
	case cqltypes.Blob:
		return t, nil
	case []byte:
		return cqltypes.Blob(t), nil
	case string:
		return cqltypes.Blob(t), nil
	default:
		return nil, c.errorf("%v is not a byte sequence", t)
	}
}

func (c *BytesColumn) FromDatabase(value interface{}) (interface{}, error) {
	switch t := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return t, nil
	case cqltypes.Blob:
		return []byte(t), nil
	}
	return nil, c.errorf("%v is not a byte sequence", value)
}

// TextColumn stores text or ascii strings with optional length bounds.
type TextColumn struct {
	base
	dbType string
}

// NewText creates a text column. A required text column has a minimum
// length of one unless MinLength says otherwise.
func NewText(opts ...Option) *TextColumn {
	return newTextColumn("text", opts)
}

func NewAscii(opts ...Option) *TextColumn {
	return newTextColumn("ascii", opts)
}

func newTextColumn(dbType string, opts []Option) *TextColumn {
	c := &TextColumn{base: base{newInfo(opts)}, dbType: dbType}
	if c.info.Required && c.info.MinLength == nil {
		one := 1
		c.info.MinLength = &one
	}
	return c
}

func (c *TextColumn) DBType() string { return c.dbType }

func (c *TextColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, c.errorf("%v is not a string", v)
	}
	n := utf8.RuneCountInString(s)
	if c.info.MinLength != nil && n < *c.info.MinLength {
		return nil, c.errorf("is shorter than %d characters", *c.info.MinLength)
	}
	if c.info.MaxLength != nil && n > *c.info.MaxLength {
		return nil, c.errorf("is longer than %d characters", *c.info.MaxLength)
	}
	return s, nil
}

func (c *TextColumn) ToDatabase(value interface{}) (interface{}, error) {
	switch t := c.defaultFor(value).(type) {
	case nil:
		return nil, nil
	case string:
		return t, nil
	default:
		return nil, c.errorf("%v is not a string", t)
	}
}

func (c *TextColumn) FromDatabase(value interface{}) (interface{}, error) {
	switch t := value.(type) {
	case nil:
		return nil, nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	}
	return nil, c.errorf("%v is not a string", value)
}

// IntegerColumn is a 32 bit CQL int, held as a Go int.
type IntegerColumn struct{ base }

func NewInteger(opts ...Option) *IntegerColumn {
	return &IntegerColumn{base{newInfo(opts)}}
}

func (c *IntegerColumn) DBType() string { return "int" }

func (c *IntegerColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	n, ok := toInt64(v)
	if !ok {
		return nil, c.errorf("%v can't be converted to integral value", v)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, c.errorf("%d is out of range for int", n)
	}
	return int(n), nil
}

func (c *IntegerColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	n, ok := toInt64(v)
	if !ok {
		return nil, c.errorf("%v can't be converted to integral value", v)
	}
	return int(n), nil
}

func (c *IntegerColumn) FromDatabase(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	n, ok := toInt64(value)
	if !ok {
		return nil, c.errorf("%v can't be converted to integral value", value)
	}
	return int(n), nil
}

// BigIntColumn is a 64 bit CQL bigint.
type BigIntColumn struct{ base }

func NewBigInt(opts ...Option) *BigIntColumn {
	return &BigIntColumn{base{newInfo(opts)}}
}

func (c *BigIntColumn) DBType() string { return "bigint" }

func (c *BigIntColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	return c.convert(v)
}

func (c *BigIntColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	return c.convert(v)
}

func (c *BigIntColumn) FromDatabase(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	return c.convert(value)
}

func (c *BigIntColumn) convert(v interface{}) (interface{}, error) {
	n, ok := toInt64(v)
	if !ok {
		return nil, c.errorf("%v can't be converted to integral value", v)
	}
	return n, nil
}

// CounterColumn is a CQL counter. Counters default to zero, are never part
// of the primary key and can only be changed by signed increments.
type CounterColumn struct {
	BigIntColumn
}

func NewCounter(opts ...Option) *CounterColumn {
	c := &CounterColumn{BigIntColumn{base{newInfo(opts)}}}
	c.info.PrimaryKey = false
	c.info.PartitionKey = false
	c.info.Default = int64(0)
	return c
}

func (c *CounterColumn) DBType() string { return "counter" }

// VarIntColumn is an arbitrary precision integer.
type VarIntColumn struct{ base }

func NewVarInt(opts ...Option) *VarIntColumn {
	return &VarIntColumn{base{newInfo(opts)}}
}

func (c *VarIntColumn) DBType() string { return "varint" }

func (c *VarIntColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	return c.convert(v)
}

func (c *VarIntColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	return c.convert(v)
}

func (c *VarIntColumn) FromDatabase(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	return c.convert(value)
}

func (c *VarIntColumn) convert(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case *big.Int:
		return t, nil
	case string:
		if n, ok := new(big.Int).SetString(t, 10); ok {
			return n, nil
		}
	default:
		if n, ok := toInt64(v); ok {
			return big.NewInt(n), nil
		}
	}
	return nil, c.errorf("%v can't be converted to integral value", v)
}

// BooleanColumn is a CQL boolean.
type BooleanColumn struct{ base }

func NewBoolean(opts ...Option) *BooleanColumn {
	return &BooleanColumn{base{newInfo(opts)}}
}

func (c *BooleanColumn) DBType() string { return "boolean" }

func (c *BooleanColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	return c.convert(v)
}

func (c *BooleanColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	return c.convert(v)
}

func (c *BooleanColumn) FromDatabase(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	return c.convert(value)
}

func (c *BooleanColumn) convert(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b, nil
		}
	default:
		if n, ok := toInt64(v); ok {
			return n != 0, nil
		}
	}
	return nil, c.errorf("%v is not a boolean", v)
}

// FloatColumn is a CQL double, or float when single precision.
type FloatColumn struct {
	base
	double bool
}

// NewFloat creates a double precision column.
func NewFloat(opts ...Option) *FloatColumn {
	return &FloatColumn{base: base{newInfo(opts)}, double: true}
}

// NewSingleFloat creates a single precision column.
func NewSingleFloat(opts ...Option) *FloatColumn {
	return &FloatColumn{base: base{newInfo(opts)}}
}

func (c *FloatColumn) DBType() string {
	if c.double {
		return "double"
	}
	return "float"
}

func (c *FloatColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	return c.convert(v)
}

func (c *FloatColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	return c.convert(v)
}

func (c *FloatColumn) FromDatabase(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	return c.convert(value)
}

func (c *FloatColumn) convert(v interface{}) (interface{}, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case string:
		p, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, c.errorf("%v can't be converted to a float", v)
		}
		f = p
	default:
		n, ok := toInt64(v)
		if !ok {
			return nil, c.errorf("%v can't be converted to a float", v)
		}
		f = float64(n)
	}
	if c.double {
		return f, nil
	}
	return float32(f), nil
}

// DecimalColumn is an arbitrary precision CQL decimal.
type DecimalColumn struct{ base }

func NewDecimal(opts ...Option) *DecimalColumn {
	return &DecimalColumn{base{newInfo(opts)}}
}

func (c *DecimalColumn) DBType() string { return "decimal" }

func (c *DecimalColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	return c.convert(v)
}

func (c *DecimalColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	return c.convert(v)
}

func (c *DecimalColumn) FromDatabase(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	return c.convert(value)
}

func (c *DecimalColumn) convert(v interface{}) (interface{}, error) {
	var s string
	switch t := v.(type) {
	case *inf.Dec:
		return t, nil
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		n, ok := toInt64(v)
		if !ok {
			return nil, c.errorf("%v can't be converted to a decimal", v)
		}
		return inf.NewDec(n, 0), nil
	}
	d, ok := new(inf.Dec).SetString(s)
	if !ok {
		return nil, c.errorf("%v can't be converted to a decimal", v)
	}
	return d, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), uint64(t) <= math.MaxInt64
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), t <= math.MaxInt64
	case float32:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	case *big.Int:
		return t.Int64(), t.IsInt64()
	}
	return 0, false
}
