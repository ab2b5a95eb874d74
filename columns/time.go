package columns

import (
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// DateTimeColumn is a CQL timestamp. The database form is milliseconds
// since the unix epoch.
type DateTimeColumn struct{ base }

func NewDateTime(opts ...Option) *DateTimeColumn {
	return &DateTimeColumn{base{newInfo(opts)}}
}

func (c *DateTimeColumn) DBType() string { return "timestamp" }

func (c *DateTimeColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, c.errorf("%v is not a datetime object", v)
	}
	return t, nil
}

func (c *DateTimeColumn) ToDatabase(value interface{}) (interface{}, error) {
	switch t := c.defaultFor(value).(type) {
	case nil:
		return nil, nil
	case int64:
		return t, nil
	case time.Time:
		return toMillis(t), nil
	default:
		return nil, c.errorf("%v is not a datetime object", t)
	}
}

func (c *DateTimeColumn) FromDatabase(value interface{}) (interface{}, error) {
	switch t := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.UTC(), nil
	case int64:
		return fromMillis(t), nil
	}
	return nil, c.errorf("%v is not a datetime object", value)
}

// DateColumn is a calendar day stored as the timestamp of its UTC midnight.
type DateColumn struct{ base }

func NewDate(opts ...Option) *DateColumn {
	return &DateColumn{base{newInfo(opts)}}
}

func (c *DateColumn) DBType() string { return "timestamp" }

func (c *DateColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, c.errorf("%v is not a date object", v)
	}
	return truncateDay(t), nil
}

func (c *DateColumn) ToDatabase(value interface{}) (interface{}, error) {
	switch t := c.defaultFor(value).(type) {
	case nil:
		return nil, nil
	case int64:
		return t, nil
	case time.Time:
		return toMillis(truncateDay(t)), nil
	default:
		return nil, c.errorf("%v is not a date object", t)
	}
}

func (c *DateColumn) FromDatabase(value interface{}) (interface{}, error) {
	switch t := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return truncateDay(t), nil
	case int64:
		return truncateDay(fromMillis(t)), nil
	}
	return nil, c.errorf("%v is not a date object", value)
}

func toMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

func fromMillis(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond)).UTC()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UUIDColumn is a CQL uuid. Values are gocql.UUID; google uuid values and
// canonical strings are accepted as input.
type UUIDColumn struct {
	base
	timeBased bool
}

func NewUUID(opts ...Option) *UUIDColumn {
	return &UUIDColumn{base: base{newInfo(opts)}}
}

// NewTimeUUID creates a version 1 timeuuid column.
func NewTimeUUID(opts ...Option) *UUIDColumn {
	return &UUIDColumn{base: base{newInfo(opts)}, timeBased: true}
}

func (c *UUIDColumn) DBType() string {
	if c.timeBased {
		return "timeuuid"
	}
	return "uuid"
}

func (c *UUIDColumn) Validate(value interface{}) (interface{}, error) {
	v, isNil, err := c.validateNil(value)
	if isNil {
		return nil, err
	}
	return c.convert(v)
}

func (c *UUIDColumn) ToDatabase(value interface{}) (interface{}, error) {
	v := c.defaultFor(value)
	if v == nil {
		return nil, nil
	}
	return c.convert(v)
}

func (c *UUIDColumn) FromDatabase(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	return c.convert(value)
}

func (c *UUIDColumn) convert(v interface{}) (interface{}, error) {
	var u gocql.UUID
	switch t := v.(type) {
	case gocql.UUID:
		u = t
	case uuid.UUID:
		u = gocql.UUID(t)
	case [16]byte:
		u = gocql.UUID(t)
	case string:
		p, err := gocql.ParseUUID(t)
		if err != nil {
			return nil, c.errorf("%s is not a valid uuid", t)
		}
		u = p
	default:
		return nil, c.errorf("%v is not a valid uuid", v)
	}
	if c.timeBased && u.Version() != 1 {
		return nil, c.errorf("%s is not a time based uuid", u)
	}
	return u, nil
}

// NewRandomUUID is a default factory for uuid columns.
func NewRandomUUID() interface{} {
	return gocql.UUID(uuid.New())
}

// NewTimeUUIDValue is a default factory for timeuuid columns.
func NewTimeUUIDValue() interface{} {
	return gocql.TimeUUID()
}

// TimeUUIDFromTime builds a timeuuid for the given instant.
func TimeUUIDFromTime(t time.Time) gocql.UUID {
	return gocql.UUIDFromTime(t)
}
