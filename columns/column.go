// Package columns describes typed model fields and converts values between
// their Go and database representations.
package columns

import (
	"fmt"
	"strings"
)

// Info is the metadata shared by every column type.
type Info struct {
	// Name is the model-facing field name. It is assigned when the column
	// is attached to a model schema.
	Name string
	// DBField overrides the column name used in CQL.
	DBField string

	PrimaryKey   bool
	PartitionKey bool
	Index        bool
	Required     bool

	// Default is either a literal value or a func() interface{} factory.
	Default interface{}

	// ClusteringOrder is "asc" or "desc" for clustering keys.
	ClusteringOrder string

	// Text bounds, nil when unbounded.
	MinLength *int
	MaxLength *int

	// Strict makes a set column accept only set inputs.
	Strict bool

	// Position is the declaration order inside the model.
	Position int
}

// DBFieldName is the name of the column in the database.
func (i *Info) DBFieldName() string {
	if i.DBField != "" {
		return i.DBField
	}
	return i.Name
}

// CQL returns the double quoted column name.
func (i *Info) CQL() string {
	return Quote(i.DBFieldName())
}

func (i *Info) HasDefault() bool {
	return i.Default != nil
}

// GetDefault evaluates the default, calling it when it is a factory.
func (i *Info) GetDefault() interface{} {
	switch d := i.Default.(type) {
	case func() interface{}:
		return d()
	case nil:
		return nil
	}
	return i.Default
}

// IsClusteringKey reports whether the column is a non-partition primary key.
func (i *Info) IsClusteringKey() bool {
	return i.PrimaryKey && !i.PartitionKey
}

// Quote double quotes a CQL identifier.
func Quote(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

// Column is a typed field definition.
type Column interface {
	Info() *Info
	// DBType is the CQL type used in table definitions.
	DBType() string
	// ToDatabase converts a Go value to its database form. Values that are
	// already in database form are returned unchanged.
	ToDatabase(value interface{}) (interface{}, error)
	// FromDatabase converts a value read from the database.
	FromDatabase(value interface{}) (interface{}, error)
	// Validate checks value against the column constraints and returns the
	// cleaned value.
	Validate(value interface{}) (interface{}, error)
}

// Container is a collection column.
type Container interface {
	Column
	Elements() []Column
	// Check verifies the element columns can live inside the collection.
	Check() error
}

// Option configures column metadata.
type Option func(*Info)

func PrimaryKey() Option {
	return func(i *Info) { i.PrimaryKey = true }
}

// PartitionKey marks the column as part of the partition key. It implies
// PrimaryKey.
func PartitionKey() Option {
	return func(i *Info) {
		i.PartitionKey = true
		i.PrimaryKey = true
	}
}

func Index() Option {
	return func(i *Info) { i.Index = true }
}

func Required() Option {
	return func(i *Info) { i.Required = true }
}

// Default sets a literal default or a func() interface{} factory.
func Default(v interface{}) Option {
	return func(i *Info) { i.Default = v }
}

func DBField(name string) Option {
	return func(i *Info) { i.DBField = name }
}

// ClusteringOrder sets "asc" or "desc" on a clustering key.
func ClusteringOrder(order string) Option {
	return func(i *Info) { i.ClusteringOrder = strings.ToLower(order) }
}

func MinLength(n int) Option {
	return func(i *Info) { i.MinLength = &n }
}

func MaxLength(n int) Option {
	return func(i *Info) { i.MaxLength = &n }
}

func Strict() Option {
	return func(i *Info) { i.Strict = true }
}

func newInfo(opts []Option) Info {
	var i Info
	for _, o := range opts {
		o(&i)
	}
	return i
}

type base struct {
	info Info
}

func (b *base) Info() *Info {
	return &b.info
}

// validateNil handles the absent value: defaults apply, required columns
// fail. The returned bool is true when value is nil after the check.
func (b *base) validateNil(value interface{}) (interface{}, bool, error) {
	if value != nil {
		return value, false, nil
	}
	if b.info.HasDefault() {
		d := b.info.GetDefault()
		return d, d == nil, nil
	}
	if b.info.Required {
		return nil, true, b.errorf("None values are not allowed")
	}
	return nil, true, nil
}

// defaultFor returns the default when value is nil.
func (b *base) defaultFor(value interface{}) interface{} {
	if value == nil && b.info.HasDefault() {
		return b.info.GetDefault()
	}
	return value
}

func (b *base) errorf(format string, args ...interface{}) error {
	return &ValidationError{
		Column:  b.info.DBFieldName(),
		Message: fmt.Sprintf(format, args...),
	}
}
