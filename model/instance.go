package model

import (
	"github.com/kzaag/cqlengine/columns"
	"github.com/kzaag/cqlengine/connection"
	"github.com/kzaag/cqlengine/cqltypes"
	"github.com/kzaag/cqlengine/statements"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Batch collects write statements that are sent together.
type Batch interface {
	AddQuery(stmt statements.Statement)
}

// Field is the tracked value of one column on one instance. Previous is the
// value last read from or written to the database.
type Field struct {
	column   columns.Column
	current  interface{}
	previous interface{}
}

func newField(col columns.Column, v interface{}) *Field {
	return &Field{column: col, current: v, previous: cqltypes.Copy(v)}
}

func (f *Field) Column() columns.Column { return f.column }
func (f *Field) Get() interface{}       { return f.current }
func (f *Field) Set(v interface{})      { f.current = v }
func (f *Field) Previous() interface{}  { return f.previous }

// Changed reports whether the value differs from the last committed one.
func (f *Field) Changed() bool {
	return !cqltypes.Equal(f.current, f.previous)
}

// Deleted reports whether a committed value has been cleared.
func (f *Field) Deleted() bool {
	return f.current == nil && f.previous != nil
}

// Commit makes the current value the new baseline.
func (f *Field) Commit() {
	f.previous = cqltypes.Copy(f.current)
}

// Instance is one row of a model.
type Instance struct {
	schema    *Schema
	fields    map[string]*Field
	persisted bool

	ttl         int
	timestamp   interface{}
	consistency connection.Consistency
	batch       Batch
}

// New creates an unsaved instance. Collections left out start empty.
func (s *Schema) New(values map[string]interface{}) (*Instance, error) {
	for k := range values {
		if _, ok := s.Column(k); !ok {
			return nil, errors.Errorf("%s has no field %s", s.Name, k)
		}
	}
	inst := &Instance{schema: s, fields: make(map[string]*Field, len(s.Columns))}
	for _, col := range s.Columns {
		name := col.Info().Name
		v, ok := values[name]
		if !ok && len(s.PartitionKeys) == 1 && col == s.PartitionKeys[0] {
			v = values[pkAlias]
		}
		if v == nil {
			if _, isContainer := col.(columns.Container); isContainer {
				empty, err := col.FromDatabase(nil)
				if err != nil {
					return nil, err
				}
				v = empty
			}
		}
		f := newField(col, v)
		// increments of a new counter row start from zero
		if _, ok := col.(*columns.CounterColumn); ok {
			f.previous = int64(0)
		}
		inst.fields[name] = f
	}
	return inst, nil
}

// FromRow builds a persisted instance from a row keyed by database column
// names. Columns that are not part of the model are ignored.
func (s *Schema) FromRow(row map[string]interface{}) (*Instance, error) {
	inst := &Instance{
		schema:    s,
		fields:    make(map[string]*Field, len(s.Columns)),
		persisted: true,
	}
	for _, col := range s.Columns {
		v, err := col.FromDatabase(row[col.Info().DBFieldName()])
		if err != nil {
			return nil, err
		}
		inst.fields[col.Info().Name] = newField(col, v)
	}
	return inst, nil
}

func (i *Instance) Schema() *Schema { return i.schema }

// Field returns the tracked field, or nil for unknown names.
func (i *Instance) Field(name string) *Field {
	if f, ok := i.fields[name]; ok {
		return f
	}
	if c, ok := i.schema.Column(name); ok {
		return i.fields[c.Info().Name]
	}
	return nil
}

func (i *Instance) Get(name string) interface{} {
	if f := i.Field(name); f != nil {
		return f.Get()
	}
	return nil
}

func (i *Instance) Set(name string, v interface{}) error {
	f := i.Field(name)
	if f == nil {
		return errors.Errorf("%s has no field %s", i.schema.Name, name)
	}
	f.Set(v)
	return nil
}

// Values returns the current values keyed by field name.
func (i *Instance) Values() map[string]interface{} {
	ret := make(map[string]interface{}, len(i.fields))
	for n, f := range i.fields {
		ret[n] = f.Get()
	}
	return ret
}

// PK returns the partition key value, or a slice of values for composite
// partition keys.
func (i *Instance) PK() interface{} {
	pks := i.schema.PartitionKeys
	if len(pks) == 1 {
		return i.Get(pks[0].Info().Name)
	}
	ret := make([]interface{}, len(pks))
	for n, c := range pks {
		ret[n] = i.Get(c.Info().Name)
	}
	return ret
}

// PKChanged reports whether any primary key value changed since the last
// commit, in which case the row can no longer be addressed by its old key.
func (i *Instance) PKChanged() bool {
	for _, c := range i.schema.PrimaryKeys {
		if i.fields[c.Info().Name].Changed() {
			return true
		}
	}
	return false
}

func (i *Instance) IsPersisted() bool { return i.persisted }

// Commit resets the change tracking of every field.
func (i *Instance) Commit() {
	for _, f := range i.fields {
		f.Commit()
	}
}

// MarkSaved records a successful write: fields are committed, the instance
// is persisted and one-shot write options are cleared.
func (i *Instance) MarkSaved() {
	i.Commit()
	i.persisted = true
	i.ttl = 0
	i.timestamp = nil
}

// Validate checks every column and stores the cleaned values, applying
// defaults to missing ones.
func (i *Instance) Validate() error {
	var errs error
	for _, col := range i.schema.Columns {
		f := i.fields[col.Info().Name]
		v, err := col.Validate(f.Get())
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		f.Set(v)
	}
	return errs
}

// WithTTL sets the TTL in seconds used by the next save.
func (i *Instance) WithTTL(ttl int) *Instance {
	i.ttl = ttl
	return i
}

func (i *Instance) TTL() int { return i.ttl }

// WithTimestamp sets the write timestamp used by the next save: integer
// microseconds, a time.Time or a time.Duration from now.
func (i *Instance) WithTimestamp(ts interface{}) *Instance {
	i.timestamp = ts
	return i
}

func (i *Instance) Timestamp() interface{} { return i.timestamp }

func (i *Instance) WithConsistency(c connection.Consistency) *Instance {
	i.consistency = c
	return i
}

func (i *Instance) Consistency() connection.Consistency { return i.consistency }

// UseBatch queues the writes of this instance on b instead of executing
// them.
func (i *Instance) UseBatch(b Batch) *Instance {
	i.batch = b
	return i
}

func (i *Instance) Batch() Batch { return i.batch }
