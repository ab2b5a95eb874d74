// Package model describes tables as immutable schemas and tracks per-field
// changes on model instances.
package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kzaag/cqlengine/columns"
)

// DefaultKeyspace is used when a model does not name its keyspace.
const DefaultKeyspace = "cqlengine"

// pkAlias refers to the partition key of a single partition key model.
const pkAlias = "pk"

// maxTableName is the longest table name Cassandra accepts.
const maxTableName = 48

// DefinitionError reports an invalid model definition.
type DefinitionError struct {
	Model   string
	Message string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Model, e.Message)
}

// FieldDef attaches a column to a model field name.
type FieldDef struct {
	Name   string
	Column columns.Column
}

// Col is shorthand for FieldDef{name, c}.
func Col(name string, c columns.Column) FieldDef {
	return FieldDef{Name: name, Column: c}
}

// Schema is the immutable description of a model.
type Schema struct {
	Name     string
	Keyspace string
	Table    string

	Columns        []columns.Column
	PartitionKeys  []columns.Column
	ClusteringKeys []columns.Column
	PrimaryKeys    []columns.Column

	byName    map[string]columns.Column
	byDBField map[string]string
}

var camelCase = regexp.MustCompile(`([a-z])([A-Z])`)

// TableName derives a table name from a model name: FooBar becomes foo_bar.
func TableName(name string) string {
	t := camelCase.ReplaceAllString(name, "${1}_${2}")
	if len(t) > maxTableName {
		t = t[len(t)-maxTableName:]
	}
	return strings.TrimLeft(strings.ToLower(t), "_")
}

// Describe builds the schema of model name. The table name is derived from
// name; keyspace defaults to DefaultKeyspace. When no column is a partition
// key the first primary key becomes one.
func Describe(keyspace, name string, fields ...FieldDef) (*Schema, error) {
	return DescribeTable(keyspace, name, TableName(name), fields...)
}

// DescribeTable is Describe with an explicit table name.
func DescribeTable(keyspace, name, table string, fields ...FieldDef) (*Schema, error) {
	if keyspace == "" {
		keyspace = DefaultKeyspace
	}
	s := &Schema{
		Name:      name,
		Keyspace:  keyspace,
		Table:     strings.ToLower(table),
		byName:    make(map[string]columns.Column, len(fields)),
		byDBField: make(map[string]string, len(fields)),
	}
	fail := func(format string, args ...interface{}) (*Schema, error) {
		return nil, &DefinitionError{Model: name, Message: fmt.Sprintf(format, args...)}
	}

	hasPartition := false
	for _, f := range fields {
		if f.Column != nil && f.Column.Info().PartitionKey {
			hasPartition = true
		}
	}

	counters := 0
	for pos, f := range fields {
		if f.Name == "" || f.Column == nil {
			return fail("field %d needs a name and a column", pos)
		}
		if f.Name == pkAlias {
			return fail("%q is reserved", pkAlias)
		}
		if _, ok := s.byName[f.Name]; ok {
			return fail("field %s is defined more than once", f.Name)
		}
		info := f.Column.Info()
		info.Name = f.Name
		info.Position = pos

		_, isCounter := f.Column.(*columns.CounterColumn)
		container, isContainer := f.Column.(columns.Container)
		if info.PrimaryKey && (isCounter || isContainer) {
			return fail("counter columns and container columns cannot be used as primary keys")
		}
		if isContainer {
			if err := container.Check(); err != nil {
				return fail("%s: %v", f.Name, err)
			}
		}
		if isCounter {
			counters++
		}
		if !hasPartition && info.PrimaryKey {
			info.PartitionKey = true
			hasPartition = true
		}

		db := info.DBFieldName()
		if _, ok := s.byDBField[db]; ok {
			return fail("defines the column %s more than once", db)
		}
		if info.ClusteringOrder != "" {
			if !info.IsClusteringKey() {
				return fail("clustering_order may be specified only for clustering primary keys")
			}
			if info.ClusteringOrder != "asc" && info.ClusteringOrder != "desc" {
				return fail("invalid clustering order %q for column %s", info.ClusteringOrder, db)
			}
		}

		s.byName[f.Name] = f.Column
		s.byDBField[db] = f.Name
		s.Columns = append(s.Columns, f.Column)
		if info.PrimaryKey {
			s.PrimaryKeys = append(s.PrimaryKeys, f.Column)
			if info.PartitionKey {
				s.PartitionKeys = append(s.PartitionKeys, f.Column)
			} else {
				s.ClusteringKeys = append(s.ClusteringKeys, f.Column)
			}
		}
	}

	if len(s.PartitionKeys) == 0 {
		return fail("at least one partition key must be defined")
	}
	if counters > 0 && counters != len(s.Columns)-len(s.PrimaryKeys) {
		return fail("counter models may only have primary key and counter columns")
	}
	return s, nil
}

// ColumnFamilyName is the keyspace qualified table name.
func (s *Schema) ColumnFamilyName() string {
	return s.Keyspace + "." + s.Table
}

// Column looks a field up by name. "pk" resolves to the partition key of
// single partition key models.
func (s *Schema) Column(name string) (columns.Column, bool) {
	if c, ok := s.byName[name]; ok {
		return c, true
	}
	if name == pkAlias && len(s.PartitionKeys) == 1 {
		return s.PartitionKeys[0], true
	}
	return nil, false
}

// FieldName maps a database column name back to the field name.
func (s *Schema) FieldName(dbField string) (string, bool) {
	n, ok := s.byDBField[dbField]
	return n, ok
}

// Names lists the field names in declaration order.
func (s *Schema) Names() []string {
	ret := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		ret[i] = c.Info().Name
	}
	return ret
}

// IsCounterTable reports whether the model holds counters.
func (s *Schema) IsCounterTable() bool {
	for _, c := range s.Columns {
		if _, ok := c.(*columns.CounterColumn); ok {
			return true
		}
	}
	return false
}
