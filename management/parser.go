package management

import (
	"fmt"

	"github.com/kzaag/cqlengine/cmn"
	"github.com/kzaag/cqlengine/columns"
	"github.com/kzaag/cqlengine/model"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

// DefinitionSuffixes are the file suffixes read by ParseDefinitions.
var DefinitionSuffixes = []string{".yml", ".yaml"}

// ColumnDefinition is one column of a YAML table definition.
type ColumnDefinition struct {
	Name            string
	Type            string
	PrimaryKey      bool   `yaml:"primary_key"`
	PartitionKey    bool   `yaml:"partition_key"`
	ClusteringOrder string `yaml:"clustering_order"`
	Index           bool
	Required        bool
	DBField         string `yaml:"db_field"`
}

// TableDefinition describes a model in YAML:
//
//	table:
//	  name: PageView
//	  keyspace: web
//	  columns:
//	    - name: page
//	      type: text
//	      partition_key: true
//	    - name: at
//	      type: timeuuid
//	      primary_key: true
//	      clustering_order: desc
//	    - name: tags
//	      type: set<text>
type TableDefinition struct {
	Name     string
	Keyspace string
	// Table overrides the table name derived from Name.
	Table   string
	Columns []ColumnDefinition
}

func (c *ColumnDefinition) options() []columns.Option {
	var opts []columns.Option
	if c.PrimaryKey {
		opts = append(opts, columns.PrimaryKey())
	}
	if c.PartitionKey {
		opts = append(opts, columns.PartitionKey())
	}
	if c.ClusteringOrder != "" {
		opts = append(opts, columns.ClusteringOrder(c.ClusteringOrder))
	}
	if c.Index {
		opts = append(opts, columns.Index())
	}
	if c.Required {
		opts = append(opts, columns.Required())
	}
	if c.DBField != "" {
		opts = append(opts, columns.DBField(c.DBField))
	}
	return opts
}

// Schema builds the model schema. keyspace is used when the definition
// does not name one.
func (d *TableDefinition) Schema(keyspace string) (*model.Schema, error) {
	if d.Keyspace != "" {
		keyspace = d.Keyspace
	}
	fields := make([]model.FieldDef, 0, len(d.Columns))
	for i := range d.Columns {
		c := &d.Columns[i]
		if c.Type == "" {
			return nil, fmt.Errorf("column %s doesnt specify type", c.Name)
		}
		col, err := columns.Parse(c.Type, c.options()...)
		if err != nil {
			return nil, fmt.Errorf("column %s: %v", c.Name, err)
		}
		fields = append(fields, model.Col(c.Name, col))
	}
	if d.Table == "" {
		return model.Describe(keyspace, d.Name, fields...)
	}
	return model.DescribeTable(keyspace, d.Name, d.Table, fields...)
}

// ParseDefinition reads one YAML table definition.
func ParseDefinition(path string, fc []byte, keyspace string) (*model.Schema, error) {
	var obj struct {
		Table *TableDefinition
	}
	if err := yaml.UnmarshalStrict(fc, &obj); err != nil {
		return nil, fmt.Errorf("couldnt unmarshal %s %s", path, err.Error())
	}
	if obj.Table == nil {
		return nil, fmt.Errorf("validate %s: no table defined", path)
	}
	if obj.Table.Name == "" {
		return nil, fmt.Errorf("validate %s: table doesnt have name specified", path)
	}
	s, err := obj.Table.Schema(keyspace)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %v", path, err)
	}
	return s, nil
}

// ParseDefinitions reads every definition under the given files or
// directories. Errors of all files are returned together.
func ParseDefinitions(keyspace string, paths ...string) ([]*model.Schema, error) {
	var ret []*model.Schema
	var errs error
	for _, p := range paths {
		err := cmn.IterateSources(p, DefinitionSuffixes, func(path string, fc []byte) error {
			s, err := ParseDefinition(path, fc, keyspace)
			if err != nil {
				errs = multierr.Append(errs, err)
				return nil
			}
			ret = append(ret, s)
			return nil
		})
		if err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}
	return ret, nil
}
