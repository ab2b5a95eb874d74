// Package management creates keyspaces and keeps Cassandra tables in sync
// with model schemas.
package management

import (
	"sort"
	"strings"

	"github.com/kzaag/cqlengine/model"
)

type Column struct {
	Name string
	Type string
}

type Index struct {
	Name   string
	Column string
}

type PKColumn struct {
	Name     string
	Order    string
	Position int
}

type PrimaryKey struct {
	Partition  []PKColumn
	Clustering []PKColumn
}

// Table is the shape of a table as stored in system_schema, or as derived
// from a model.
type Table struct {
	Keyspace   string
	Name       string
	Columns    map[string]*Column
	PrimaryKey PrimaryKey
	// Indexes are keyed by indexed column.
	Indexes map[string]*Index
}

func newTable(keyspace, name string) *Table {
	return &Table{
		Keyspace: keyspace,
		Name:     name,
		Columns:  make(map[string]*Column),
		Indexes:  make(map[string]*Index),
	}
}

func (pk *PrimaryKey) sort() {
	sort.Slice(pk.Partition, func(i, j int) bool {
		return pk.Partition[i].Position < pk.Partition[j].Position
	})
	sort.Slice(pk.Clustering, func(i, j int) bool {
		return pk.Clustering[i].Position < pk.Clustering[j].Position
	})
}

// LocalTable describes the table a schema maps to.
func LocalTable(s *model.Schema) *Table {
	t := newTable(s.Keyspace, s.Table)
	for _, col := range s.Columns {
		info := col.Info()
		db := info.DBFieldName()
		t.Columns[db] = &Column{Name: db, Type: col.DBType()}
		if info.Index {
			t.Indexes[db] = &Index{Name: indexName(s, db), Column: db}
		}
	}
	for i, col := range s.PartitionKeys {
		t.PrimaryKey.Partition = append(t.PrimaryKey.Partition,
			PKColumn{Name: col.Info().DBFieldName(), Position: i})
	}
	for i, col := range s.ClusteringKeys {
		t.PrimaryKey.Clustering = append(t.PrimaryKey.Clustering, PKColumn{
			Name:     col.Info().DBFieldName(),
			Order:    clusteringOrder(col.Info().ClusteringOrder),
			Position: i,
		})
	}
	return t
}

func clusteringOrder(o string) string {
	if o == "" {
		return "ASC"
	}
	return strings.ToUpper(o)
}

// samePrimaryKey is true when both keys have the same columns in the same
// order and with the same clustering order.
func samePrimaryKey(p1, p2 PrimaryKey) bool {
	if len(p1.Clustering) != len(p2.Clustering) {
		return false
	}
	if len(p1.Partition) != len(p2.Partition) {
		return false
	}
	for i := range p1.Clustering {
		if p2.Clustering[i].Name != p1.Clustering[i].Name {
			return false
		}
		if !strings.EqualFold(p2.Clustering[i].Order, p1.Clustering[i].Order) {
			return false
		}
	}
	for i := range p1.Partition {
		if p2.Partition[i].Name != p1.Partition[i].Name {
			return false
		}
	}
	return true
}
