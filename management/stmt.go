package management

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kzaag/cqlengine/columns"
	"github.com/kzaag/cqlengine/model"
)

const SimpleStrategy = "SimpleStrategy"

// KeyspaceOptions configures the replication of a new keyspace.
type KeyspaceOptions struct {
	Strategy          string `yaml:"strategy"`
	ReplicationFactor int    `yaml:"replication_factor"`
	// Replication holds extra replication values, e.g. per datacenter
	// factors for NetworkTopologyStrategy.
	Replication map[string]int `yaml:"replication"`
	// DurableWrites is only rendered for strategies other than
	// SimpleStrategy. Nil means true.
	DurableWrites *bool `yaml:"durable_writes"`
}

func DefaultKeyspaceOptions() *KeyspaceOptions {
	return &KeyspaceOptions{Strategy: SimpleStrategy, ReplicationFactor: 3}
}

func StmtCreateKeyspace(name string, opts *KeyspaceOptions) string {
	if opts == nil {
		opts = DefaultKeyspaceOptions()
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = SimpleStrategy
	}
	repl := []string{fmt.Sprintf("'class': '%s'", strategy)}
	if strategy == SimpleStrategy || opts.ReplicationFactor > 0 {
		rf := opts.ReplicationFactor
		if rf == 0 {
			rf = DefaultKeyspaceOptions().ReplicationFactor
		}
		repl = append(repl, fmt.Sprintf("'replication_factor': %d", rf))
	}
	keys := make([]string, 0, len(opts.Replication))
	for k := range opts.Replication {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		repl = append(repl, fmt.Sprintf("'%s': %d", k, opts.Replication[k]))
	}

	s := fmt.Sprintf("CREATE KEYSPACE %s WITH REPLICATION = {%s}", name, strings.Join(repl, ", "))
	if strategy != SimpleStrategy {
		durable := opts.DurableWrites == nil || *opts.DurableWrites
		s += fmt.Sprintf(" AND DURABLE_WRITES = %t", durable)
	}
	return s
}

func StmtDropKeyspace(name string) string {
	return "DROP KEYSPACE " + name
}

func columnDef(col columns.Column) string {
	return col.Info().CQL() + " " + col.DBType()
}

func quoteAll(cols []columns.Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Info().CQL()
	}
	return strings.Join(names, ", ")
}

func StmtPKDef(s *model.Schema) string {
	def := "PRIMARY KEY ((" + quoteAll(s.PartitionKeys) + ")"
	if len(s.ClusteringKeys) > 0 {
		def += ", " + quoteAll(s.ClusteringKeys)
	}
	return def + ")"
}

func StmtCreateTable(s *model.Schema) string {
	defs := make([]string, 0, len(s.Columns)+1)
	for _, col := range s.Columns {
		defs = append(defs, columnDef(col))
	}
	defs = append(defs, StmtPKDef(s))
	q := "CREATE TABLE " + s.ColumnFamilyName() + " (" + strings.Join(defs, ", ") + ")"

	if len(s.ClusteringKeys) > 0 {
		order := make([]string, len(s.ClusteringKeys))
		for i, c := range s.ClusteringKeys {
			order[i] = c.Info().CQL() + " " + clusteringOrder(c.Info().ClusteringOrder)
		}
		q += " WITH CLUSTERING ORDER BY (" + strings.Join(order, ", ") + ")"
	}
	return q
}

func indexName(s *model.Schema, dbField string) string {
	return "index_" + s.Table + "_" + dbField
}

func StmtCreateIndex(s *model.Schema, col columns.Column) string {
	db := col.Info().DBFieldName()
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		indexName(s, db), s.ColumnFamilyName(), col.Info().CQL())
}

func StmtAddColumn(s *model.Schema, col columns.Column) string {
	return "ALTER TABLE " + s.ColumnFamilyName() + " ADD " + columnDef(col)
}

func StmtDropTable(s *model.Schema) string {
	return "DROP TABLE " + s.ColumnFamilyName()
}
