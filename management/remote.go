package management

import (
	"context"
	"fmt"
	"strings"

	"github.com/kzaag/cqlengine/connection"
	"github.com/pkg/errors"
)

const (
	keyspacesQuery = `SELECT keyspace_name FROM system_schema.keyspaces`

	columnsQuery = `SELECT column_name, type, kind, position, clustering_order
		FROM system_schema.columns
		WHERE keyspace_name = :0 AND table_name = :1`

	indexesQuery = `SELECT index_name, options
		FROM system_schema.indexes
		WHERE keyspace_name = :0 AND table_name = :1`
)

// RemoteKeyspaces lists the keyspaces of the cluster.
func RemoteKeyspaces(
	ctx context.Context, exec connection.Executor,
) (map[string]struct{}, error) {
	res, err := exec.Execute(ctx, keyspacesQuery, nil, connection.Default)
	if err != nil {
		return nil, errors.Wrap(err, "read keyspaces")
	}
	ret := make(map[string]struct{})
	for _, row := range res.Maps() {
		ret[asString(row["keyspace_name"])] = struct{}{}
	}
	return ret, nil
}

// RemoteTable reads the columns, primary key and indexes of a table. It
// returns nil when the table does not exist.
func RemoteTable(
	ctx context.Context,
	exec connection.Executor,
	keyspace string,
	table string,
) (*Table, error) {
	params := map[string]interface{}{"0": keyspace, "1": table}
	res, err := exec.Execute(ctx, columnsQuery, params, connection.Default)
	if err != nil {
		return nil, errors.Wrapf(err, "read columns of %s.%s", keyspace, table)
	}
	rows := res.Maps()
	if len(rows) == 0 {
		return nil, nil
	}

	t := newTable(keyspace, table)
	for _, row := range rows {
		c := &Column{Name: asString(row["column_name"]), Type: asString(row["type"])}
		t.Columns[c.Name] = c
		pos := asInt(row["position"])
		switch asString(row["kind"]) {
		case "partition_key":
			t.PrimaryKey.Partition = append(t.PrimaryKey.Partition,
				PKColumn{Name: c.Name, Position: pos})
		case "clustering":
			t.PrimaryKey.Clustering = append(t.PrimaryKey.Clustering, PKColumn{
				Name:     c.Name,
				Order:    strings.ToUpper(asString(row["clustering_order"])),
				Position: pos,
			})
		}
	}
	t.PrimaryKey.sort()

	if res, err = exec.Execute(ctx, indexesQuery, params, connection.Default); err != nil {
		return nil, errors.Wrapf(err, "read indexes of %s.%s", keyspace, table)
	}
	for _, row := range res.Maps() {
		options := asStringMap(row["options"])
		target := strings.Trim(options["target"], `"`)
		if target == "" {
			return nil, fmt.Errorf("couldnt find target for index %v", row["index_name"])
		}
		t.Indexes[target] = &Index{Name: asString(row["index_name"]), Column: target}
	}
	return t, nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func asInt(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	}
	return 0
}

func asStringMap(v interface{}) map[string]string {
	switch t := v.(type) {
	case map[string]string:
		return t
	case map[interface{}]interface{}:
		ret := make(map[string]string, len(t))
		for k, val := range t {
			ret[asString(k)] = asString(val)
		}
		return ret
	}
	return nil
}
