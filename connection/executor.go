// Package connection runs rendered statements against Cassandra.
package connection

import "context"

//go:generate mockgen -destination=mocks/mock_executor.go -package=mocks github.com/kzaag/cqlengine/connection Executor

// Executor runs one CQL string with its :N bound parameters.
type Executor interface {
	Execute(
		ctx context.Context,
		cql string,
		params map[string]interface{},
		consistency Consistency,
	) (*Result, error)
}

// Result holds the rows returned by a statement, in column order.
type Result struct {
	Columns []string
	Rows    [][]interface{}
}

// Maps returns every row keyed by column name.
func (r *Result) Maps() []map[string]interface{} {
	if r == nil {
		return nil
	}
	ret := make([]map[string]interface{}, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]interface{}, len(r.Columns))
		for j, c := range r.Columns {
			if j < len(row) {
				m[c] = row[j]
			}
		}
		ret[i] = m
	}
	return ret
}
