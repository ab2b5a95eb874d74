// Package operators is the closed set of comparison operators usable in
// where clauses, looked up through an explicit registry.
package operators

import (
	"fmt"
	"strings"
	"sync"
)

// Operator is a binary comparison usable in a where clause.
type Operator interface {
	// Symbol is the short name used in filter keys, e.g. "gte" in "age__gte".
	Symbol() string
	// CQL is the rendered operator, e.g. ">=".
	CQL() string
}

// QueryOperatorError is returned for unknown operator symbols.
type QueryOperatorError struct {
	Symbol string
}

func (e *QueryOperatorError) Error() string {
	return fmt.Sprintf("%s doesn't map to a QueryOperator", e.Symbol)
}

type operator struct {
	symbol string
	cql    string
}

func (o *operator) Symbol() string { return o.symbol }
func (o *operator) CQL() string    { return o.cql }
func (o *operator) String() string { return o.cql }

var (
	mu       sync.RWMutex
	registry = make(map[string]Operator)
)

// Register makes op available to Get under its symbol. Registering a
// symbol twice replaces the earlier operator.
func Register(op Operator) Operator {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToUpper(op.Symbol())] = op
	return op
}

// Get returns the operator registered for symbol, ignoring case.
func Get(symbol string) (Operator, error) {
	mu.RLock()
	defer mu.RUnlock()
	if op, ok := registry[strings.ToUpper(symbol)]; ok {
		return op, nil
	}
	return nil, &QueryOperatorError{Symbol: symbol}
}

var (
	Equals             = Register(&operator{symbol: "EQ", cql: "="})
	In                 = Register(&operator{symbol: "IN", cql: "IN"})
	GreaterThan        = Register(&operator{symbol: "GT", cql: ">"})
	GreaterThanOrEqual = Register(&operator{symbol: "GTE", cql: ">="})
	LessThan           = Register(&operator{symbol: "LT", cql: "<"})
	LessThanOrEqual    = Register(&operator{symbol: "LTE", cql: "<="})
)

// IsIn reports whether op renders as IN.
func IsIn(op Operator) bool {
	return op.CQL() == In.CQL()
}

// IsEquality reports whether op can satisfy a partition or index lookup.
func IsEquality(op Operator) bool {
	return op.CQL() == Equals.CQL() || IsIn(op)
}
