// Package query builds and runs statements for a model: lazily composed
// query sets, single-instance writes and batches.
package query

import "fmt"

// QueryError reports a query that cannot be built, such as an unknown
// column, a misused token comparison or an unsupported ordering.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return e.Message
}

func queryErrorf(format string, args ...interface{}) error {
	return &QueryError{Message: fmt.Sprintf(format, args...)}
}
