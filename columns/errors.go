package columns

// MaxCollectionSize is the largest collection Cassandra accepts.
const MaxCollectionSize = 65535

// ValidationError reports a value that violates a column constraint.
type ValidationError struct {
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return e.Message
	}
	return e.Column + ": " + e.Message
}
