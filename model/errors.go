package model

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDoesNotExist matches every DoesNotExistError.
	ErrDoesNotExist = errors.New("does not exist")
	// ErrMultipleObjectsReturned matches every MultipleObjectsReturnedError.
	ErrMultipleObjectsReturned = errors.New("multiple objects returned")
)

// DoesNotExistError is returned by Get when no row matches.
type DoesNotExistError struct {
	Model string
}

func (e *DoesNotExistError) Error() string {
	return e.Model + " matching query does not exist"
}

func (e *DoesNotExistError) Is(target error) bool {
	return target == ErrDoesNotExist
}

// MultipleObjectsReturnedError is returned by Get when more than one row
// matches.
type MultipleObjectsReturnedError struct {
	Model string
	Count int
}

func (e *MultipleObjectsReturnedError) Error() string {
	return fmt.Sprintf("%d %s objects found", e.Count, e.Model)
}

func (e *MultipleObjectsReturnedError) Is(target error) bool {
	return target == ErrMultipleObjectsReturned
}

// DoesNotExist builds the error for this model.
func (s *Schema) DoesNotExist() error {
	return &DoesNotExistError{Model: s.Name}
}

// MultipleObjectsReturned builds the error for this model.
func (s *Schema) MultipleObjectsReturned(n int) error {
	return &MultipleObjectsReturnedError{Model: s.Name, Count: n}
}
