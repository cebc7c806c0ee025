package filter

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownCriterion is returned for a local criterion the collection
	// has no predicate for.
	ErrUnknownCriterion = errors.New("unknown filter criterion")

	// ErrInvalidDate is returned when a before/after bound is not dd/mm/yyyy.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidNumber is returned when a season or episode is not an integer.
	ErrInvalidNumber = errors.New("invalid number")
)

// InvalidDateRangeError is returned when the before bound is strictly earlier
// than the after bound, leaving no date to match.
type InvalidDateRangeError struct {
	Before time.Time
	After  time.Time
}

// Error implements the error interface.
func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("invalid date range: before date %s is earlier than after date %s",
		e.Before.Format(displayLayout), e.After.Format(displayLayout))
}
