package query

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfSequence terminates pagination, iteration helpers never return it.
	ErrEndOfSequence = errors.New("end of sequence")
	// ErrLenUnsupported is returned by Len when the listing carries no counter.
	ErrLenUnsupported = errors.New("listing does not expose its length")
)

// ParseFailure is returned when a page does not have the shape its strategy expects.
type ParseFailure struct {
	Strategy string
	Reason   string
	Err      error
}

func (e *ParseFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Strategy, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Strategy, e.Reason)
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}
