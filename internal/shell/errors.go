package shell

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned by Start while a run is in flight.
	ErrBusy = errors.New("a run is already in progress")

	// ErrOutputInUse is returned when another run owns the output path.
	ErrOutputInUse = errors.New("output file is in use by another run")
)

// ValidationError is reported synchronously by Start; the run never begins.
type ValidationError struct {
	Field  string
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Path, e.Reason)
}

// IOError covers an unreadable input or an unwritable output.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// RowProcessingError aborts a run at the given sheet row.
type RowProcessingError struct {
	Row int
	Err error
}

func (e *RowProcessingError) Error() string {
	return fmt.Sprintf("error in row %d: %v", e.Row, e.Err)
}

func (e *RowProcessingError) Unwrap() error {
	return e.Err
}

// rowOf returns the row carried by err, or 0 when it has none.
func rowOf(err error) int {
	var rowErr *RowProcessingError
	if errors.As(err, &rowErr) {
		return rowErr.Row
	}
	return 0
}
