package kpi

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks a source row whose date or numeric field cannot be parsed.
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptyInput marks a computation that is undefined on the given (empty) set.
	ErrEmptyInput = errors.New("empty input")
)

// MalformedRecordError identifies the offending row of a malformed-input failure.
type MalformedRecordError struct {
	Row     int
	OrderID string
	Field   string
	Value   string
	Err     error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("row %d", e.Row)
	if e.OrderID != "" {
		msg += fmt.Sprintf(" (order %s)", e.OrderID)
	}
	msg += fmt.Sprintf(": invalid %s %q", e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedInput
}
