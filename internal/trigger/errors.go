package trigger

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField marks a record that lacks a column its form requires.
	ErrMissingField = errors.New("missing required field")
	// ErrBadDOF marks a chisq_dof value that yields no degrees of freedom.
	ErrBadDOF = errors.New("invalid chi-squared degrees of freedom")
)

// MalformedRecordError reports a trigger record that could not be turned
// into a Trigger. Record is the 1-based line or row number in Source.
type MalformedRecordError struct {
	Source string
	Record int
	Field  string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: record %d: %v", e.Source, e.Record, e.Err)
	}
	return fmt.Sprintf("%s: record %d: field %q: %v", e.Source, e.Record, e.Field, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }
