package neomap

import (
	"errors"
	"fmt"
)

// ErrorPolicy decides what a row-by-row push does after a row fails.
type ErrorPolicy int

const (
	// ContinueOnError records the failure and moves on to the next row.
	ContinueOnError ErrorPolicy = iota
	// AbortOnError stops at the first failing row.
	AbortOnError
)

// ParseErrorPolicy parses "continue" or "abort".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", "continue":
		return ContinueOnError, nil
	case "abort":
		return AbortOnError, nil
	default:
		return ContinueOnError, Errorf(ErrCodeConfiguration, "unknown error policy %q (want continue or abort)", s)
	}
}

func (p ErrorPolicy) String() string {
	if p == AbortOnError {
		return "abort"
	}
	return "continue"
}

// RowError is the failure of one source row. Graph writes that row made
// before failing are not rolled back.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// PushReport summarizes a row-by-row push.
type PushReport struct {
	RunID     string
	Rows      int
	Succeeded int
	Failed    []RowError
	// Aborted is set when AbortOnError stopped the push early.
	Aborted bool
}

// Err joins every row error, or returns nil when all rows succeeded.
func (r *PushReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Record registers the outcome of row and reports whether the push should stop.
func (r *PushReport) Record(row int, err error, policy ErrorPolicy) (stop bool) {
	r.Rows++
	if err == nil {
		r.Succeeded++
		return false
	}
	r.Failed = append(r.Failed, RowError{Row: row, Err: err})
	if policy == AbortOnError {
		r.Aborted = true
		return true
	}
	return false
}
