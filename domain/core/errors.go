package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	ErrSchema           = errors.New("dataset schema invalid")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrUndefinedValue   = errors.New("undefined value")
	ErrCollinear        = errors.New("design matrix is singular")
	ErrUnknownField     = errors.New("unknown field")
)

// SchemaError reports required columns missing from an input file.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s is missing required columns: %s",
		ErrSchema, e.Source, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// InsufficientDataError is raised when a statistical operation receives an
// empty or undersized group. Groups names every offending group.
type InsufficientDataError struct {
	Test    string
	Groups  []string
	MinSize int
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	var b strings.Builder
	b.WriteString(ErrInsufficientData.Error())
	b.WriteString(": ")
	b.WriteString(e.Test)
	if len(e.Groups) > 0 {
		fmt.Fprintf(&b, " (group %s", strings.Join(e.Groups, ", "))
		if e.MinSize > 0 {
			fmt.Fprintf(&b, " has fewer than %d values", e.MinSize)
		}
		b.WriteString(")")
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// UndefinedValueError describes a derived computation that could not produce a
// number. It never leaves the cleaning step; callers turn it into a sentinel.
type UndefinedValueError struct {
	Field  string
	Reason string
}

func (e *UndefinedValueError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrUndefinedValue, e.Field, e.Reason)
}

func (e *UndefinedValueError) Unwrap() error { return ErrUndefinedValue }

// CollinearityError is returned when the regression predictors are linearly dependent.
type CollinearityError struct {
	Predictors []string
}

func (e *CollinearityError) Error() string {
	return fmt.Sprintf("%s: predictors %s are linearly dependent",
		ErrCollinear, strings.Join(e.Predictors, ", "))
}

func (e *CollinearityError) Unwrap() error { return ErrCollinear }

// Error constructors with context
func NewInsufficientData(test string, minSize int, groups ...string) error {
	return &InsufficientDataError{Test: test, Groups: groups, MinSize: minSize}
}

func NewUnknownFieldError(field string) error {
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// Error checking helpers
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsRecoverable reports whether a page can show an inline notice instead of failing.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrCollinear)
}
