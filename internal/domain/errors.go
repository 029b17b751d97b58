package domain

import "fmt"

// SchemaError reports a grid that is structurally unusable: a required
// variable or axis is missing, or the spatial axes use neither recognized
// naming convention. It is always raised before any computation starts;
// callers never see partial results alongside it.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string {
	return e.Msg
}

// DomainError reports an operation that is undefined for the given grid,
// such as an ensemble reduction over a grid without a member axis. The grid
// itself is well-formed; it is simply out of contract for the operation.
type DomainError struct {
	Msg string
}

func (e *DomainError) Error() string {
	return e.Msg
}

func schemaErrorf(format string, args ...any) error {
	return &SchemaError{Msg: fmt.Sprintf(format, args...)}
}

func domainErrorf(format string, args ...any) error {
	return &DomainError{Msg: fmt.Sprintf(format, args...)}
}
