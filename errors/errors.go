package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which container or guest operation produced the error
type Phase string

const (
	PhaseAllocate Phase = "allocate" // reserving storage
	PhaseInit     Phase = "init"     // writing the initial value
	PhaseAccess   Phase = "access"   // exclusive access
	PhaseMoveOut  Phase = "move_out" // extracting the value
	PhaseConvert  Phase = "convert"  // moving into another strategy
	PhaseGuest    Phase = "guest"    // calls into the foreign component
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindNotUnique    Kind = "not_unique"
	KindDomain       Kind = "domain"
	KindAllocation   Kind = "allocation"
	KindTrap         Kind = "trap"
	KindContract     Kind = "contract"
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindClosed       Kind = "closed"
	KindOutOfBounds  Kind = "out_of_bounds"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Strategy string
	GoType   string
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Strategy != "" || e.GoType != "" {
		b.WriteString(": ")
		if e.Strategy != "" && e.GoType != "" {
			b.WriteString(e.Strategy)
			b.WriteString(" container of ")
			b.WriteString(e.GoType)
		} else if e.Strategy != "" {
			b.WriteString(e.Strategy)
			b.WriteString(" container")
		} else {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		}
	}

	if e.Detail != "" {
		if e.Strategy != "" || e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches any phase of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Strategy sets the storage strategy name
func (b *Builder) Strategy(s string) *Builder {
	b.err.Strategy = s
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotUnique creates a non-unique access error. refs is the number of live
// handles observed when the operation was refused.
func NotUnique(phase Phase, strategy string, refs int64) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindNotUnique,
		Strategy: strategy,
		Detail:   fmt.Sprintf("%d live handles share the value", refs),
		Value:    refs,
	}
}

// Domain creates a domain error reported by the foreign component
func Domain(op string, status uint32, value any) *Error {
	return &Error{
		Phase:  PhaseGuest,
		Kind:   KindDomain,
		Detail: fmt.Sprintf("%s rejected value %v (status %d)", op, value, status),
		Value:  value,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// Trap creates an error for a guest call that aborted
func Trap(fn string, cause error) *Error {
	return &Error{
		Phase:  PhaseGuest,
		Kind:   KindTrap,
		Detail: fmt.Sprintf("call %s", fn),
		Cause:  cause,
	}
}

// Contract creates a caller-contract violation error.
// These are raised as panics by the container layer.
func Contract(phase Phase, strategy, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindContract,
		Strategy: strategy,
		Detail:   detail,
	}
}

// OutOfBounds creates a guest memory access error
func OutOfBounds(offset, length uint32) *Error {
	return &Error{
		Phase:  PhaseGuest,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("offset %d length %d outside guest memory", offset, length),
		Value:  offset,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Closed creates an error for operations on a closed engine or instance
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseGuest,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
