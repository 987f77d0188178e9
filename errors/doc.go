// Package errors provides structured error types for the pinned-runtime library.
//
// Errors are categorized by Phase (which operation failed) and Kind (error category).
// The Error type carries the storage strategy, Go type name, offending value and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMoveOut, errors.KindNotUnique).
//		Strategy("shared").
//		GoType("guest.Cell").
//		Detail("%d live handles", 2).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotUnique(errors.PhaseAccess, "local", 3)
//	err := errors.Domain("cell_init", 1, -5)
//
// All errors implement the standard error interface and support errors.Is/As.
// A target with an empty Phase matches every phase of its Kind:
//
//	errors.Is(err, &errors.Error{Kind: errors.KindNotUnique})
package errors
