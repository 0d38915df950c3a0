package interp

import (
	"errors"
	"fmt"
)

// Common errors returned by the embedding layer. Every failure of a checked
// call is recovered at the protected-call boundary and reported through one
// of these or through an *Exception; none of them escape as panics.
var (
	// ErrInterpreterAlloc reports that no VM instance could be constructed.
	// This is the only unrecoverable failure: with no VM there is nothing to
	// report an exception through.
	ErrInterpreterAlloc = errors.New("failed to allocate shale interpreter")

	// ErrExecutorFailure reports that the protection mechanism itself could
	// not be engaged for a call.
	ErrExecutorFailure = errors.New("protected call could not be engaged")

	// ErrUnreachableValue reports that a call produced a value whose tag is
	// internal to the VM. Using such a value is undefined behavior, so it is
	// never surfaced.
	ErrUnreachableValue = errors.New("unreachable shale value crossed the embedding boundary")

	// ErrUnableToExtract reports that the VM held a pending error object the
	// exception bridge could not read.
	ErrUnableToExtract = errors.New("unable to extract exception from VM error state")

	// ErrArenaUnavailable reports that the VM could not snapshot its GC-root
	// stack. Fatal to the current operation, not to the interpreter.
	ErrArenaUnavailable = errors.New("gc arena savepoint unavailable")

	// ErrClosed reports use of an interpreter after Close.
	ErrClosed = errors.New("interpreter is closed")
)

// CannotLoadError reports that no provider was registered for a logical
// source name.
type CannotLoadError struct {
	Name string
}

func (e *CannotLoadError) Error() string {
	return fmt.Sprintf("cannot load such file -- %s", e.Name)
}

// LoadFatalError reports that a provider was found but an internal loader
// invariant was violated while running it.
type LoadFatalError struct {
	Name string
	Err  error
}

func (e *LoadFatalError) Error() string {
	return fmt.Sprintf("fatal error loading %s: %v", e.Name, e.Err)
}

func (e *LoadFatalError) Unwrap() error { return e.Err }

// ArgumentConversionError reports that a logical source name could not be
// coerced to a string. Class names the class of the offending value when
// known.
type ArgumentConversionError struct {
	Class string
}

func (e *ArgumentConversionError) Error() string {
	if e.Class == "" {
		return "no implicit conversion into String"
	}
	return fmt.Sprintf("no implicit conversion of %s into String", e.Class)
}

// errAlreadySatisfied short-circuits require for names already in the
// required set. It never escapes Require, which reports the condition as a
// false return instead.
var errAlreadySatisfied = errors.New("source already required")
