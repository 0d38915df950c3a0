package engine

import "errors"

// Common errors returned across engine implementations
var (
	ErrEngineNotFound      = errors.New("engine not found")
	ErrArenaUnavailable    = errors.New("gc arena savepoint unavailable")
	ErrNotAnException      = errors.New("value is not an exception object")
	ErrNotAString          = errors.New("value is not a string")
	ErrInvalidValue        = errors.New("value is not owned by this state")
	ErrStateClosed         = errors.New("state is closed")
	ErrLineCounterOverflow = errors.New("parser exceeded maximum line count")
)
