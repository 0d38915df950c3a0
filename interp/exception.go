package interp

import (
	"fmt"
	"strings"

	"github.com/shale-lang/shale/engine"
	"go.uber.org/zap"
)

// Exception is a VM-level error lifted into a host-native value: class name,
// message, and the backtrace the VM reported at raise time. Immutable once
// constructed.
type Exception struct {
	// Class is the name of the VM exception class, e.g. "SyntaxError".
	Class string
	// Message is the raw message byte string.
	Message []byte
	// Backtrace holds the stack frames, innermost first, formatted as
	// "<file>:<line>". Nil when the VM reported none.
	Backtrace [][]byte
}

// Error renders the exception the way the VM's own top-level error reporting
// does:
//
//	<file>:<line>: <message> (<ClassName>)
//	<frame>
//	...
func (e *Exception) Error() string {
	var b strings.Builder
	if len(e.Backtrace) > 0 {
		b.Write(e.Backtrace[0])
		b.WriteString(": ")
	}
	b.Write(e.Message)
	fmt.Fprintf(&b, " (%s)", e.Class)
	for _, frame := range e.Backtrace {
		b.WriteByte('\n')
		b.Write(frame)
	}
	return b.String()
}

// IsA reports whether the exception's class matches name.
func (e *Exception) IsA(name string) bool { return e.Class == name }

// lastError is the tri-state result of inspecting the VM's pending-error
// slot after a protected call.
type lastError struct {
	// exception is non-nil when the VM held a readable error object.
	exception *Exception
	// err is non-nil when the error object was malformed or inaccessible.
	err error
}

// extractLastError converts whatever error object the VM currently holds
// into a host-native Exception. The pending-error slot is cleared
// unconditionally so one failed evaluation never poisons the VM for
// subsequent calls.
//
// Both fields of the result are nil when no error was pending.
func extractLastError(state engine.State) lastError {
	exc := state.PendingError()
	defer state.ClearPendingError()
	if exc.IsNil() {
		return lastError{}
	}

	class, err := state.ClassName(exc)
	if err != nil {
		return lastError{err: fmt.Errorf("%w: reading class name: %v", ErrUnableToExtract, err)}
	}
	message, err := state.ExceptionMessage(exc)
	if err != nil {
		return lastError{err: fmt.Errorf("%w: reading message: %v", ErrUnableToExtract, err)}
	}
	backtrace, err := state.ExceptionBacktrace(exc)
	if err != nil {
		return lastError{err: fmt.Errorf("%w: reading backtrace: %v", ErrUnableToExtract, err)}
	}

	return lastError{exception: &Exception{Class: class, Message: message, Backtrace: backtrace}}
}

// logLastError records bridge outcomes at the severity the original eval
// path used: raised exceptions at Warn, extraction failures at Error.
func (interp *Interpreter) logLastError(last lastError) {
	switch {
	case last.err != nil:
		interp.log.Error("failed to extract exception after runtime error", zap.Error(last.err))
	case last.exception != nil:
		interp.log.Warn("runtime error with exception backtrace",
			zap.String("class", last.exception.Class),
			zap.ByteString("message", last.exception.Message))
	}
}
