package interp

import (
	"github.com/shale-lang/shale/engine"
	"go.uber.org/zap"
)

// RootFilename is the value of the __FILE__ magic constant when no eval
// context is active.
const RootFilename = "(eval)"

// Context is the source identity a caller scopes an evaluation with. The
// active context's filename appears as the __FILE__ magic constant and in
// stack frames for the duration of an eval; it is not retained as VM state
// afterward.
type Context struct {
	// Filename is the reported __FILE__ value.
	Filename string
}

// NewContext returns a Context reporting the given filename.
func NewContext(filename string) Context { return Context{Filename: filename} }

// RootContext is the default context used while the context stack is empty.
func RootContext() Context { return Context{Filename: RootFilename} }

// PushContext makes ctx the active source identity for subsequent evals.
// Contexts are a strict stack: the pusher (or a scope nested inside its
// lifetime) must pop it.
func (interp *Interpreter) PushContext(ctx Context) {
	interp.contextStack = append(interp.contextStack, ctx)
}

// PopContext removes the most recently pushed context and returns it. It
// returns a zero Context and false when the stack is empty.
func (interp *Interpreter) PopContext() (Context, bool) {
	if len(interp.contextStack) == 0 {
		return Context{}, false
	}
	top := interp.contextStack[len(interp.contextStack)-1]
	interp.contextStack = interp.contextStack[:len(interp.contextStack)-1]
	return top, true
}

// PeekContext returns the active context without removing it.
func (interp *Interpreter) PeekContext() (Context, bool) {
	if len(interp.contextStack) == 0 {
		return Context{}, false
	}
	return interp.contextStack[len(interp.contextStack)-1], true
}

// ContextDepth returns the number of pushed contexts.
func (interp *Interpreter) ContextDepth() int { return len(interp.contextStack) }

func (interp *Interpreter) evalFilename() string {
	if ctx, ok := interp.PeekContext(); ok {
		return ctx.Filename
	}
	return RootFilename
}

// Eval executes code on the VM and returns either its value or a typed
// error. The call runs under a fresh arena savepoint and behind the
// protected-call boundary; a failed evaluation leaves the interpreter fully
// usable.
func (interp *Interpreter) Eval(code []byte) (Value, error) {
	if interp.closed {
		return Value{}, ErrClosed
	}
	filename := interp.evalFilename()

	arena, err := interp.ArenaSavepoint()
	if err != nil {
		return Value{}, err
	}
	defer arena.Restore()

	interp.log.Debug("evaluating code", zap.String("filename", filename), zap.Int("bytes", len(code)))

	value, out := protect{state: interp.state, filename: filename, code: code}.run()
	if out == outcomeFailure {
		return Value{}, ErrExecutorFailure
	}

	last := extractLastError(interp.state)
	interp.logLastError(last)
	switch {
	case last.err != nil:
		return Value{}, last.err
	case last.exception != nil:
		return Value{}, last.exception
	case value.IsUnreachable():
		// Internal-only value tags must never cross the boundary; using
		// them through the embedding API is undefined behavior for the VM.
		return Value{}, ErrUnreachableValue
	default:
		return interp.value(value), nil
	}
}

// EvalWithContext executes code with ctx as the active source identity,
// restoring the previous context on every exit path.
func (interp *Interpreter) EvalWithContext(code []byte, ctx Context) (Value, error) {
	interp.PushContext(ctx)
	defer interp.PopContext()
	return interp.Eval(code)
}

// UncheckedEval executes code and re-raises any VM error into the enclosing
// protected call instead of returning it. It must only be called from host
// code that is itself running under a protected call, typically a native
// method, and that holds no resources needing cleanup past this point.
func (interp *Interpreter) UncheckedEval(code []byte) Value {
	filename := interp.evalFilename()

	// The arena savepoint must be released before a re-raise, so no defer
	// here: Restore runs explicitly on both exits.
	arena, err := interp.ArenaSavepoint()
	if err != nil {
		interp.raiseFatal(err.Error())
	}

	value, out := protect{state: interp.state, filename: filename, code: code}.run()
	arena.Restore()
	switch out {
	case outcomeFailure:
		interp.raiseFatal(ErrExecutorFailure.Error())
	case outcomeRaised:
		// All host handles are released; hand the unwind back to the VM.
		interp.state.ClearPendingError()
		interp.state.Raise(value)
	}
	return interp.value(value)
}

// UncheckedEvalWithContext is UncheckedEval with ctx scoped around the call.
func (interp *Interpreter) UncheckedEvalWithContext(code []byte, ctx Context) Value {
	interp.PushContext(ctx)
	defer interp.PopContext()
	return interp.UncheckedEval(code)
}

// raiseFatal raises a fatal-class VM exception from host code running inside
// a protected call.
func (interp *Interpreter) raiseFatal(message string) {
	exc, err := interp.state.NewException("fatal", []byte(message))
	if err != nil {
		// No exception object can be built; unwind with a bare one.
		interp.state.Raise(engine.Value{Tag: engine.TagException})
	}
	interp.state.Raise(exc)
}
