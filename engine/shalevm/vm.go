// Package shalevm is the reference shale virtual machine.
//
// The VM is an external collaborator of the embedding layer: it owns parsing,
// evaluation, and garbage collection, and it signals every fatal error by
// unwinding the Go stack with an engine.RaiseUnwind panic the way a C
// interpreter would longjmp. Host code must only drive it through the
// protected-call machinery in package interp.
package shalevm

import (
	"github.com/shale-lang/shale/engine"
)

const (
	// maxCallDepth bounds user method recursion.
	maxCallDepth = 512

	// maxLineno matches the 16-bit line counter of the wire-compatible
	// parser.
	maxLineno = 1<<15 - 1
)

func init() {
	engine.Register("shale", func(config any) (engine.State, error) {
		return New(), nil
	})
}

// state implements engine.State. It is single-goroutine-owned; nothing here
// is synchronized.
type state struct {
	globals map[string]engine.Value
	ivars   map[string]engine.Value
	locals  map[string]engine.Value
	methods map[string]*defNode
	natives map[string]engine.NativeFunc

	objects []*object
	arena   []*object

	exc        *object
	lastResult engine.Value
	gcEnabled  bool

	lineno    int
	callStack []frame
	closed    bool
}

// New allocates an empty VM state with collection enabled.
func New() engine.State {
	return &state{
		globals:   make(map[string]engine.Value),
		ivars:     make(map[string]engine.Value),
		locals:    make(map[string]engine.Value),
		methods:   make(map[string]*defNode),
		natives:   make(map[string]engine.NativeFunc),
		gcEnabled: true,
		lineno:    1,
	}
}

// EvalWithFilename parses and executes code. Fatal errors, including parse
// failures, unwind with an engine.RaiseUnwind panic carrying the exception
// object.
func (s *state) EvalWithFilename(filename string, code []byte) engine.Value {
	if s.closed {
		s.raiseClosed(filename)
	}
	prog, serr := parseSource(filename, code, s.lineno)
	s.callStack = append(s.callStack, frame{file: filename, line: s.lineno})
	defer func() {
		s.callStack = s.callStack[:len(s.callStack)-1]
	}()
	if serr != nil {
		s.callStack[len(s.callStack)-1].line = serr.line
		s.raiseError("SyntaxError", serr.msg)
	}
	result := s.evalProgram(prog)
	s.lastResult = result
	return result
}

func (s *state) raiseClosed(filename string) {
	obj := &object{
		kind:      objException,
		class:     "fatal",
		bytes:     []byte("state is closed"),
		backtrace: [][]byte{[]byte(filename + ":0")},
	}
	s.Raise(obj.value())
}

// PendingError returns the exception in the pending-error slot, or nil.
func (s *state) PendingError() engine.Value {
	if s.exc == nil {
		return engine.Nil()
	}
	return s.exc.value()
}

func (s *state) ClearPendingError() {
	s.exc = nil
}

func (s *state) SetPendingError(v engine.Value) {
	s.exc = deref(v)
}

// NewException allocates an exception object without a backtrace. Raise
// attaches the current backtrace when the object unwinds.
func (s *state) NewException(class string, message []byte) (engine.Value, error) {
	if s.closed {
		return engine.Nil(), engine.ErrStateClosed
	}
	return s.allocException(class, message, nil).value(), nil
}

// Raise unwinds the VM with v in flight. Exception objects that carry no
// backtrace get the current one.
func (s *state) Raise(v engine.Value) {
	if o := deref(v); o != nil && o.kind == objException && o.backtrace == nil {
		o.backtrace = s.currentBacktrace()
	}
	panic(&engine.RaiseUnwind{Exception: v})
}

func (s *state) ClassName(v engine.Value) (string, error) {
	name, ok := className(v)
	if !ok {
		return "", engine.ErrInvalidValue
	}
	return name, nil
}

func (s *state) ExceptionMessage(v engine.Value) ([]byte, error) {
	o := deref(v)
	if o == nil || o.kind != objException {
		return nil, engine.ErrNotAnException
	}
	message := make([]byte, len(o.bytes))
	copy(message, o.bytes)
	return message, nil
}

func (s *state) ExceptionBacktrace(v engine.Value) ([][]byte, error) {
	o := deref(v)
	if o == nil || o.kind != objException {
		return nil, engine.ErrNotAnException
	}
	if o.backtrace == nil {
		return nil, nil
	}
	bt := make([][]byte, len(o.backtrace))
	for i, f := range o.backtrace {
		bt[i] = append([]byte(nil), f...)
	}
	return bt, nil
}

func (s *state) StringContents(v engine.Value) ([]byte, error) {
	o := deref(v)
	if v.Tag != engine.TagString || o == nil {
		return nil, engine.ErrNotAString
	}
	contents := make([]byte, len(o.bytes))
	copy(contents, o.bytes)
	return contents, nil
}

func (s *state) DisplayString(v engine.Value) []byte { return displayBytes(v) }

func (s *state) Inspect(v engine.Value) []byte { return inspectBytes(v) }

// NewString allocates a VM string rooted on the arena stack.
func (s *state) NewString(b []byte) engine.Value {
	return s.allocString(b).value()
}

func (s *state) DefineNativeMethod(name string, fn engine.NativeFunc) error {
	if s.closed {
		return engine.ErrStateClosed
	}
	s.natives[name] = fn
	return nil
}

// FetchLineno returns the line the next eval starts on.
func (s *state) FetchLineno() int { return s.lineno }

// AddFetchLineno advances the parser line counter, guarding the VM's 16-bit
// line limit.
func (s *state) AddFetchLineno(delta int) (int, error) {
	next := s.lineno + delta
	if next > maxLineno || next < 0 {
		return s.lineno, engine.ErrLineCounterOverflow
	}
	s.lineno = next
	return s.lineno, nil
}

// Close tears the state down. Subsequent evals unwind with a fatal error and
// arena savepoints become unavailable.
func (s *state) Close() error {
	if s.closed {
		return engine.ErrStateClosed
	}
	s.closed = true
	s.arena = nil
	s.exc = nil
	s.lastResult = engine.Nil()
	for _, o := range s.objects {
		o.dead = true
	}
	s.objects = nil
	return nil
}
