// Package engine defines the primitive entry points the embedding layer
// consumes from a shale virtual machine.
//
// The interfaces here are the seam between the host-side safety layer in
// package interp and a concrete VM implementation. The reference VM lives in
// engine/shalevm and registers itself under the name "shale".
package engine

import "io"

// Tag is the VM-level type tag carried by every boxed value.
type Tag uint8

const (
	// TagNil is the tag of the nil singleton.
	TagNil Tag = iota
	// TagFalse and TagTrue are the boolean singletons.
	TagFalse
	TagTrue
	// TagFixnum is an immediate integer. The payload lives in Value.Num.
	TagFixnum
	// TagString is a heap-allocated byte string.
	TagString
	// TagException is a heap-allocated exception object.
	TagException
	// TagUndef is internal to the VM. Values carrying this tag must never
	// cross the embedding boundary; using them through any State method is
	// undefined behavior.
	TagUndef
)

func (t Tag) String() string {
	switch t {
	case TagNil:
		return "nil"
	case TagFalse:
		return "false"
	case TagTrue:
		return "true"
	case TagFixnum:
		return "fixnum"
	case TagString:
		return "string"
	case TagException:
		return "exception"
	case TagUndef:
		return "undef"
	default:
		return "invalid"
	}
}

// Value mirrors the VM's boxed value word. It is plain data and safe to copy
// across the protected-call boundary: it owns nothing and has no cleanup
// behavior. Ref points into VM-owned memory and is only meaningful to the
// State that produced it.
type Value struct {
	Tag Tag
	Num int64
	Ref any
}

// Nil returns the nil singleton value.
func Nil() Value { return Value{Tag: TagNil} }

// Bool returns the boolean singleton for b.
func Bool(b bool) Value {
	if b {
		return Value{Tag: TagTrue}
	}
	return Value{Tag: TagFalse}
}

// Fixnum boxes an immediate integer.
func Fixnum(n int64) Value { return Value{Tag: TagFixnum, Num: n} }

// IsNil reports whether the value is the nil singleton.
func (v Value) IsNil() bool { return v.Tag == TagNil }

// IsUnreachable reports whether the value carries the VM-internal undef tag.
// Such values must not be used; see Tag.
func (v Value) IsUnreachable() bool { return v.Tag == TagUndef }

// Truthy reports Ruby truthiness: everything except nil and false.
func (v Value) Truthy() bool { return v.Tag != TagNil && v.Tag != TagFalse }

// RaiseUnwind is the panic payload the VM uses for fatal non-local unwinds,
// the moral equivalent of the C longjmp in mruby-style interpreters. Only the
// protected-call boundary in package interp may recover it; any other panic
// value crossing that boundary is a host bug and is re-thrown.
type RaiseUnwind struct {
	// Exception is the VM error object in flight.
	Exception Value
}

// NativeFunc is a host function callable from VM code. It may unwind by
// calling State.Raise and must not retain args after returning: the backing
// objects are only rooted for the duration of the call.
type NativeFunc func(s State, args []Value) Value

// Evaler executes source code on the VM.
type Evaler interface {
	// EvalWithFilename parses and executes code with filename visible to the
	// VM as the __FILE__ magic constant. On success it returns the value of
	// the last expression and pins it against garbage collection until the
	// next eval. On a fatal VM error it unwinds with a RaiseUnwind panic; it
	// never returns an error value in-band.
	EvalWithFilename(filename string, code []byte) Value
}

// Arena is the VM's GC-root stack snapshot/truncate primitive. Objects
// allocated through the embedding API are pushed onto the root stack;
// truncating back to a saved index makes everything above it collectable.
type Arena interface {
	// ArenaSave captures the current root stack depth.
	ArenaSave() (int, error)
	// ArenaRestore truncates the root stack back to index. Indices must be
	// restored in reverse order of capture; restoring out of order is
	// undefined behavior for the VM.
	ArenaRestore(index int)
}

// ErrorState manipulates the VM's pending-error slot.
type ErrorState interface {
	// PendingError returns the error object raised by the most recent call,
	// or nil-tagged value when none is pending.
	PendingError() Value
	// ClearPendingError resets the pending-error slot so the VM remains
	// usable for subsequent calls.
	ClearPendingError()
	// SetPendingError stores an exception object into the pending-error
	// slot. Used by the protected-call boundary after intercepting an
	// unwind.
	SetPendingError(v Value)
	// NewException allocates an exception object with the given class name
	// and message. The object is rooted on the arena stack.
	NewException(class string, message []byte) (Value, error)
	// Raise unwinds the VM with v as the in-flight exception. It never
	// returns. Callers must have released any host resources first.
	Raise(v Value)
}

// Introspection reads object state through the VM without running VM code.
// All methods fail softly with an error rather than unwinding so the
// exception bridge can report malformed error objects.
type Introspection interface {
	// ClassName returns the class name of any value.
	ClassName(v Value) (string, error)
	// ExceptionMessage returns the message bytes of an exception object.
	ExceptionMessage(v Value) ([]byte, error)
	// ExceptionBacktrace returns the backtrace frames of an exception
	// object, outermost last. A nil slice means the exception carries no
	// backtrace.
	ExceptionBacktrace(v Value) ([][]byte, error)
	// StringContents returns the bytes of a string-tagged value.
	StringContents(v Value) ([]byte, error)
	// DisplayString renders a value the way the VM's #to_s would.
	DisplayString(v Value) []byte
	// Inspect renders a value the way the VM's #inspect would.
	Inspect(v Value) []byte
}

// Allocator creates VM objects from host data. Allocated objects are rooted
// on the arena stack until the enclosing savepoint is restored.
type Allocator interface {
	// NewString allocates a VM string holding a copy of b.
	NewString(b []byte) Value
}

// Definer installs host-backed methods into the VM.
type Definer interface {
	// DefineNativeMethod makes fn callable from VM code under name. Dotted
	// names ("SecureRandom.hex") define a method on a namespace constant.
	DefineNativeMethod(name string, fn NativeFunc) error
}

// GC exposes collection control used during interpreter bootstrap and by
// liveness tests.
type GC interface {
	// FullGC runs a complete mark and sweep pass.
	FullGC()
	// IsDead reports whether a heap value has been reclaimed. Immediate
	// values are never dead.
	IsDead(v Value) bool
	// SetGCEnabled toggles collection and returns the prior setting.
	SetGCEnabled(enabled bool) bool
}

// Lines tracks the parser's line counter across successive evals so REPL
// style callers report accurate positions.
type Lines interface {
	// FetchLineno returns the line number the next eval will start at.
	FetchLineno() int
	// AddFetchLineno advances the line counter by delta and returns the new
	// value. It fails when the counter would overflow the VM's line limit.
	AddFetchLineno(delta int) (int, error)
}

// State is the full set of primitive entry points a shale VM exposes to the
// embedding layer. A State is owned by exactly one goroutine at a time; none
// of its methods may be invoked concurrently.
type State interface {
	Evaler
	Arena
	ErrorState
	Introspection
	Allocator
	Definer
	GC
	Lines
	io.Closer
}
