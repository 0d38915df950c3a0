// Package interp provides a safe embedding layer over an engine.State. All
// interaction with an interpreter funnels through a protected execution
// boundary that converts engine unwinds into Go errors, so host code never
// observes a panic escaping from evaluated code.
package interp

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/shale-lang/shale/engine"
)

// Interpreter owns one engine state and the host-side bookkeeping layered on
// top of it: the eval context stack, the registered source set, and the
// record of sources already satisfied by Require. It is not safe for
// concurrent use.
type Interpreter struct {
	state  engine.State
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer
	cfg    Config

	contextStack []Context
	sources      map[string]*sourceUnit
	required     map[string]struct{}
	extensions   []NativeInitializer

	closed bool
}

// Option configures an Interpreter before its engine state is created.
type Option func(*Interpreter)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(interp *Interpreter) {
		interp.log = log
	}
}

// WithOutput sets the writer used by output primitives such as puts.
func WithOutput(w io.Writer) Option {
	return func(interp *Interpreter) {
		interp.out = w
	}
}

// WithErrorOutput sets the writer used by diagnostic primitives such as
// warn.
func WithErrorOutput(w io.Writer) Option {
	return func(interp *Interpreter) {
		interp.errOut = w
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(interp *Interpreter) {
		interp.cfg = cfg
	}
}

// WithExtensions appends native initializers run once during bootstrap,
// before any user code is evaluated.
func WithExtensions(exts ...NativeInitializer) Option {
	return func(interp *Interpreter) {
		interp.extensions = append(interp.extensions, exts...)
	}
}

// New creates an engine state, bootstraps it, and wraps it in an
// Interpreter. The returned interpreter must be closed to release the
// engine.
func New(opts ...Option) (*Interpreter, error) {
	interp := &Interpreter{
		log:      zap.NewNop(),
		out:      os.Stdout,
		errOut:   os.Stderr,
		sources:  make(map[string]*sourceUnit),
		required: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(interp)
	}
	interp.cfg.Default()
	if err := interp.cfg.Validate(); err != nil {
		return nil, err
	}

	state, err := engine.New(interp.cfg.Engine, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInterpreterAlloc, err)
	}
	interp.state = state

	if err := interp.bootstrap(); err != nil {
		return nil, multierr.Append(err, state.Close())
	}
	return interp, nil
}

// bootstrap prepares a fresh engine state for use. Collection is suspended
// while extensions define their methods and constants, then a throwaway eval
// settles the engine before collection is re-enabled and a full pass
// reclaims any garbage produced along the way.
func (interp *Interpreter) bootstrap() error {
	prior := interp.state.SetGCEnabled(false)

	for _, ext := range interp.extensions {
		if err := ext(interp); err != nil {
			return fmt.Errorf("%w: %v", ErrInterpreterAlloc, err)
		}
	}
	if _, err := interp.Eval([]byte("")); err != nil {
		return fmt.Errorf("%w: %v", ErrInterpreterAlloc, err)
	}

	interp.state.SetGCEnabled(prior)
	interp.state.FullGC()
	interp.log.Debug("interpreter bootstrapped",
		zap.String("engine", interp.cfg.Engine),
		zap.Int("extensions", len(interp.extensions)))
	return nil
}

// Output returns the writer configured for output primitives.
func (interp *Interpreter) Output() io.Writer {
	return interp.out
}

// ErrorOutput returns the writer configured for diagnostic primitives.
func (interp *Interpreter) ErrorOutput() io.Writer {
	return interp.errOut
}

// Logger returns the interpreter's structured logger.
func (interp *Interpreter) Logger() *zap.Logger {
	return interp.log
}

// State exposes the underlying engine for native method implementations.
func (interp *Interpreter) State() engine.State {
	return interp.state
}

// DefineNativeMethod registers fn with the engine under name.
func (interp *Interpreter) DefineNativeMethod(name string, fn engine.NativeFunc) error {
	if interp.closed {
		return ErrClosed
	}
	return interp.state.DefineNativeMethod(name, fn)
}

// FullGC triggers a complete collection pass on the engine.
func (interp *Interpreter) FullGC() error {
	if interp.closed {
		return ErrClosed
	}
	interp.state.FullGC()
	return nil
}

// Close releases the engine state. Further use of the interpreter returns
// ErrClosed. Close is idempotent.
func (interp *Interpreter) Close() error {
	if interp.closed {
		return nil
	}
	interp.closed = true
	var err error
	if interp.state != nil {
		err = multierr.Append(err, interp.state.Close())
	}
	return err
}
