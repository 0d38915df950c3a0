package interp

import (
	"errors"
	"path"

	"go.uber.org/zap"
)

// NativeInitializer is host code run when a registered source is required or
// loaded, before any script body for the same name. It typically defines
// native methods.
type NativeInitializer func(*Interpreter) error

// sourceUnit is one provider registered for a resolved source path. A unit
// may carry a native initializer, a script body, or both; the native
// initializer always runs first so script code can depend on native-defined
// scaffolding.
type sourceUnit struct {
	native NativeInitializer
	script []byte
}

// DefineScriptSource registers contents as the script body for name.
// Bare names are rooted under the configured search root.
func (interp *Interpreter) DefineScriptSource(name string, contents []byte) error {
	if interp.closed {
		return ErrClosed
	}
	resolved := interp.canonicalize(name, "")
	unit := interp.sources[resolved]
	if unit == nil {
		unit = &sourceUnit{}
		interp.sources[resolved] = unit
	}
	unit.script = contents
	return nil
}

// DefineNativeSource registers init as the native initializer for name.
func (interp *Interpreter) DefineNativeSource(name string, init NativeInitializer) error {
	if interp.closed {
		return ErrClosed
	}
	resolved := interp.canonicalize(name, "")
	unit := interp.sources[resolved]
	if unit == nil {
		unit = &sourceUnit{}
		interp.sources[resolved] = unit
	}
	unit.native = init
	return nil
}

// Require resolves name and executes its providers at most once per
// interpreter. It returns true when the source was newly executed, false
// when a previous Require already satisfied it. The name is marked satisfied
// only when every provider succeeds, so a failed require can be retried.
func (interp *Interpreter) Require(name string) (bool, error) {
	executed, err := interp.require(name, "")
	if errors.Is(err, errAlreadySatisfied) {
		return false, nil
	}
	return executed, err
}

// RequireRelative is Require with bare names resolved against the directory
// of the active eval context's filename instead of the search root.
func (interp *Interpreter) RequireRelative(name string) (bool, error) {
	base := path.Dir(interp.evalFilename())
	executed, err := interp.require(name, base)
	if errors.Is(err, errAlreadySatisfied) {
		return false, nil
	}
	return executed, err
}

// Load resolves name and executes its providers unconditionally. It never
// consults or mutates the required set.
func (interp *Interpreter) Load(name string) error {
	if interp.closed {
		return ErrClosed
	}
	resolved, unit, err := interp.resolveSource(name, "")
	if err != nil {
		return err
	}
	interp.log.Debug("loading source", zap.String("name", name), zap.String("resolved", resolved))
	return interp.runSource(resolved, unit)
}

func (interp *Interpreter) require(name, relativeBase string) (bool, error) {
	if interp.closed {
		return false, ErrClosed
	}
	resolved, unit, err := interp.resolveSource(name, relativeBase)
	if err != nil {
		return false, err
	}
	if _, ok := interp.required[resolved]; ok {
		return false, errAlreadySatisfied
	}
	interp.log.Debug("requiring source", zap.String("name", name), zap.String("resolved", resolved))
	if err := interp.runSource(resolved, unit); err != nil {
		return false, err
	}
	interp.required[resolved] = struct{}{}
	return true, nil
}

// runSource executes a unit's native initializer, then its script body under
// a context reporting the resolved path.
func (interp *Interpreter) runSource(resolved string, unit *sourceUnit) error {
	if unit.native != nil {
		if err := unit.native(interp); err != nil {
			return &LoadFatalError{Name: resolved, Err: err}
		}
	}
	if unit.script != nil {
		if _, err := interp.EvalWithContext(unit.script, NewContext(resolved)); err != nil {
			return err
		}
	}
	return nil
}

// resolveSource maps a logical name to a registered unit. Absolute names
// resolve directly; bare names resolve against relativeBase when given,
// otherwise against the search root. A missing ".rb" extension is supplied.
func (interp *Interpreter) resolveSource(name, relativeBase string) (string, *sourceUnit, error) {
	if name == "" {
		return "", nil, &CannotLoadError{Name: name}
	}
	resolved := interp.canonicalize(name, relativeBase)
	for _, candidate := range []string{resolved, resolved + ".rb"} {
		if unit, ok := interp.sources[candidate]; ok {
			return candidate, unit, nil
		}
	}
	return "", nil, &CannotLoadError{Name: name}
}

func (interp *Interpreter) canonicalize(name, relativeBase string) string {
	switch {
	case path.IsAbs(name):
		return path.Clean(name)
	case relativeBase != "":
		return path.Clean(path.Join(relativeBase, name))
	default:
		return path.Clean(path.Join(interp.cfg.SearchRoot, name))
	}
}

// SourceRequired reports whether a previous Require satisfied name.
func (interp *Interpreter) SourceRequired(name string) bool {
	resolved, _, err := interp.resolveSource(name, "")
	if err != nil {
		return false
	}
	_, ok := interp.required[resolved]
	return ok
}
