package interp

import (
	"fmt"

	"github.com/shale-lang/shale/engine"
)

// Value is a VM value paired with the interpreter that owns it. The inner
// boxed value is plain data; all structured access goes through the VM's
// introspection entry points so the host never touches VM memory directly.
type Value struct {
	interp *Interpreter
	inner  engine.Value
}

func (interp *Interpreter) value(v engine.Value) Value {
	return Value{interp: interp, inner: v}
}

// Inner exposes the raw boxed value for callers that hand it back to the VM.
func (v Value) Inner() engine.Value { return v.inner }

// Tag returns the VM type tag.
func (v Value) Tag() engine.Tag { return v.inner.Tag }

// IsNil reports whether the value is nil.
func (v Value) IsNil() bool { return v.inner.IsNil() }

// IsUnreachable reports whether the value carries the VM-internal undef tag.
func (v Value) IsUnreachable() bool { return v.inner.IsUnreachable() }

// Truthy reports Ruby truthiness.
func (v Value) Truthy() bool { return v.inner.Truthy() }

// TryString returns the value's bytes as a string when it is a VM string.
func (v Value) TryString() (string, error) {
	contents, err := v.interp.state.StringContents(v.inner)
	if err != nil {
		return "", fmt.Errorf("cannot convert %s to String: %w", v.inner.Tag, err)
	}
	return string(contents), nil
}

// TryInt returns the value as an int64 when it is a fixnum.
func (v Value) TryInt() (int64, error) {
	if v.inner.Tag != engine.TagFixnum {
		return 0, fmt.Errorf("cannot convert %s to Integer", v.inner.Tag)
	}
	return v.inner.Num, nil
}

// TryBool returns the value as a bool when it is a boolean singleton.
func (v Value) TryBool() (bool, error) {
	switch v.inner.Tag {
	case engine.TagTrue:
		return true, nil
	case engine.TagFalse:
		return false, nil
	default:
		return false, fmt.Errorf("cannot convert %s to Boolean", v.inner.Tag)
	}
}

// ToS renders the value the way the VM's #to_s would.
func (v Value) ToS() string { return string(v.interp.state.DisplayString(v.inner)) }

// Inspect renders the value the way the VM's #inspect would.
func (v Value) Inspect() string { return string(v.interp.state.Inspect(v.inner)) }

// IsDead reports whether the backing VM object has been garbage collected.
// Immediate values are never dead.
func (v Value) IsDead() bool { return v.interp.state.IsDead(v.inner) }
