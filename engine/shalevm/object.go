package shalevm

import (
	"strconv"

	"github.com/shale-lang/shale/engine"
)

type objectKind uint8

const (
	objString objectKind = iota
	objException
)

// object is a VM heap allocation. Objects are owned by the state that
// allocated them and are reclaimed by mark and sweep; dead objects keep their
// header so stale host references can be detected with IsDead.
type object struct {
	kind      objectKind
	class     string
	bytes     []byte
	backtrace [][]byte
	marked    bool
	dead      bool
}

func (o *object) value() engine.Value {
	switch o.kind {
	case objException:
		return engine.Value{Tag: engine.TagException, Ref: o}
	default:
		return engine.Value{Tag: engine.TagString, Ref: o}
	}
}

// deref returns the heap object behind a value, or nil for immediates and
// foreign references.
func deref(v engine.Value) *object {
	o, _ := v.Ref.(*object)
	return o
}

func displayBytes(v engine.Value) []byte {
	switch v.Tag {
	case engine.TagNil:
		return nil
	case engine.TagTrue:
		return []byte("true")
	case engine.TagFalse:
		return []byte("false")
	case engine.TagFixnum:
		return strconv.AppendInt(nil, v.Num, 10)
	case engine.TagString, engine.TagException:
		if o := deref(v); o != nil {
			out := make([]byte, len(o.bytes))
			copy(out, o.bytes)
			return out
		}
		return nil
	default:
		return nil
	}
}

func inspectBytes(v engine.Value) []byte {
	switch v.Tag {
	case engine.TagNil:
		return []byte("nil")
	case engine.TagString:
		if o := deref(v); o != nil {
			return strconv.AppendQuote(nil, string(o.bytes))
		}
		return []byte(`""`)
	case engine.TagException:
		if o := deref(v); o != nil {
			out := make([]byte, 0, len(o.class)+len(o.bytes)+4)
			out = append(out, "#<"...)
			out = append(out, o.class...)
			out = append(out, ": "...)
			out = append(out, o.bytes...)
			out = append(out, '>')
			return out
		}
		return []byte("#<Exception>")
	default:
		return displayBytes(v)
	}
}

// className maps a value to the name of its class the way the VM's
// introspection reports it.
func className(v engine.Value) (string, bool) {
	switch v.Tag {
	case engine.TagNil:
		return "NilClass", true
	case engine.TagTrue:
		return "TrueClass", true
	case engine.TagFalse:
		return "FalseClass", true
	case engine.TagFixnum:
		return "Integer", true
	case engine.TagString:
		return "String", true
	case engine.TagException:
		if o := deref(v); o != nil {
			return o.class, true
		}
		return "", false
	default:
		return "", false
	}
}
