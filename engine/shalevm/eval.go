package shalevm

import (
	"bytes"
	"fmt"

	"github.com/shale-lang/shale/engine"
)

// frame is one entry of the VM call stack, used to build exception
// backtraces.
type frame struct {
	file string
	line int
}

func (s *state) currentBacktrace() [][]byte {
	bt := make([][]byte, 0, len(s.callStack))
	for i := len(s.callStack) - 1; i >= 0; i-- {
		f := s.callStack[i]
		bt = append(bt, []byte(fmt.Sprintf("%s:%d", f.file, f.line)))
	}
	return bt
}

// raiseError allocates an exception and unwinds with it. The fatal-error path
// of the whole VM: control does not return to the caller.
func (s *state) raiseError(class, message string) {
	obj := s.allocException(class, []byte(message), s.currentBacktrace())
	s.Raise(obj.value())
}

func (s *state) evalProgram(prog []node) engine.Value {
	result := engine.Nil()
	for _, stmt := range prog {
		result = s.evalNode(stmt)
	}
	return result
}

func (s *state) markLine(n node) {
	if len(s.callStack) > 0 {
		s.callStack[len(s.callStack)-1].line = n.pos().line
	}
}

func (s *state) evalNode(n node) engine.Value {
	s.markLine(n)
	switch n := n.(type) {
	case *intLit:
		return engine.Fixnum(n.val)
	case *strLit:
		return s.allocString([]byte(n.val)).value()
	case *boolLit:
		return engine.Bool(n.val)
	case *nilLit:
		return engine.Nil()
	case *fileLit:
		return s.allocString([]byte(n.pos().file)).value()
	case *gvarRef:
		if v, ok := s.globals[n.name]; ok {
			return v
		}
		return engine.Nil()
	case *ivarRef:
		if v, ok := s.ivars[n.name]; ok {
			return v
		}
		return engine.Nil()
	case *identRef:
		return s.evalIdent(n)
	case *assignNode:
		return s.evalAssign(n)
	case *binopNode:
		return s.evalBinop(n)
	case *negNode:
		v := s.evalNode(n.operand)
		if v.Tag != engine.TagFixnum {
			s.raiseError("NoMethodError", fmt.Sprintf("undefined method '-@' for %s", typeName(v)))
		}
		return engine.Fixnum(-v.Num)
	case *callNode:
		return s.evalCall(n)
	case *raiseNode:
		return s.evalRaise(n)
	case *defNode:
		s.methods[n.name] = n
		return engine.Nil()
	default:
		s.raiseError("ScriptError", "unknown node")
		return engine.Nil()
	}
}

func (s *state) evalIdent(n *identRef) engine.Value {
	if v, ok := s.locals[n.name]; ok {
		return v
	}
	if def, ok := s.methods[n.name]; ok {
		return s.callMethod(def)
	}
	if fn, ok := s.natives[n.name]; ok {
		return s.callNative(fn, nil)
	}
	s.raiseError("NameError", fmt.Sprintf("undefined local variable or method '%s' for main", n.name))
	return engine.Nil()
}

func (s *state) evalAssign(n *assignNode) engine.Value {
	v := s.evalNode(n.value)
	switch target := n.target.(type) {
	case *gvarRef:
		s.globals[target.name] = v
	case *ivarRef:
		s.ivars[target.name] = v
	case *identRef:
		s.locals[target.name] = v
	}
	return v
}

func (s *state) evalCall(n *callNode) engine.Value {
	name := n.name
	if n.recv != "" {
		name = n.recv + "." + n.name
	}
	args := make([]engine.Value, len(n.args))
	for i, a := range n.args {
		args[i] = s.evalNode(a)
	}
	s.markLine(n)
	if n.recv == "" {
		if def, ok := s.methods[name]; ok {
			if len(args) != 0 {
				s.raiseError("ArgumentError", fmt.Sprintf("wrong number of arguments (given %d, expected 0)", len(args)))
			}
			return s.callMethod(def)
		}
	}
	if fn, ok := s.natives[name]; ok {
		return s.callNative(fn, args)
	}
	s.raiseError("NoMethodError", fmt.Sprintf("undefined method '%s' for main", name))
	return engine.Nil()
}

// callMethod runs a user-defined method body with fresh locals. The caller's
// position stays on the call stack below the new frame so backtraces show the
// call site.
func (s *state) callMethod(def *defNode) engine.Value {
	if len(s.callStack) >= maxCallDepth {
		s.raiseError("SystemStackError", "stack level too deep")
	}
	s.callStack = append(s.callStack, frame{file: def.pos().file, line: def.pos().line})
	savedLocals := s.locals
	s.locals = make(map[string]engine.Value)
	defer func() {
		s.locals = savedLocals
		s.callStack = s.callStack[:len(s.callStack)-1]
	}()
	return s.evalProgram(def.body)
}

// callNative hands control to host code. Host functions may re-enter the VM
// (nested evals) or unwind via Raise.
func (s *state) callNative(fn engine.NativeFunc, args []engine.Value) engine.Value {
	return fn(s, args)
}

func (s *state) evalRaise(n *raiseNode) engine.Value {
	class := n.class
	if class == "" {
		class = "RuntimeError"
	}
	message := "unhandled exception"
	if n.arg != nil {
		v := s.evalNode(n.arg)
		s.markLine(n)
		if v.Tag == engine.TagException {
			s.Raise(v)
		}
		message = string(displayBytes(v))
	}
	s.raiseError(class, message)
	return engine.Nil()
}

func typeName(v engine.Value) string {
	name, ok := className(v)
	if !ok {
		return "Object"
	}
	return name
}

func (s *state) evalBinop(n *binopNode) engine.Value {
	lhs := s.evalNode(n.lhs)
	rhs := s.evalNode(n.rhs)
	s.markLine(n)
	switch n.op {
	case tkEq:
		return engine.Bool(valueEqual(lhs, rhs))
	case tkNe:
		return engine.Bool(!valueEqual(lhs, rhs))
	}

	switch lhs.Tag {
	case engine.TagFixnum:
		if rhs.Tag != engine.TagFixnum {
			s.raiseError("TypeError", fmt.Sprintf("%s can't be coerced into Integer", typeName(rhs)))
		}
		return s.fixnumOp(n.op, lhs.Num, rhs.Num)
	case engine.TagString:
		return s.stringOp(n.op, lhs, rhs)
	default:
		s.raiseError("NoMethodError", fmt.Sprintf("undefined method '%s' for %s", opName(n.op), typeName(lhs)))
	}
	return engine.Nil()
}

func valueEqual(lhs, rhs engine.Value) bool {
	if lhs.Tag != rhs.Tag {
		return false
	}
	switch lhs.Tag {
	case engine.TagFixnum:
		return lhs.Num == rhs.Num
	case engine.TagString:
		lo, ro := deref(lhs), deref(rhs)
		return lo != nil && ro != nil && bytes.Equal(lo.bytes, ro.bytes)
	default:
		return lhs.Ref == rhs.Ref
	}
}

func (s *state) fixnumOp(op tokenKind, a, b int64) engine.Value {
	switch op {
	case tkPlus:
		return engine.Fixnum(a + b)
	case tkMinus:
		return engine.Fixnum(a - b)
	case tkStar:
		return engine.Fixnum(a * b)
	case tkSlash:
		if b == 0 {
			s.raiseError("ZeroDivisionError", "divided by 0")
		}
		return engine.Fixnum(a / b)
	case tkPercent:
		if b == 0 {
			s.raiseError("ZeroDivisionError", "divided by 0")
		}
		return engine.Fixnum(a % b)
	case tkLt:
		return engine.Bool(a < b)
	case tkGt:
		return engine.Bool(a > b)
	case tkLe:
		return engine.Bool(a <= b)
	case tkGe:
		return engine.Bool(a >= b)
	}
	s.raiseError("NoMethodError", fmt.Sprintf("undefined method '%s' for Integer", opName(op)))
	return engine.Nil()
}

func (s *state) stringOp(op tokenKind, lhs, rhs engine.Value) engine.Value {
	lo := deref(lhs)
	switch op {
	case tkPlus:
		if rhs.Tag != engine.TagString {
			s.raiseError("TypeError", fmt.Sprintf("no implicit conversion of %s into String", typeName(rhs)))
		}
		ro := deref(rhs)
		joined := make([]byte, 0, len(lo.bytes)+len(ro.bytes))
		joined = append(joined, lo.bytes...)
		joined = append(joined, ro.bytes...)
		return s.alloc(&object{kind: objString, bytes: joined}).value()
	case tkStar:
		if rhs.Tag != engine.TagFixnum {
			s.raiseError("TypeError", fmt.Sprintf("no implicit conversion of %s into Integer", typeName(rhs)))
		}
		if rhs.Num < 0 {
			s.raiseError("ArgumentError", "negative argument")
		}
		repeated := bytes.Repeat(lo.bytes, int(rhs.Num))
		return s.alloc(&object{kind: objString, bytes: repeated}).value()
	case tkLt, tkGt, tkLe, tkGe:
		if rhs.Tag != engine.TagString {
			s.raiseError("ArgumentError", fmt.Sprintf("comparison of String with %s failed", string(inspectBytes(rhs))))
		}
		cmp := bytes.Compare(lo.bytes, deref(rhs).bytes)
		switch op {
		case tkLt:
			return engine.Bool(cmp < 0)
		case tkGt:
			return engine.Bool(cmp > 0)
		case tkLe:
			return engine.Bool(cmp <= 0)
		default:
			return engine.Bool(cmp >= 0)
		}
	}
	s.raiseError("NoMethodError", fmt.Sprintf("undefined method '%s' for String", opName(op)))
	return engine.Nil()
}

func opName(op tokenKind) string {
	names := map[tokenKind]string{
		tkPlus: "+", tkMinus: "-", tkStar: "*", tkSlash: "/", tkPercent: "%",
		tkLt: "<", tkGt: ">", tkLe: "<=", tkGe: ">=", tkEq: "==", tkNe: "!=",
	}
	if name, ok := names[op]; ok {
		return name
	}
	return "?"
}
