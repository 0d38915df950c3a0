package interp

import (
	"go.uber.org/zap"

	"github.com/shale-lang/shale/engine"
)

// stubState is a scriptable engine.State for exercising the failure paths of
// the embedding layer without a real VM.
type stubState struct {
	evalFn func(filename string, code []byte) engine.Value

	pending engine.Value

	class        string
	message      []byte
	backtrace    [][]byte
	classErr     error
	messageErr   error
	backtraceErr error

	arenaErr      error
	arenaDepth    int
	arenaRestores []int

	calls []string
}

func newStubState() *stubState {
	return &stubState{pending: engine.Nil()}
}

func (s *stubState) record(call string) { s.calls = append(s.calls, call) }

func (s *stubState) EvalWithFilename(filename string, code []byte) engine.Value {
	s.record("eval")
	if s.evalFn != nil {
		return s.evalFn(filename, code)
	}
	return engine.Nil()
}

func (s *stubState) ArenaSave() (int, error) {
	s.record("arena_save")
	if s.arenaErr != nil {
		return 0, s.arenaErr
	}
	s.arenaDepth++
	return s.arenaDepth, nil
}

func (s *stubState) ArenaRestore(index int) {
	s.record("arena_restore")
	s.arenaRestores = append(s.arenaRestores, index)
}

func (s *stubState) PendingError() engine.Value { return s.pending }

func (s *stubState) ClearPendingError() {
	s.record("clear_pending")
	s.pending = engine.Nil()
}

func (s *stubState) SetPendingError(v engine.Value) {
	s.record("set_pending")
	s.pending = v
}

func (s *stubState) NewException(class string, message []byte) (engine.Value, error) {
	return engine.Value{Tag: engine.TagException, Ref: string(message)}, nil
}

func (s *stubState) Raise(v engine.Value) {
	s.record("raise")
	panic(&engine.RaiseUnwind{Exception: v})
}

func (s *stubState) ClassName(v engine.Value) (string, error) {
	if s.classErr != nil {
		return "", s.classErr
	}
	return s.class, nil
}

func (s *stubState) ExceptionMessage(v engine.Value) ([]byte, error) {
	if s.messageErr != nil {
		return nil, s.messageErr
	}
	return s.message, nil
}

func (s *stubState) ExceptionBacktrace(v engine.Value) ([][]byte, error) {
	if s.backtraceErr != nil {
		return nil, s.backtraceErr
	}
	return s.backtrace, nil
}

func (s *stubState) StringContents(v engine.Value) ([]byte, error) {
	if v.Tag != engine.TagString {
		return nil, engine.ErrNotAString
	}
	contents, _ := v.Ref.([]byte)
	return contents, nil
}

func (s *stubState) DisplayString(v engine.Value) []byte {
	contents, _ := v.Ref.([]byte)
	return contents
}

func (s *stubState) Inspect(v engine.Value) []byte {
	contents, _ := v.Ref.([]byte)
	return contents
}

func (s *stubState) NewString(b []byte) engine.Value {
	return engine.Value{Tag: engine.TagString, Ref: b}
}

func (s *stubState) DefineNativeMethod(name string, fn engine.NativeFunc) error { return nil }

func (s *stubState) FullGC() {}

func (s *stubState) IsDead(v engine.Value) bool { return false }

func (s *stubState) SetGCEnabled(enabled bool) bool { return true }

func (s *stubState) FetchLineno() int { return 1 }

func (s *stubState) AddFetchLineno(delta int) (int, error) { return 1 + delta, nil }

func (s *stubState) Close() error {
	s.record("close")
	return nil
}

// newStubInterpreter wires a stub state into an otherwise inert Interpreter.
func newStubInterpreter(s *stubState) *Interpreter {
	i := &Interpreter{
		state:    s,
		sources:  make(map[string]*sourceUnit),
		required: make(map[string]struct{}),
	}
	i.log = zap.NewNop()
	i.cfg.Default()
	return i
}
