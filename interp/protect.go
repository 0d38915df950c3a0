package interp

import "github.com/shale-lang/shale/engine"

// protect bundles everything a VM entry point needs to run behind the
// protection boundary. It must stay plain data: the call can terminate by a
// VM unwind, which skips every host frame between the entry point and the
// boundary, so nothing here may require cleanup to run for correctness.
type protect struct {
	state    engine.State
	filename string
	code     []byte
}

type outcome uint8

const (
	// outcomeOK means the entry point returned a value normally.
	outcomeOK outcome = iota
	// outcomeRaised means the VM unwound; the exception object has been
	// stored into the VM's pending-error slot for the exception bridge.
	outcomeRaised
	// outcomeFailure means the protection mechanism itself could not be
	// engaged and the entry point never ran.
	outcomeFailure
)

// run executes the eval entry point behind the single legitimate catch point
// for VM unwinds. A checked caller passes the outcome to the exception
// bridge; an unchecked caller may re-raise.
//
// Only engine.RaiseUnwind panics are intercepted. Anything else crossing the
// boundary is a host bug and is re-thrown.
func (p protect) run() (value engine.Value, out outcome) {
	if p.state == nil {
		return engine.Nil(), outcomeFailure
	}
	defer func() {
		if r := recover(); r != nil {
			unwind, ok := r.(*engine.RaiseUnwind)
			if !ok {
				panic(r)
			}
			p.state.SetPendingError(unwind.Exception)
			value = unwind.Exception
			out = outcomeRaised
		}
	}()
	return p.state.EvalWithFilename(p.filename, p.code), outcomeOK
}
