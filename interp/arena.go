package interp

import (
	"fmt"

	"github.com/shale-lang/shale/engine"
)

// ArenaSavepoint is a savepoint into the VM's GC-root stack.
//
// The VM keeps objects created through the embedding API permanently alive on
// a root stack so the host never tracks lifetimes for it. Restoring a
// savepoint truncates the stack back to where it was captured, making every
// object pushed since eligible for collection at the next GC pass, except
// the most recent eval result, which the VM pins independently.
//
// Always arrange restoration with defer so every exit path releases the
// savepoint, and release savepoints in reverse order of capture:
//
//	arena, err := interp.ArenaSavepoint()
//	if err != nil { ... }
//	defer arena.Restore()
type ArenaSavepoint struct {
	state    engine.State
	index    int
	restored bool
}

// ArenaSavepoint captures the current GC-root stack depth.
//
// The returned error wraps ErrArenaUnavailable when the VM cannot snapshot
// its root stack; this is fatal to the current operation but leaves the
// interpreter usable.
func (interp *Interpreter) ArenaSavepoint() (*ArenaSavepoint, error) {
	if interp.closed {
		return nil, ErrClosed
	}
	index, err := interp.state.ArenaSave()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArenaUnavailable, err)
	}
	return &ArenaSavepoint{state: interp.state, index: index}, nil
}

// Restore truncates the VM's GC-root stack back to the savepoint. Calling it
// more than once is a no-op: the savepoint is released exactly once.
func (a *ArenaSavepoint) Restore() {
	if a == nil || a.restored {
		return
	}
	a.restored = true
	a.state.ArenaRestore(a.index)
}
