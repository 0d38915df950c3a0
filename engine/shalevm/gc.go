package shalevm

import "github.com/shale-lang/shale/engine"

// The VM keeps natively-created objects alive through the arena, a stack of
// GC roots. Every allocation made while the embedding layer drives the VM is
// pushed onto it; truncating the stack back to a savepoint makes everything
// above the savepoint collectable at the next sweep.
//
// The most recent eval result is pinned independently of the arena so the
// host can always read it back, mirroring the "stack keep" behavior of
// mruby-style load entry points.

// alloc registers a new heap object and roots it on the arena stack.
func (s *state) alloc(o *object) *object {
	s.objects = append(s.objects, o)
	s.arena = append(s.arena, o)
	return o
}

func (s *state) allocString(b []byte) *object {
	contents := make([]byte, len(b))
	copy(contents, b)
	return s.alloc(&object{kind: objString, bytes: contents})
}

func (s *state) allocException(class string, message []byte, backtrace [][]byte) *object {
	contents := make([]byte, len(message))
	copy(contents, message)
	return s.alloc(&object{kind: objException, class: class, bytes: contents, backtrace: backtrace})
}

func markValue(v engine.Value) {
	if o := deref(v); o != nil {
		o.marked = true
	}
}

// FullGC runs a complete mark and sweep pass. Collection roots are the arena
// stack, the pending-error slot, the pinned last eval result, top-level
// locals, and global and instance variable tables. No-op while collection is
// disabled.
func (s *state) FullGC() {
	if !s.gcEnabled || s.closed {
		return
	}
	for _, o := range s.arena {
		o.marked = true
	}
	if s.exc != nil {
		s.exc.marked = true
	}
	markValue(s.lastResult)
	for _, v := range s.locals {
		markValue(v)
	}
	for _, v := range s.globals {
		markValue(v)
	}
	for _, v := range s.ivars {
		markValue(v)
	}

	live := s.objects[:0]
	for _, o := range s.objects {
		if o.marked {
			o.marked = false
			live = append(live, o)
		} else {
			o.dead = true
		}
	}
	s.objects = live
}

// IsDead reports whether a heap value has been swept. Immediates are never
// dead.
func (s *state) IsDead(v engine.Value) bool {
	o := deref(v)
	return o != nil && o.dead
}

// SetGCEnabled toggles collection and returns the prior setting.
func (s *state) SetGCEnabled(enabled bool) bool {
	prior := s.gcEnabled
	s.gcEnabled = enabled
	return prior
}

// ArenaSave captures the current GC-root stack depth.
func (s *state) ArenaSave() (int, error) {
	if s.closed {
		return 0, engine.ErrArenaUnavailable
	}
	return len(s.arena), nil
}

// ArenaRestore truncates the GC-root stack back to index. Objects above the
// index stay allocated until the next sweep.
func (s *state) ArenaRestore(index int) {
	if s.closed || index < 0 || index > len(s.arena) {
		return
	}
	s.arena = s.arena[:index]
}
