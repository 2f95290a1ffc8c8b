// Package optimistic runs toggle-style mutations (favorite, comment like)
// optimistically: local state flips before the remote call and is rolled
// back when the call fails. Each target id gets its own small state
// machine: Idle -> Pending -> Committed | RolledBack.
package optimistic

import (
	"context"
	"sync"
	"sync/atomic"
)

type State int

const (
	Idle State = iota
	Pending
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	default:
		return "idle"
	}
}

// Op is one optimistic toggle against a single target.
type Op struct {
	Key int64
	// Apply flips the local state. It runs before Remote is issued.
	Apply func()
	// Remote commits the flip server-side.
	Remote func(ctx context.Context) error
	// Rollback restores the pre-flip state after a Remote failure.
	Rollback func()
}

// Toggler serializes toggles per target: a second toggle on the same key
// queues behind the first, so the last-issued toggle settles last and its
// result is what the user ends up seeing. Distinct keys proceed
// independently.
type Toggler struct {
	mu   sync.Mutex
	keys map[int64]*target
	gen  uint64
}

// target's mu serializes toggles; state is atomic so StateOf can read it
// while a toggle holds mu.
type target struct {
	mu    sync.Mutex
	state atomic.Int32
}

func NewToggler() *Toggler {
	return &Toggler{keys: make(map[int64]*target)}
}

// Do runs one toggle through the state machine and returns the Remote
// error, if any. The local flip has already been reverted by the time a
// non-nil error is returned.
func (t *Toggler) Do(ctx context.Context, op Op) error {
	tgt, gen := t.acquire(op.Key)
	tgt.mu.Lock()
	defer tgt.mu.Unlock()

	tgt.state.Store(int32(Pending))
	op.Apply()

	if err := op.Remote(ctx); err != nil {
		// Skip the rollback when the owning state was invalidated (for
		// example by logout) while the request was in flight; reverting
		// would resurrect state that no longer exists.
		if t.currentGen() == gen {
			op.Rollback()
		}
		tgt.state.Store(int32(RolledBack))
		return err
	}
	tgt.state.Store(int32(Committed))
	return nil
}

// StateOf reports the target's last machine state.
func (t *Toggler) StateOf(key int64) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tgt, ok := t.keys[key]; ok {
		return State(tgt.state.Load())
	}
	return Idle
}

// Invalidate marks every in-flight toggle stale. Settling requests will
// neither roll back nor touch the owning state afterwards.
func (t *Toggler) Invalidate() {
	t.mu.Lock()
	t.gen++
	t.mu.Unlock()
}

func (t *Toggler) acquire(key int64) (*target, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tgt, ok := t.keys[key]
	if !ok {
		tgt = &target{}
		t.keys[key] = tgt
	}
	return tgt, t.gen
}

func (t *Toggler) currentGen() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}
