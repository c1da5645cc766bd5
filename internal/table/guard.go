package table

import (
	"context"
	"errors"
	"sync"
)

// Phase is the lifecycle of one guarded action invocation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	}
	return "idle"
}

// ErrInFlight is returned when the same invocation is already running.
var ErrInFlight = errors.New("action already in flight")

// maxSettled bounds how many done or failed keys a Guard remembers.
const maxSettled = 1024

// Guard rejects a second invocation of the same key until the first settles.
// A settled key (done or failed) may be run again. Settled keys are pruned
// once more than maxSettled of them accumulate.
type Guard struct {
	mu      sync.Mutex
	phases  map[string]Phase
	settled int
}

func NewGuard() *Guard {
	return &Guard{phases: make(map[string]Phase)}
}

func (g *Guard) Phase(key string) Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phases[key]
}

func (g *Guard) Pending(key string) bool {
	return g.Phase(key) == PhasePending
}

// Do runs fn under key. It returns ErrInFlight without calling fn when an
// invocation with the same key is pending. A panicking fn leaves the key
// failed and the panic propagates.
func (g *Guard) Do(ctx context.Context, key string, fn func(context.Context) error) (err error) {
	g.mu.Lock()
	prev, seen := g.phases[key]
	if prev == PhasePending {
		g.mu.Unlock()
		return ErrInFlight
	}
	if seen {
		g.settled--
	}
	g.phases[key] = PhasePending
	g.mu.Unlock()

	ok := false
	defer func() {
		phase := PhaseDone
		if !ok || err != nil {
			phase = PhaseFailed
		}
		g.settle(key, phase)
	}()

	err = fn(ctx)
	ok = true
	return err
}

func (g *Guard) settle(key string, phase Phase) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.phases[key] = phase
	g.settled++
	if g.settled <= maxSettled {
		return
	}
	for k, p := range g.phases {
		if p != PhasePending && k != key {
			delete(g.phases, k)
		}
	}
	g.settled = 1
}

// Forget drops the recorded phase of a settled key.
func (g *Guard) Forget(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.phases[key]; ok && p != PhasePending {
		delete(g.phases, key)
		g.settled--
	}
}

// Guarded wraps an action so each (action, row) pair runs at most once at a
// time and renders disabled while pending. Records without a stable id are
// not guarded, since they cannot be told apart.
func Guarded[T Record](g *Guard, a Action[T]) Action[T] {
	key := func(rec T) (string, bool) {
		id, ok := any(rec).(Identifier)
		if !ok || id.RowID() == "" {
			return "", false
		}
		return a.ID + "/" + id.RowID(), true
	}
	disabled := a.Disabled
	onClick := a.OnClick
	a.Disabled = func(rec T) bool {
		if k, ok := key(rec); ok && g.Pending(k) {
			return true
		}
		return disabled != nil && disabled(rec)
	}
	if onClick != nil {
		a.OnClick = func(ctx context.Context, rec T) error {
			k, ok := key(rec)
			if !ok {
				return onClick(ctx, rec)
			}
			return g.Do(ctx, k, func(ctx context.Context) error {
				return onClick(ctx, rec)
			})
		}
	}
	return a
}
