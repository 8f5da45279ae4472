package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// persistTimeout bounds a single state write so a wedged store cannot stall
// the write path forever.
const persistTimeout = 2 * time.Second

// Persister stores timer state durably. SaveState runs after every mutation;
// RecordAttempt runs once per attempt finished by Reset.
type Persister interface {
	SaveState(ctx context.Context, st State) error
	RecordAttempt(ctx context.Context, attempt Attempt) error
}

// Reader is the read-only view of a Timer handed out under the read lock.
type Reader interface {
	Phase() Phase
	CurrentSplitIndex() int
	CurrentComparison() string
	TimingMethod() TimingMethod
	CurrentTime() Time
	Run() Run
	State() State
	Snapshot() StateView
}

// Shared guards one Timer for concurrent access from the window dispatcher,
// the global hotkey thread and the render loop.
//
// Lock ordering (never acquire in reverse):
//
//	writeMu -> mu
//
// mu is the reader/writer lock around the timer itself and is held for exactly
// one transition. writeMu serializes the whole write path, mutation plus
// persistence, so a state write always finishes before the next mutation is
// accepted. Readers only take mu and never wait on persistence.
type Shared struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	timer   *Timer
	persist Persister
}

// NewShared wraps t. persist may be nil.
func NewShared(t *Timer, persist Persister) *Shared {
	return &Shared{timer: t, persist: persist}
}

// Read runs fn under the read lock. fn must not retain r.
func (s *Shared) Read(fn func(r Reader)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.timer)
}

// Snapshot returns the current StateView under the read lock.
func (s *Shared) Snapshot() StateView {
	var view StateView
	s.Read(func(r Reader) { view = r.Snapshot() })
	return view
}

// Mutate runs one state transition under the write lock, releases it, and
// persists the resulting state before returning. Persistence failures are
// logged and otherwise ignored.
func (s *Shared) Mutate(fn func(t *Timer)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	st, finished, _ := s.transition(func(t *Timer) error {
		fn(t)
		return nil
	})
	s.persistLocked(st, finished)
}

// MutateErr is Mutate for transitions that can fail. The state is persisted
// only when fn succeeds.
func (s *Shared) MutateErr(fn func(t *Timer) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	st, finished, err := s.transition(fn)
	if err != nil {
		return err
	}
	s.persistLocked(st, finished)
	return nil
}

// transition runs fn under mu and captures the state to persist. mu is
// released even if fn panics. Caller must hold writeMu.
func (s *Shared) transition(fn func(t *Timer) error) (State, []Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn(s.timer)
	return s.timer.State(), s.timer.TakeFinishedAttempts(), err
}

// persistLocked writes st and the finished attempts. Caller must hold writeMu.
func (s *Shared) persistLocked(st State, finished []Attempt) {
	if s.persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	for _, attempt := range finished {
		if err := s.persist.RecordAttempt(ctx, attempt); err != nil {
			slog.Warn("[DEBUG-TIMER] failed to record attempt", "attempt", attempt.Number, "error", err)
		}
	}
	if err := s.persist.SaveState(ctx, st); err != nil {
		slog.Warn("[DEBUG-TIMER] failed to persist timer state", "error", err)
	}
}
