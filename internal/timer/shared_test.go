package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type recordingPersister struct {
	log      *eventLog
	block    chan struct{}
	saveErr  error
	mu       sync.Mutex
	states   []State
	attempts []Attempt
}

func (p *recordingPersister) SaveState(_ context.Context, st State) error {
	p.log.add("save")
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	p.states = append(p.states, st)
	p.mu.Unlock()
	return p.saveErr
}

func (p *recordingPersister) RecordAttempt(_ context.Context, attempt Attempt) error {
	p.log.add("attempt")
	p.mu.Lock()
	p.attempts = append(p.attempts, attempt)
	p.mu.Unlock()
	return nil
}

func TestSharedPersistsEachMutationBeforeNext(t *testing.T) {
	log := &eventLog{}
	persister := &recordingPersister{log: log}
	tm, _ := newTestTimer(t, threeSegmentRun())
	shared := NewShared(tm, persister)

	const writers = 8
	var wg sync.WaitGroup
	for range writers {
		wg.Go(func() {
			shared.Mutate(func(t *Timer) {
				log.add("mutate")
				t.SwitchToNextComparison()
			})
		})
	}
	wg.Wait()

	events := log.snapshot()
	if len(events) != 2*writers {
		t.Fatalf("events = %v", events)
	}
	for i := 0; i < len(events); i += 2 {
		if events[i] != "mutate" || events[i+1] != "save" {
			t.Fatalf("mutation %d not persisted before the next one: %v", i/2, events)
		}
	}
	if len(persister.states) != writers {
		t.Fatalf("saved %d states, want %d", len(persister.states), writers)
	}
}

func TestSharedReadersDoNotWaitOnPersistence(t *testing.T) {
	persister := &recordingPersister{log: &eventLog{}, block: make(chan struct{})}
	tm, _ := newTestTimer(t, threeSegmentRun())
	shared := NewShared(tm, persister)

	done := make(chan struct{})
	go func() {
		defer close(done)
		shared.Mutate(func(t *Timer) { t.SplitOrStart() })
	}()

	deadline := time.After(2 * time.Second)
	for {
		if len(persister.log.snapshot()) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("persistence never started")
		case <-time.After(time.Millisecond):
		}
	}

	// The write lock is released while SaveState is blocked.
	view := shared.Snapshot()
	if view.Phase != Running {
		t.Fatalf("reader saw phase %v, want Running", view.Phase)
	}

	close(persister.block)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Mutate did not return after persistence finished")
	}
}

func TestSharedRecordsAttemptsBeforeState(t *testing.T) {
	log := &eventLog{}
	persister := &recordingPersister{log: log}
	tm, clock := newTestTimer(t, threeSegmentRun())
	shared := NewShared(tm, persister)

	shared.Mutate(func(t *Timer) { t.SplitOrStart() })
	clock.Advance(time.Second)
	shared.Mutate(func(t *Timer) { t.Reset(true) })

	events := log.snapshot()
	want := []string{"save", "attempt", "save"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	if len(persister.attempts) != 1 || persister.attempts[0].Number != 1 {
		t.Fatalf("attempts = %+v", persister.attempts)
	}
}

func TestSharedPersistenceFailureIsSwallowed(t *testing.T) {
	persister := &recordingPersister{log: &eventLog{}, saveErr: errors.New("disk full")}
	tm, _ := newTestTimer(t, threeSegmentRun())
	shared := NewShared(tm, persister)

	shared.Mutate(func(t *Timer) { t.SplitOrStart() })
	if shared.Snapshot().Phase != Running {
		t.Fatal("mutation lost after persistence failure")
	}
}

func TestSharedMutateErrSkipsPersistOnError(t *testing.T) {
	persister := &recordingPersister{log: &eventLog{}}
	tm, _ := newTestTimer(t, threeSegmentRun())
	shared := NewShared(tm, persister)

	err := shared.MutateErr(func(t *Timer) error { return t.SetCurrentComparison("Sum of Worst") })
	if !errors.Is(err, ErrUnknownComparison) {
		t.Fatalf("MutateErr() error = %v", err)
	}
	if len(persister.log.snapshot()) != 0 {
		t.Fatal("failed transition was persisted")
	}

	if err := shared.MutateErr(func(t *Timer) error { return t.SetCurrentComparison(NoComparison) }); err != nil {
		t.Fatalf("MutateErr() error = %v", err)
	}
	if len(persister.states) != 1 || persister.states[0].Comparison != NoComparison {
		t.Fatalf("states = %+v", persister.states)
	}
}

func TestSharedReleasesLocksWhenTransitionPanics(t *testing.T) {
	persister := &recordingPersister{log: &eventLog{}}
	tm, _ := newTestTimer(t, threeSegmentRun())
	shared := NewShared(tm, persister)

	mutations := []struct {
		name string
		run  func()
	}{
		{name: "Mutate", run: func() { shared.Mutate(func(*Timer) { panic("boom") }) }},
		{name: "MutateErr", run: func() { _ = shared.MutateErr(func(*Timer) error { panic("boom") }) }},
	}
	for _, m := range mutations {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected panic to propagate", m.name)
				}
			}()
			m.run()
		}()
	}

	done := make(chan StateView, 1)
	go func() {
		shared.Mutate(func(t *Timer) { t.SplitOrStart() })
		done <- shared.Snapshot()
	}()
	select {
	case view := <-done:
		if view.Phase != Running {
			t.Fatalf("Phase = %v, want Running", view.Phase)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer locks still held after a panicking transition")
	}
	if len(persister.log.snapshot()) != 1 {
		t.Fatalf("events = %v, want only the successful mutation persisted", persister.log.snapshot())
	}
}
