package notifier

import (
	"errors"
	"sync"
)

// ErrClosed is returned when enqueueing after Shutdown has been queued.
var ErrClosed = errors.New("notifier: closed")

type outboundKind uint8

const (
	payloadEvent outboundKind = iota
	shutdownEvent
)

// outboundEvent is one entry of the producer queue.
type outboundEvent struct {
	kind    outboundKind
	payload []byte
}

// queue is an unbounded FIFO from any number of producers to the single
// worker. push never blocks; signal carries at most one pending wake-up.
type queue struct {
	mu     sync.Mutex
	items  []outboundEvent
	closed bool
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{signal: make(chan struct{}, 1)}
}

// push appends ev. Once a shutdownEvent has been pushed, or close has been
// called, every later push fails with ErrClosed.
func (q *queue) push(ev outboundEvent) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, ev)
	if ev.kind == shutdownEvent {
		q.closed = true
	}
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
		// A wake-up is already pending; the worker drains everything at once.
	}
	return nil
}

// close rejects later pushes without waking the worker.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// drain removes and returns every queued event in FIFO order.
func (q *queue) drain() []outboundEvent {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}
