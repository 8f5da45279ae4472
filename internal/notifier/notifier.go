// Package notifier broadcasts timer state changes to WebSocket subscribers.
//
// One worker goroutine owns the subscriber registry. Producers hand it
// payloads through an unbounded FIFO queue, and connection goroutines hand it
// connect, disconnect and inbound-message events through a channel, so the
// registry is never shared between goroutines.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"splitrelay/internal/workerutil"
)

// DefaultAddr is the listen address used when Options.Addr is empty.
const DefaultAddr = "127.0.0.1:8080"

// defaultShutdownTimeout bounds how long Close waits for the worker to
// observe the shutdown request before forcing every connection closed.
const defaultShutdownTimeout = 100 * time.Millisecond

// wsUpgrader is shared by all connections; the Upgrader is stateless.
var wsUpgrader = websocket.Upgrader{
	// Overlays are loaded from local files and arbitrary origins (OBS browser
	// sources), so origins are not checked.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4 * 1024,
}

// State is the lifecycle position of a Notifier.
type State int32

const (
	StateRunning State = iota
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Options configures a Notifier.
type Options struct {
	// Addr is the TCP listen address. Use "127.0.0.1:0" for an OS-assigned
	// port.
	Addr string
	// ShutdownTimeout bounds Close. Zero means 100ms.
	ShutdownTimeout time.Duration
}

type netEventKind uint8

const (
	subscriberConnected netEventKind = iota
	subscriberDisconnected
	subscriberMessage
)

// netEvent is a network occurrence reported to the worker.
type netEvent struct {
	kind netEventKind
	sub  *subscriber
	msg  frame
}

// Notifier is a handle to the broadcast worker. All methods are safe for
// concurrent use.
type Notifier struct {
	opts Options

	queue  *queue
	events chan netEvent

	// registry is owned by the worker goroutine.
	registry    map[string]*subscriber
	subscribers atomic.Int32

	state atomic.Int32

	listener net.Listener
	server   *http.Server

	// ctx is cancelled when Close gives up waiting; it forces every
	// connection goroutine and the worker to exit.
	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup

	// connMu guards connWG.Add against the Wait in Close.
	connMu      sync.Mutex
	connsClosed bool
	connWG      sync.WaitGroup

	workerDone chan struct{}
	closeOnce  sync.Once
}

// New starts listening on opts.Addr and launches the worker.
func New(opts Options) (*Notifier, error) {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("notifier: listen: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		opts:       opts,
		queue:      newQueue(),
		events:     make(chan netEvent),
		registry:   make(map[string]*subscriber),
		listener:   ln,
		ctx:        ctx,
		cancel:     cancel,
		workerDone: make(chan struct{}),
	}

	// Every path is accepted; overlays differ in the URL they connect to.
	n.server = &http.Server{
		Handler:           http.HandlerFunc(n.handleWS),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	workerutil.RunWithPanicRecovery(ctx, "notifier-worker", &n.wg, n.run, workerutil.RecoveryOptions{
		MaxRetries: 3,
		IsShutdown: func() bool { return n.State() != StateRunning },
		OnFatal:    n.workerFailed,
	})
	go func() {
		n.wg.Wait()
		close(n.workerDone)
	}()

	go func() {
		if serveErr := n.server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("[DEBUG-WS] server error", "error", serveErr)
		}
	}()

	slog.Info("[DEBUG-WS] notifier listening", "addr", ln.Addr().String())
	return n, nil
}

// workerFailed runs once the worker has exhausted its restarts. Nothing
// will drain the queue any more.
func (n *Notifier) workerFailed(name string, attempts int) {
	n.queue.close()
	n.state.Store(int32(StateStopped))
	slog.Error("[DEBUG-WS] notifier stopped after worker failure", "worker", name, "attempts", attempts)
}

// Addr returns the address the notifier listens on.
func (n *Notifier) Addr() string {
	return n.listener.Addr().String()
}

// State returns the current lifecycle state.
func (n *Notifier) State() State {
	return State(n.state.Load())
}

// SubscriberCount returns the number of registered subscribers.
func (n *Notifier) SubscriberCount() int {
	return int(n.subscribers.Load())
}

// Send serializes value as JSON and queues it for every subscriber. It never
// blocks. After Close, or if value cannot be serialized, the value is dropped.
func (n *Notifier) Send(value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("[DEBUG-WS] failed to serialize broadcast payload", "error", err)
		return
	}
	if err := n.queue.push(outboundEvent{kind: payloadEvent, payload: raw}); err != nil {
		slog.Debug("[DEBUG-WS] payload dropped", "error", err)
	}
}

// Close asks the worker to stop and waits for it up to the shutdown timeout.
// If the worker has not finished by then, every connection is forced closed.
// It then waits, again bounded by the shutdown timeout, for the connection
// writers to exit. Close is idempotent.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		n.state.Store(int32(StateDraining))
		if err := n.queue.push(outboundEvent{kind: shutdownEvent}); err != nil {
			slog.Debug("[DEBUG-WS] shutdown already queued", "error", err)
		}
		// No new connections from here on.
		if err := n.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Debug("[DEBUG-WS] listener close", "error", err)
		}

		timer := time.NewTimer(n.opts.ShutdownTimeout)
		defer timer.Stop()
		select {
		case <-n.workerDone:
		case <-timer.C:
			slog.Warn("[DEBUG-WS] worker did not stop in time, forcing shutdown",
				"timeout", n.opts.ShutdownTimeout)
		}

		n.cancel()
		if err := n.server.Close(); err != nil {
			slog.Debug("[DEBUG-WS] server close", "error", err)
		}
		n.waitWritePumps(n.opts.ShutdownTimeout)
		n.state.Store(int32(StateStopped))
		slog.Info("[DEBUG-WS] notifier stopped")
	})
}

// waitWritePumps waits for every writePump to exit. The pumps observe the
// cancelled ctx, so this only blocks on a write already in flight; it gives up
// after timeout.
func (n *Notifier) waitWritePumps(timeout time.Duration) {
	n.connMu.Lock()
	n.connsClosed = true
	n.connMu.Unlock()

	done := make(chan struct{})
	go func() {
		n.connWG.Wait()
		close(done)
	}()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case <-done:
	case <-deadline.C:
		slog.Warn("[DEBUG-WS] write pumps did not stop in time", "timeout", timeout)
	}
}

// startWritePump runs sub's writePump unless Close has already started
// waiting for the pumps.
func (n *Notifier) startWritePump(sub *subscriber) bool {
	n.connMu.Lock()
	defer n.connMu.Unlock()
	if n.connsClosed {
		return false
	}
	n.connWG.Go(func() { sub.writePump(n.ctx) })
	return true
}

// deliver hands ev to the worker. It reports false once the worker is gone.
func (n *Notifier) deliver(ev netEvent) bool {
	select {
	case n.events <- ev:
		return true
	case <-n.workerDone:
		return false
	case <-n.ctx.Done():
		return false
	}
}

// handleWS upgrades the request and runs the read side of the connection.
// Reads are reported to the worker; writes happen in the subscriber's
// writePump.
func (n *Notifier) handleWS(w http.ResponseWriter, r *http.Request) {
	if n.State() != StateRunning {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[DEBUG-WS] upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(maxReadMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		slog.Warn("[DEBUG-WS] SetReadDeadline failed on new connection", "error", err)
		closeConn(conn, "", "initial SetReadDeadline failure")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	sub := newSubscriber(uuid.NewString(), conn)
	if !n.deliver(netEvent{kind: subscriberConnected, sub: sub}) {
		closeConn(conn, sub.id, "worker stopped")
		return
	}
	if !n.startWritePump(sub) {
		n.deliver(netEvent{kind: subscriberDisconnected, sub: sub})
		closeConn(conn, sub.id, "notifier closing")
		return
	}

	defer func() {
		n.deliver(netEvent{kind: subscriberDisconnected, sub: sub})
		closeConn(conn, sub.id, "read pump exit")
	}()

	for {
		messageType, data, readErr := conn.ReadMessage()
		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("[DEBUG-WS] read error", "subscriber", sub.id, "error", readErr)
			}
			return
		}
		if !n.deliver(netEvent{kind: subscriberMessage, sub: sub, msg: frame{messageType: messageType, data: data}}) {
			return
		}
	}
}
