package notifier

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
)

// writeDeadline is the maximum time allowed for a single WebSocket write to
// complete. A subscriber that cannot take a frame within this window is
// considered dead.
const writeDeadline = 5 * time.Second

// readDeadline is the maximum time the server waits for any read activity
// (including pong responses) before considering the connection dead.
// 90 seconds allows for ~3 missed pings (pingInterval=30s) before timeout.
const readDeadline = 90 * time.Second

// pingInterval is the interval between server-initiated WebSocket pings.
const pingInterval = 30 * time.Second

// maxReadMessageSize limits inbound frames. Clients only send frames to have
// them echoed back, so 32 KiB is plenty and bounds memory per connection.
const maxReadMessageSize = 32 * 1024

// sendBuffer is the number of frames a subscriber may lag behind before a
// broadcast to it counts as failed.
const sendBuffer = 64

type frame struct {
	messageType int
	data        []byte
}

// subscriber is one connected client. The registry entry, and closing send,
// belong to the worker; the connection itself is driven by the handler
// goroutine (reads) and writePump (writes).
type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan frame
	// done is closed when writePump exits.
	done chan struct{}
	// closed is read and written only by the worker.
	closed bool
}

func newSubscriber(id string, conn *websocket.Conn) *subscriber {
	return &subscriber{
		id:   id,
		conn: conn,
		send: make(chan frame, sendBuffer),
		done: make(chan struct{}),
	}
}

// offer queues f without blocking. It reports false when the subscriber is
// gone or too far behind.
func (s *subscriber) offer(f frame) bool {
	if s.closed {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- f:
		return true
	default:
		return false
	}
}

// writePump is the only writer of s.conn. It exits when send is closed by the
// worker, a write fails, or ctx is cancelled by a forced shutdown.
func (s *subscriber) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] notifier writePump recovered",
				"subscriber", s.id,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
		ticker.Stop()
		close(s.done)
		closeConn(s.conn, s.id, "write pump exit")
	}()

	for {
		select {
		case <-ctx.Done():
			s.writeClose(websocket.CloseGoingAway)
			return
		case f, ok := <-s.send:
			if !ok {
				s.writeClose(websocket.CloseNormalClosure)
				return
			}
			if !s.write(f.messageType, f.data) {
				return
			}
		case <-ticker.C:
			if !s.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (s *subscriber) write(messageType int, data []byte) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		slog.Debug("[DEBUG-WS] SetWriteDeadline failed", "subscriber", s.id, "error", err)
		return false
	}
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		slog.Debug("[DEBUG-WS] write failed, dropping subscriber", "subscriber", s.id, "error", err)
		return false
	}
	return true
}

// writeClose sends a best-effort close frame. Errors are irrelevant because
// the connection is closed right after.
func (s *subscriber) writeClose(code int) {
	msg := websocket.FormatCloseMessage(code, "")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(100*time.Millisecond)); err != nil {
		slog.Debug("[DEBUG-WS] close frame not sent", "subscriber", s.id, "error", err)
	}
}

// closeConn closes a connection that may already be closed by the other pump.
// gorilla/websocket returns an error on double close but has no other side
// effects.
func closeConn(conn *websocket.Conn, id string, reason string) {
	if err := conn.Close(); err != nil {
		slog.Debug("[DEBUG-WS] connection close", "subscriber", id, "reason", reason, "error", err)
	}
}
