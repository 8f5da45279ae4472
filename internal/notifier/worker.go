package notifier

import (
	"context"
	"log/slog"

	"github.com/gorilla/websocket"
)

// run is the worker loop. It waits on the producer queue and on network
// events with no priority between them, and returns on a dequeued shutdown
// or when ctx is cancelled by a forced Close.
func (n *Notifier) run(ctx context.Context) {
	defer n.dropAll()

	for {
		select {
		case <-n.queue.signal:
			for _, ev := range n.queue.drain() {
				if ev.kind == shutdownEvent {
					slog.Debug("[DEBUG-WS] worker received shutdown")
					return
				}
				n.broadcast(ev.payload)
			}
		case ev := <-n.events:
			n.handleNetEvent(ev)
		case <-ctx.Done():
			return
		}
	}
}

func (n *Notifier) handleNetEvent(ev netEvent) {
	switch ev.kind {
	case subscriberConnected:
		n.registry[ev.sub.id] = ev.sub
		n.subscribers.Store(int32(len(n.registry)))
		slog.Info("[DEBUG-WS] subscriber connected",
			"subscriber", ev.sub.id, "remoteAddr", ev.sub.conn.RemoteAddr().String(), "subscribers", len(n.registry))
	case subscriberDisconnected:
		if _, ok := n.registry[ev.sub.id]; ok {
			n.remove(ev.sub, "disconnected", false)
		}
	case subscriberMessage:
		sub, ok := n.registry[ev.sub.id]
		if !ok {
			return
		}
		// Inbound frames are echoed back unchanged.
		if !sub.offer(ev.msg) {
			n.remove(sub, "echo failed", true)
		}
	}
}

// broadcast offers payload to every subscriber. A subscriber that cannot take
// it is dropped; the others still receive it.
func (n *Notifier) broadcast(payload []byte) {
	f := frame{messageType: websocket.TextMessage, data: payload}
	for id, sub := range n.registry {
		if !sub.offer(f) {
			slog.Debug("[DEBUG-WS] broadcast failed, dropping subscriber", "subscriber", id)
			n.remove(sub, "send failed", true)
		}
	}
}

// remove deletes sub from the registry and closes its send channel, which
// makes its writePump send a close frame and close the connection. A failed
// subscriber may have a writePump stuck in a write, so force closes the
// connection right away.
func (n *Notifier) remove(sub *subscriber, reason string, force bool) {
	delete(n.registry, sub.id)
	n.subscribers.Store(int32(len(n.registry)))
	if !sub.closed {
		sub.closed = true
		close(sub.send)
	}
	if force {
		closeConn(sub.conn, sub.id, reason)
	}
	slog.Info("[DEBUG-WS] subscriber removed", "subscriber", sub.id, "reason", reason, "subscribers", len(n.registry))
}

func (n *Notifier) dropAll() {
	for _, sub := range n.registry {
		n.remove(sub, "notifier stopped", false)
	}
}
