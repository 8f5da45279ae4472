package main

import "splitrelay/internal/timer"

// initEvent is broadcast once the first session is up.
const initEvent = "init"

// statePayload is the JSON document subscribers receive after every
// state-changing action.
type statePayload struct {
	Event string          `json:"event"`
	State timer.StateView `json:"state"`
}

// broadcast sends the session's state to subscribers. The snapshot is taken
// under the read lock and sent after releasing it.
func (a *App) broadcast(event string, sess *session) {
	if a.hub == nil || sess == nil {
		return
	}
	a.hub.Send(statePayload{Event: event, State: sess.shared.Snapshot()})
}
