package websocket

import "github.com/opencourse/proctor-backend/internal/events"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventAttempt Event = "attempt"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// AttemptMessage wraps a lifecycle event relayed to the monitor stream.
type AttemptMessage struct {
	Event   Event               `json:"event"`
	Payload events.AttemptEvent `json:"payload"`
}

type ErrorMessage struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongMessage struct {
	Event Event `json:"event"`
}

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}
