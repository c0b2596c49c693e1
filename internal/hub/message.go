package hub

import (
	"time"

	"github.com/soar/padkbd/internal/event"
)

// Status is the snapshot shown to status clients.
type Status struct {
	Armed       bool   `json:"armed"`
	Engine      string `json:"engine"` // "idle", "running", "stopping", "stopped", "failed"
	Controller  string `json:"controller,omitempty"`
	LastKey     string `json:"lastKey,omitempty"`
	LastValue   int32  `json:"lastValue"`
	KeysEmitted int64  `json:"keysEmitted"`
	Error       string `json:"error,omitempty"`
}

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type      string       `json:"type"`            // Message type: "full", "event", "profile_applied", "error"
	Seq       int64        `json:"seq"`             // Sequence number for ordering
	Timestamp int64        `json:"timestamp"`       // Unix timestamp in milliseconds
	Data      *Status      `json:"data,omitempty"`  // Full status for type "full"
	Event     *event.Event `json:"event,omitempty"` // Lifecycle or key event for type "event"
	Profile   string       `json:"profile,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// NewFullMessage creates a "full" type message containing the complete status.
func NewFullMessage(seq int64, status *Status) *WSMessage {
	return &WSMessage{
		Type:      "full",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      status,
	}
}

// NewEventMessage creates an "event" type message for a single event.
func NewEventMessage(seq int64, ev *event.Event) *WSMessage {
	return &WSMessage{
		Type:      "event",
		Seq:       seq,
		Timestamp: ev.Time.UnixMilli(),
		Event:     ev,
	}
}

// NewProfileAppliedMessage confirms a display profile switch.
func NewProfileAppliedMessage(profile string) *WSMessage {
	return &WSMessage{
		Type:      "profile_applied",
		Timestamp: time.Now().UnixMilli(),
		Profile:   profile,
	}
}

// NewErrorMessage reports a failed client request.
func NewErrorMessage(err error) *WSMessage {
	return &WSMessage{
		Type:      "error",
		Timestamp: time.Now().UnixMilli(),
		Error:     err.Error(),
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type    string `json:"type"`
	Profile string `json:"profile,omitempty"`
}
