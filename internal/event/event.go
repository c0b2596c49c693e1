// Package event carries lifecycle and key notifications from the emulation
// core to the optional status surfaces.
package event

import "time"

// Kind identifies what happened.
type Kind string

const (
	EngineStarted   Kind = "engine_started"
	EngineStopped   Kind = "engine_stopped"
	EngineFailed    Kind = "engine_failed"
	DeviceFound     Kind = "device_found"
	KeyEmitted      Kind = "key_emitted"
	PresenceChanged Kind = "presence_changed"
)

// Event is a single notification.
type Event struct {
	Kind   Kind      `json:"kind"`
	Time   time.Time `json:"time"`
	Device string    `json:"device,omitempty"`
	Key    string    `json:"key,omitempty"`
	Value  int32     `json:"value,omitempty"`
	Armed  bool      `json:"armed,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Bus is a bounded fan-in of events with a single consumer. Publishing never
// blocks; events are dropped when the consumer falls behind. A nil *Bus
// accepts and discards everything.
type Bus struct {
	ch chan Event
}

func NewBus(size int) *Bus {
	return &Bus{ch: make(chan Event, size)}
}

// C returns the channel the consumer reads from.
func (b *Bus) C() <-chan Event {
	return b.ch
}

// Publish stamps e with the current time if unset and queues it.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case b.ch <- e:
	default:
		// Drop if channel is full to avoid blocking the engine loop
	}
}
