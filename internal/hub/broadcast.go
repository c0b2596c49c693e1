package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soar/padkbd/internal/event"
)

const (
	fullSyncInterval = 5 * time.Second
	eventCountSync   = 100
)

// Broadcaster folds events into a Status snapshot and broadcasts them to the hub.
type Broadcaster struct {
	hub    *Hub
	events <-chan event.Event
	mu     sync.RWMutex
	status Status
	seq    int64
}

func NewBroadcaster(h *Hub, events <-chan event.Event) *Broadcaster {
	return &Broadcaster{
		hub:    h,
		events: events,
		status: Status{Engine: "idle"},
	}
}

// Snapshot returns a copy of the current status.
func (b *Broadcaster) Snapshot() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Run starts the broadcaster loop until ctx is done or the event channel
// closes. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var eventCount int64

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-b.events:
			if !ok {
				return
			}
			b.apply(ev)
			eventCount++

			// Send full sync periodically
			if eventCount >= eventCountSync {
				b.sendFull()
				eventCount = 0
			} else {
				b.sendEvent(&ev)
			}

		case <-ticker.C:
			b.sendFull()
		}
	}
}

// apply updates the snapshot for one event.
func (b *Broadcaster) apply(ev event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &b.status
	switch ev.Kind {
	case event.PresenceChanged:
		s.Armed = ev.Armed
		if !ev.Armed && s.Engine == "running" {
			s.Engine = "stopping"
		}
	case event.DeviceFound:
		s.Controller = ev.Device
		s.Error = ""
	case event.EngineStarted:
		s.Engine = "running"
		s.Error = ""
	case event.EngineStopped:
		s.Engine = "stopped"
	case event.EngineFailed:
		s.Engine = "failed"
		s.Error = ev.Error
	case event.KeyEmitted:
		s.LastKey = ev.Key
		s.LastValue = ev.Value
		s.KeysEmitted++
	}
}

// SendInitialState sends the current full status to a newly connected client.
// The client must not be registered yet.
func (b *Broadcaster) SendInitialState(c *Client) {
	data, err := b.fullMessage()
	if err != nil {
		log.Error().Err(err).Msg("error marshaling initial state")
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (b *Broadcaster) fullMessage() ([]byte, error) {
	b.mu.Lock()
	b.seq++
	status := b.status
	seq := b.seq
	b.mu.Unlock()
	return json.Marshal(NewFullMessage(seq, &status))
}

func (b *Broadcaster) sendFull() {
	data, err := b.fullMessage()
	if err != nil {
		log.Error().Err(err).Msg("error marshaling full message")
		return
	}
	b.hub.Broadcast(data)
}

func (b *Broadcaster) sendEvent(ev *event.Event) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	data, err := json.Marshal(NewEventMessage(seq, ev))
	if err != nil {
		log.Error().Err(err).Msg("error marshaling event message")
		return
	}
	b.hub.Broadcast(data)
}
