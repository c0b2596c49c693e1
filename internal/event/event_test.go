package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDropsWhenFull(t *testing.T) {
	b := NewBus(2)
	b.Publish(Event{Kind: EngineStarted})
	b.Publish(Event{Kind: KeyEmitted, Key: "KEY_UP", Value: 1})
	b.Publish(Event{Kind: EngineStopped})

	require.Len(t, b.C(), 2)
	first := <-b.C()
	second := <-b.C()
	assert.Equal(t, EngineStarted, first.Kind)
	assert.Equal(t, KeyEmitted, second.Kind)
	assert.False(t, first.Time.IsZero())
}

func TestPublishKeepsExplicitTime(t *testing.T) {
	b := NewBus(1)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b.Publish(Event{Kind: DeviceFound, Time: at})
	assert.Equal(t, at, (<-b.C()).Time)
}

func TestNilBusIsSafe(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() { b.Publish(Event{Kind: EngineFailed}) })
}
