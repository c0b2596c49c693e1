package vkbd

import (
	"errors"
	"testing"

	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	events []evdev.InputEvent
	err    error
	closed bool
}

func (f *fakeDevice) WriteOne(ev *evdev.InputEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeDevice) Close() error {
	f.closed = true
	return nil
}

func TestEmitWritesKeyThenSync(t *testing.T) {
	dev := &fakeDevice{}
	kbd := New(dev)

	require.NoError(t, kbd.Emit(evdev.KEY_ENTER, 1))
	require.Len(t, dev.events, 2)
	assert.Equal(t, evdev.EvType(evdev.EV_KEY), dev.events[0].Type)
	assert.Equal(t, evdev.EvCode(evdev.KEY_ENTER), dev.events[0].Code)
	assert.Equal(t, int32(1), dev.events[0].Value)
	assert.Equal(t, evdev.EvType(evdev.EV_SYN), dev.events[1].Type)
	assert.Equal(t, evdev.EvCode(evdev.SYN_REPORT), dev.events[1].Code)
}

func TestEmitPassesUnknownValues(t *testing.T) {
	dev := &fakeDevice{}
	require.NoError(t, New(dev).Emit(evdev.KEY_DELETE, 2))
	assert.Equal(t, int32(2), dev.events[0].Value)
}

func TestEmitRejectsUnadvertisedKey(t *testing.T) {
	dev := &fakeDevice{}
	err := New(dev).Emit(evdev.KEY_A, 1)
	assert.ErrorIs(t, err, ErrEmit)
	assert.Empty(t, dev.events)
}

func TestEmitWrapsWriterError(t *testing.T) {
	boom := errors.New("no such device")
	err := New(&fakeDevice{err: boom}).Emit(evdev.KEY_UP, 0)
	assert.ErrorIs(t, err, ErrEmit)
	assert.ErrorIs(t, err, boom)
}

func TestAdvertisesNineKeys(t *testing.T) {
	assert.Len(t, Keys, 9)
}

func TestTransitionString(t *testing.T) {
	assert.Equal(t, "Released", Transition(0).String())
	assert.Equal(t, "Pressed", Transition(1).String())
	assert.Equal(t, "Unknown", Transition(2).String())
	assert.Equal(t, "Unknown", Transition(-1).String())
}

func TestClose(t *testing.T) {
	dev := &fakeDevice{}
	require.NoError(t, New(dev).Close())
	assert.True(t, dev.closed)
}
