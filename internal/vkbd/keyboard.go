// Package vkbd provides the uinput keyboard that receives translated
// controller input.
package vkbd

import (
	"errors"
	"fmt"
	"slices"

	evdev "github.com/holoplot/go-evdev"
	"github.com/rs/zerolog/log"
)

var (
	ErrCreate = errors.New("virtual keyboard creation failed")
	ErrEmit   = errors.New("virtual keyboard emit failed")
)

// Keys is the full set of keys the device advertises. Emitting anything else
// is rejected.
var Keys = []evdev.EvCode{
	// Meta
	evdev.KEY_ENTER,
	evdev.KEY_LEFTMETA,
	evdev.KEY_LEFTSHIFT,
	evdev.KEY_LEFTCTRL,
	evdev.KEY_DELETE,
	// Arrows
	evdev.KEY_UP,
	evdev.KEY_LEFT,
	evdev.KEY_RIGHT,
	evdev.KEY_DOWN,
}

// Transition is the value of an EV_KEY event.
type Transition int32

const (
	Released Transition = 0
	Pressed  Transition = 1
)

func (t Transition) String() string {
	switch t {
	case Released:
		return "Released"
	case Pressed:
		return "Pressed"
	default:
		return "Unknown"
	}
}

// EventWriter is the part of a uinput device the keyboard writes to.
type EventWriter interface {
	WriteOne(event *evdev.InputEvent) error
	Close() error
}

// Keyboard is a virtual keyboard. It is owned by a single goroutine.
type Keyboard struct {
	dev EventWriter
}

var deviceID = evdev.InputID{
	BusType: 0x03, // USB
	Vendor:  0x4711,
	Product: 0x0816,
	Version: 1,
}

// Create registers a uinput keyboard called name.
func Create(name string) (*Keyboard, error) {
	dev, err := evdev.CreateDevice(name, deviceID, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: Keys,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	log.Debug().Str("name", name).Msg("virtual keyboard created")
	return New(dev), nil
}

// New wraps an already open device.
func New(dev EventWriter) *Keyboard {
	return &Keyboard{dev: dev}
}

// Emit publishes a single key transition followed by a sync report.
func (k *Keyboard) Emit(key evdev.EvCode, value int32) error {
	name := evdev.CodeName(evdev.EV_KEY, key)
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("%w: %s is not advertised", ErrEmit, name)
	}
	log.Info().
		Str("transition", Transition(value).String()).
		Str("key", name).
		Msg("event mapped")

	if err := k.dev.WriteOne(&evdev.InputEvent{
		Type:  evdev.EV_KEY,
		Code:  key,
		Value: value,
	}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEmit, name, err)
	}
	if err := k.dev.WriteOne(&evdev.InputEvent{
		Type: evdev.EV_SYN,
		Code: evdev.SYN_REPORT,
	}); err != nil {
		return fmt.Errorf("%w: %s sync: %w", ErrEmit, name, err)
	}
	return nil
}

// Close removes the device from the system.
func (k *Keyboard) Close() error {
	return k.dev.Close()
}
