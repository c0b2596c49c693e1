// Package gamepad translates controller input into virtual keyboard events.
package gamepad

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"github.com/rs/zerolog/log"

	"github.com/soar/padkbd/internal/event"
	"github.com/soar/padkbd/internal/vkbd"
)

// ErrNotRunnable is returned by Run on an engine that already ran.
var ErrNotRunnable = errors.New("engine already ran")

// Emitter is the virtual keyboard the engine drives.
type Emitter interface {
	Emit(key evdev.EvCode, value int32) error
	Close() error
}

// Config names the devices and tables for one engine.
type Config struct {
	ControllerName string
	KeyboardName   string
	Mapping        KeyMapping
	Axes           []AxisMapping
}

// Options swaps the device seams. Zero values use the real devices.
type Options struct {
	NewKeyboard    func(name string) (Emitter, error)
	OpenController func(name string) (Source, error)
	Now            func() time.Time
	Bus            *event.Bus
}

// Engine owns one controller and one virtual keyboard for a single run.
type Engine struct {
	cfg   Config
	kbd   Emitter
	src   Source
	axes  map[evdev.EvCode]*axisState
	state atomic.Int32
	bus   *event.Bus
}

func newKeyboard(name string) (Emitter, error) {
	return vkbd.Create(name)
}

// Start creates the virtual keyboard, locates the controller and seeds the
// axis debounce state. Any failure is final for this engine.
func Start(cfg Config, opts Options) (*Engine, error) {
	newKbd := opts.NewKeyboard
	if newKbd == nil {
		newKbd = newKeyboard
	}
	openCtrl := opts.OpenController
	if openCtrl == nil {
		openCtrl = OpenController
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if cfg.Mapping == nil {
		cfg.Mapping = DefaultMapping
	}
	if cfg.Axes == nil {
		cfg.Axes = DefaultAxes
	}

	kbd, err := newKbd(cfg.KeyboardName)
	if err != nil {
		return nil, err
	}

	src, err := openCtrl(cfg.ControllerName)
	if err != nil {
		if cerr := kbd.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("error closing virtual keyboard")
		}
		return nil, err
	}
	opts.Bus.Publish(event.Event{Kind: event.DeviceFound, Device: cfg.ControllerName})

	start := now()
	axes := make(map[evdev.EvCode]*axisState, len(cfg.Axes))
	for _, am := range cfg.Axes {
		axes[am.Axis] = &axisState{mapping: am, lastFire: start}
	}

	return &Engine{
		cfg:  cfg,
		kbd:  kbd,
		src:  src,
		axes: axes,
		bus:  opts.Bus,
	}, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run translates controller events until ctx is cancelled (nil) or the
// controller can no longer be read (ErrDeviceLost). Cancellation is checked
// before every batch fetch, so it takes effect after the next controller
// report at the latest. Both devices are closed on return.
func (e *Engine) Run(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(Starting), int32(Running)) {
		return ErrNotRunnable
	}
	defer e.close()

	log.Info().Str("controller", e.cfg.ControllerName).Msg("starting keyboard emulation")
	e.bus.Publish(event.Event{Kind: event.EngineStarted, Device: e.cfg.ControllerName})

	buf := make([]evdev.InputEvent, 0, 16)
	for {
		if ctx.Err() != nil {
			e.state.Store(int32(Stopped))
			log.Info().Msg("terminating keyboard emulation")
			return nil
		}

		batch, err := readBatch(e.src, buf)
		if err != nil {
			e.state.Store(int32(Failed))
			return fmt.Errorf("%w: %w", ErrDeviceLost, err)
		}
		for i := range batch {
			e.handle(&batch[i])
		}
		buf = batch
	}
}

func (e *Engine) handle(ev *evdev.InputEvent) {
	switch ev.Type {
	case evdev.EV_KEY:
		if key, ok := e.cfg.Mapping.Lookup(ev.Code); ok {
			e.emit(key, ev.Value)
		}

	case evdev.EV_ABS:
		axis, ok := e.axes[ev.Code]
		if !ok || !exceedsThreshold(ev.Value) {
			return
		}
		if !axis.fire(timevalToTime(ev.Time)) {
			return
		}
		key := axis.mapping.direction(ev.Value)
		e.emit(key, int32(vkbd.Pressed))
		e.emit(key, int32(vkbd.Released))
	}
}

// emit forwards one transition. A failed emission only loses that keystroke.
func (e *Engine) emit(key evdev.EvCode, value int32) {
	if err := e.kbd.Emit(key, value); err != nil {
		log.Error().Err(err).Msg("failed to emit key")
		return
	}
	e.bus.Publish(event.Event{
		Kind:  event.KeyEmitted,
		Key:   evdev.CodeName(evdev.EV_KEY, key),
		Value: value,
	})
}

func (e *Engine) close() {
	if err := e.src.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing controller")
	}
	if err := e.kbd.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing virtual keyboard")
	}
}

// Emulate starts an engine and runs it to completion.
func Emulate(ctx context.Context, cfg Config, opts Options) error {
	e, err := Start(cfg, opts)
	if err != nil {
		return err
	}
	return e.Run(ctx)
}
