// Package presence arms and disarms keyboard emulation by watching the
// process table for a target application.
package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soar/padkbd/internal/event"
)

// DefaultInterval is the process table polling period.
const DefaultInterval = 2 * time.Second

// ArmWhen selects which presence state arms the emulation.
type ArmWhen string

const (
	// ArmWhenAbsent runs emulation while the target is not running.
	ArmWhenAbsent ArmWhen = "absent"
	// ArmWhenPresent runs emulation while the target is running.
	ArmWhenPresent ArmWhen = "present"
)

// ParseArmWhen validates a configured ArmWhen value.
func ParseArmWhen(s string) (ArmWhen, error) {
	switch ArmWhen(s) {
	case ArmWhenAbsent, ArmWhenPresent:
		return ArmWhen(s), nil
	default:
		return "", fmt.Errorf("invalid arm condition %q (want %q or %q)", s, ArmWhenAbsent, ArmWhenPresent)
	}
}

// RunFunc runs one emulation engine until ctx is cancelled or it fails.
type RunFunc func(ctx context.Context) error

// Handle owns one running engine goroutine.
type Handle struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
	err    error
}

// Cancel signals the engine to stop. It is safe to call any number of times,
// including after the engine has already exited.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
}

// Done is closed once the engine goroutine has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err is the engine's result. Only valid after Done is closed.
func (h *Handle) Err() error {
	return h.err
}

// Config for a Supervisor.
type Config struct {
	Process  string
	Interval time.Duration
	ArmWhen  ArmWhen
}

// Supervisor polls for the target process and keeps at most one engine
// running. Its state is confined to the goroutine calling Run (or Poll).
type Supervisor struct {
	cfg    Config
	procs  ProcessTable
	run    RunFunc
	bus    *event.Bus
	active bool
	handle *Handle
	// stopping is the last cancelled engine until it has returned
	stopping *Handle
}

// New creates a Supervisor. Zero Interval and ArmWhen take their defaults.
func New(cfg Config, procs ProcessTable, run RunFunc, bus *event.Bus) *Supervisor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ArmWhen == "" {
		cfg.ArmWhen = ArmWhenAbsent
	}
	return &Supervisor{
		cfg:   cfg,
		procs: procs,
		run:   run,
		bus:   bus,
	}
}

// Active reports whether emulation is currently armed.
func (s *Supervisor) Active() bool {
	return s.active
}

// Handle returns the current engine handle, or nil when inactive.
func (s *Supervisor) Handle() *Handle {
	return s.handle
}

// Run polls immediately and then every interval until ctx is done. Any
// running engine is cancelled on return.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.disarm()

	log.Info().
		Str("process", s.cfg.Process).
		Str("arm_when", string(s.cfg.ArmWhen)).
		Dur("interval", s.cfg.Interval).
		Msg("presence supervisor started")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.Poll(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs a single supervisor iteration.
func (s *Supervisor) Poll(ctx context.Context) {
	running, err := s.procs.Running(ctx, s.cfg.Process)
	if err != nil {
		log.Error().Err(err).Msg("process table query failed")
		return
	}

	armed := running == (s.cfg.ArmWhen == ArmWhenPresent)
	switch {
	case armed && !s.active:
		if s.stillStopping() {
			log.Debug().Msg("previous keyboard emulation still stopping, retrying next tick")
			return
		}
		if running {
			log.Info().Str("process", s.cfg.Process).Msg("target running, starting keyboard emulation")
		} else {
			log.Info().Str("process", s.cfg.Process).Msg("target not running, starting keyboard emulation")
		}
		s.arm(ctx)
	case !armed && s.active:
		if running {
			log.Info().Str("process", s.cfg.Process).Msg("target is now running, shutting down keyboard emulation")
		} else {
			log.Info().Str("process", s.cfg.Process).Msg("target exited, shutting down keyboard emulation")
		}
		s.disarm()
	}
}

func (s *Supervisor) arm(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	s.handle = h
	s.active = true
	s.bus.Publish(event.Event{Kind: event.PresenceChanged, Armed: true})

	go func() {
		defer close(h.done)
		h.err = s.run(ctx)
		if h.err != nil {
			log.Error().Err(h.err).Msg("keyboard emulation failed")
			s.bus.Publish(event.Event{Kind: event.EngineFailed, Error: h.err.Error()})
			return
		}
		log.Info().Msg("keyboard emulation stopped")
		s.bus.Publish(event.Event{Kind: event.EngineStopped})
	}()
}

// stillStopping reports whether the last cancelled engine is still running.
func (s *Supervisor) stillStopping() bool {
	if s.stopping == nil {
		return false
	}
	select {
	case <-s.stopping.Done():
		s.stopping = nil
		return false
	default:
		return true
	}
}

// disarm cancels the current engine, which may already have exited.
func (s *Supervisor) disarm() {
	if !s.active {
		return
	}
	s.handle.Cancel()
	s.stopping = s.handle
	s.handle = nil
	s.active = false
	s.bus.Publish(event.Event{Kind: event.PresenceChanged, Armed: false})
}
