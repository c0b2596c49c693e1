package gamepad

import (
	"errors"
	"fmt"

	evdev "github.com/holoplot/go-evdev"
	"github.com/rs/zerolog/log"
)

var (
	ErrDeviceNotFound = errors.New("controller not found")
	ErrDeviceLost     = errors.New("controller read failed")
)

// Source is an open physical controller.
type Source interface {
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

// OpenController enumerates the input devices and opens the first one whose
// name is exactly name.
func OpenController(name string) (Source, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}

	for _, p := range paths {
		if p.Name != name {
			continue
		}
		dev, err := evdev.Open(p.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", p.Path).Msg("failed to open controller")
			continue
		}
		log.Info().Str("name", name).Str("path", p.Path).Msg("controller device found")
		return dev, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// readBatch reads events from src up to and excluding the next SYN_REPORT.
// buf is reused as the backing store.
func readBatch(src Source, buf []evdev.InputEvent) ([]evdev.InputEvent, error) {
	buf = buf[:0]
	for {
		ev, err := src.ReadOne()
		if err != nil {
			return nil, err
		}
		if ev.Type == evdev.EV_SYN && ev.Code == evdev.SYN_REPORT {
			return buf, nil
		}
		buf = append(buf, *ev)
	}
}
