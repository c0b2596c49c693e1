// Package display switches between the desk and TV output layouts through
// the sway IPC socket.
package display

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshuarubin/go-sway"
	"github.com/rs/zerolog/log"
)

// Commander runs sway commands.
type Commander interface {
	RunCommand(ctx context.Context, command string) ([]sway.RunCommandReply, error)
}

// Connect opens the sway IPC socket named by $SWAYSOCK. The connection is
// closed when ctx is done.
func Connect(ctx context.Context) (Commander, error) {
	c, err := sway.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to sway: %w", err)
	}
	return c, nil
}

// Screen is one physical output.
type Screen struct {
	ID          string
	Resolution  string
	Position    string
	RefreshRate string
}

var (
	Desktop = Screen{ID: "DP-2", Resolution: "3440x1440", Position: "1920 0", RefreshRate: "59.999Hz"}
	TV      = Screen{ID: "HDMI-A-1", Resolution: "1920x1080", Position: "0 0", RefreshRate: "59.999Hz"}
)

func (s Screen) placeCommand() string {
	return fmt.Sprintf("output %s pos %s res %s@%s", s.ID, s.Position, s.Resolution, s.RefreshRate)
}

func (s Screen) Place(ctx context.Context, c Commander) error {
	return run(ctx, c, s.placeCommand())
}

func (s Screen) Enable(ctx context.Context, c Commander) error {
	return run(ctx, c, fmt.Sprintf("output %s enable", s.ID))
}

func (s Screen) Disable(ctx context.Context, c Commander) error {
	return run(ctx, c, fmt.Sprintf("output %s disable", s.ID))
}

// Profile is a named output layout.
type Profile string

const (
	TVOnly       Profile = "tv"
	DesktopOnly  Profile = "desktop"
	TVAndDesktop Profile = "hybrid"
)

// Profiles lists every layout in menu order.
var Profiles = []Profile{DesktopOnly, TVOnly, TVAndDesktop}

// ParseProfile maps a user supplied name to a Profile.
func ParseProfile(name string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Profiles {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown display profile %q", name)
}

// Title is the menu label for p.
func (p Profile) Title() string {
	switch p {
	case TVOnly:
		return "TV"
	case DesktopOnly:
		return "Desktop"
	case TVAndDesktop:
		return "Hybrid"
	default:
		return string(p)
	}
}

// Apply issues the commands for p. It stops at the first failure.
func (p Profile) Apply(ctx context.Context, c Commander) error {
	var steps []func(context.Context, Commander) error
	switch p {
	case TVOnly:
		steps = append(steps, TV.Place, TV.Enable, Desktop.Disable)
	case DesktopOnly:
		steps = append(steps, Desktop.Place, Desktop.Enable, TV.Disable)
	case TVAndDesktop:
		steps = append(steps, TV.Place, TV.Enable, Desktop.Place, Desktop.Enable)
	default:
		return fmt.Errorf("unknown display profile %q", p)
	}
	for _, step := range steps {
		if err := step(ctx, c); err != nil {
			return fmt.Errorf("apply %s profile: %w", p, err)
		}
	}
	log.Info().Str("profile", string(p)).Msg("display profile applied")
	return nil
}

// Run executes a single command and turns a failed reply into an error.
func Run(ctx context.Context, c Commander, command string) error {
	return run(ctx, c, command)
}

func run(ctx context.Context, c Commander, command string) error {
	log.Debug().Str("command", command).Msg("sway command")
	replies, err := c.RunCommand(ctx, command)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	var errs []error
	for _, r := range replies {
		if !r.Success {
			errs = append(errs, errors.New(r.Error))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", command, errors.Join(errs...))
	}
	return nil
}
