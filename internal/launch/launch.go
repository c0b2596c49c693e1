// Package launch starts the Steam Big Picture session.
package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/soar/padkbd/internal/display"
)

const (
	steamBinary    = "steam"
	bigPictureURL  = "steam://open/bigpicture"
	steamWorkspace = "workspace 8"
)

// Command is the Steam invocation.
func Command() (string, []string) {
	return steamBinary, []string{steamBinary, bigPictureURL}
}

// Prepare switches to the TV layout and the Steam workspace.
func Prepare(ctx context.Context, c display.Commander) error {
	if err := display.TVOnly.Apply(ctx, c); err != nil {
		return err
	}
	return display.Run(ctx, c, steamWorkspace)
}

// SteamMode prepares the session and then replaces the current process with
// Steam. It only returns on failure.
func SteamMode(ctx context.Context, c display.Commander) error {
	if err := Prepare(ctx, c); err != nil {
		return err
	}
	name, argv := Command()
	path, err := exec.LookPath(name)
	if err != nil {
		log.Error().Err(err).Msg("failed to launch steam")
		return fmt.Errorf("launch steam: %w", err)
	}
	err = unix.Exec(path, argv, os.Environ())
	log.Error().Err(err).Msg("failed to launch steam")
	return fmt.Errorf("launch steam: %w", err)
}

// Start prepares the session and runs Steam as a detached child.
func Start(ctx context.Context, c display.Commander) error {
	if err := Prepare(ctx, c); err != nil {
		return err
	}
	name, argv := Command()
	cmd := exec.Command(name, argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Msg("failed to launch steam")
		return fmt.Errorf("launch steam: %w", err)
	}
	log.Info().Int("pid", cmd.Process.Pid).Msg("steam launched")
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warn().Err(err).Msg("steam exited")
		}
	}()
	return nil
}
