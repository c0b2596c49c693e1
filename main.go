package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/soar/padkbd/internal/config"
	"github.com/soar/padkbd/internal/display"
	"github.com/soar/padkbd/internal/event"
	"github.com/soar/padkbd/internal/gamepad"
	"github.com/soar/padkbd/internal/hub"
	"github.com/soar/padkbd/internal/launch"
	"github.com/soar/padkbd/internal/logging"
	"github.com/soar/padkbd/internal/presence"
	"github.com/soar/padkbd/internal/server"
	"github.com/soar/padkbd/internal/tray"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

const (
	busSize         = 256
	shutdownTimeout = 5 * time.Second
	swayTimeout     = 10 * time.Second
)

func main() {
	fs := pflag.NewFlagSet("padkbd", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  padkbd [flags]\n  padkbd display <%s|%s|%s>\n  padkbd steam\n\nFlags:\n",
			display.TVOnly, display.DesktopOnly, display.TVAndDesktop)
		fs.PrintDefaults()
	}
	config.RegisterFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	loader, err := config.NewLoader(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if _, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	args := fs.Args()
	switch {
	case len(args) == 0:
		err = runDaemon(ctx, cfg, loader)
	case args[0] == "display" && len(args) == 2:
		err = runDisplay(ctx, args[1])
	case args[0] == "steam" && len(args) == 1:
		err = runSteam(ctx)
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Msg("padkbd failed")
		stop()
		os.Exit(1)
	}
}

func runDisplay(ctx context.Context, name string) error {
	p, err := display.ParseProfile(name)
	if err != nil {
		return err
	}
	c, err := display.Connect(ctx)
	if err != nil {
		return err
	}
	return p.Apply(ctx, c)
}

func runSteam(ctx context.Context) error {
	c, err := display.Connect(ctx)
	if err != nil {
		return err
	}
	return launch.SteamMode(ctx, c)
}

// swaySession opens a short lived sway connection per request so the
// daemon keeps working across compositor restarts.
type swaySession struct{}

func (swaySession) ApplyProfile(name string) error {
	p, err := display.ParseProfile(name)
	if err != nil {
		return err
	}
	return withSway(func(ctx context.Context, c display.Commander) error {
		return p.Apply(ctx, c)
	})
}

func (swaySession) LaunchSteam() error {
	return withSway(launch.Start)
}

func withSway(fn func(context.Context, display.Commander) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), swayTimeout)
	defer cancel()
	c, err := display.Connect(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, c)
}

func runDaemon(ctx context.Context, cfg *config.Config, loader *config.Loader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if file := loader.ConfigFile(); file != "" {
		log.Info().Str("file", file).Msg("using config file")
	}
	loader.Watch(func(next *config.Config) {
		if err := logging.SetLevel(next.LogLevel); err != nil {
			log.Warn().Err(err).Msg("ignoring log level change")
			return
		}
		log.Info().Str("level", next.LogLevel).Msg("config reloaded, other changes apply on restart")
	}, func(err error) {
		log.Warn().Err(err).Msg("ignoring invalid config change")
	})

	bus := event.NewBus(busSize)

	engineCfg := gamepad.Config{
		ControllerName: cfg.ControllerName,
		KeyboardName:   cfg.KeyboardName,
	}
	sup := presence.New(presence.Config{
		Process:  cfg.Process,
		Interval: cfg.PollInterval,
		ArmWhen:  cfg.ArmWhen,
	}, presence.SystemProcesses{}, func(ctx context.Context) error {
		return gamepad.Emulate(ctx, engineCfg, gamepad.Options{Bus: bus})
	}, bus)

	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		if err := sup.Run(ctx); err != nil {
			log.Error().Err(err).Msg("presence supervisor stopped")
		}
	}()

	var srv *server.Server
	serverErrCh := make(chan error, 1)
	if cfg.StatusEnabled {
		h := hub.NewHub()
		go h.Run(ctx)

		broadcaster := hub.NewBroadcaster(h, bus.C())
		go broadcaster.Run(ctx)

		srv = server.New(h, broadcaster, swaySession{}, getFrontendFS(), cfg.StatusAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrCh <- err
			}
		}()
	}

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})
	var t *tray.Tray
	if cfg.TrayEnabled {
		actions := tray.Actions{
			ApplyProfile: func(p display.Profile) error { return swaySession{}.ApplyProfile(string(p)) },
			LaunchSteam:  swaySession{}.LaunchSteam,
		}
		if cfg.StatusEnabled {
			actions.StatusURL = tray.StatusURL(cfg.StatusAddr)
		}
		t = tray.New(func() { close(shutdownRequested) }, actions)
		go t.Run()
	}

	log.Info().Msg("padkbd started, press Ctrl+C to exit")

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case <-shutdownRequested:
		log.Info().Msg("shutdown requested from tray")
	case err := <-serverErrCh:
		runErr = fmt.Errorf("status server: %w", err)
	}
	cancel()

	// Supervisor cancels the engine on its way out
	<-supervisorDone

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("status server shutdown error")
		}
	}
	if t != nil {
		t.Quit()
	}

	log.Info().Msg("padkbd stopped")
	return runErr
}
