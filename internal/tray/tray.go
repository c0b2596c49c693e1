package tray

import (
	"net"
	"os/exec"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
	"github.com/rs/zerolog/log"

	"github.com/soar/padkbd/internal/display"
)

// ShutdownFunc is called when "Exit" is clicked
type ShutdownFunc func()

// Actions are the commands reachable from the menu. Nil fields hide their
// menu entries.
type Actions struct {
	ApplyProfile func(display.Profile) error
	LaunchSteam  func() error
	StatusURL    string
}

type profileItem struct {
	profile display.Profile
	item    *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	shutdownFunc ShutdownFunc
	actions      Actions
	once         sync.Once
	stopOnce     sync.Once
	shuttingDown atomic.Bool
	done         chan struct{}
	profiles     []profileItem
	menuSteam    *systray.MenuItem
	menuOpen     *systray.MenuItem
	menuExit     *systray.MenuItem
	clicks       chan func()
}

// New creates a new Tray instance
func New(shutdownFn ShutdownFunc, actions Actions) *Tray {
	return &Tray{
		shutdownFunc: shutdownFn,
		actions:      actions,
		clicks:       make(chan func()),
		done:         make(chan struct{}),
	}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	t.stop()
	systray.Quit()
}

// stop releases the click forwarders and the click handler.
func (t *Tray) stop() {
	t.stopOnce.Do(func() {
		t.shuttingDown.Store(true)
		close(t.done)
	})
}

// onReady is called when the tray is ready
func (t *Tray) onReady() {
	systray.SetIcon(Icon())
	systray.SetTitle("padkbd")
	systray.SetTooltip("padkbd - gamepad keyboard")

	if t.actions.ApplyProfile != nil {
		for _, p := range display.Profiles {
			item := systray.AddMenuItem(p.Title(), "Switch display layout")
			t.profiles = append(t.profiles, profileItem{profile: p, item: item})
		}
		systray.AddSeparator()
	}
	if t.actions.LaunchSteam != nil {
		t.menuSteam = systray.AddMenuItem("Steam Big Picture", "Switch to the TV and start Steam")
	}
	if t.actions.StatusURL != "" {
		t.menuOpen = systray.AddMenuItem("Open status page", t.actions.StatusURL)
	}
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")

	// Each menu item gets its own forwarder; handleMenuClicks runs the actions
	for _, p := range t.profiles {
		go t.forward(p.item.ClickedCh, func() { t.applyProfile(p.profile) })
	}
	if t.menuSteam != nil {
		go t.forward(t.menuSteam.ClickedCh, t.launchSteam)
	}
	if t.menuOpen != nil {
		go t.forward(t.menuOpen.ClickedCh, t.openBrowser)
	}
	go t.handleMenuClicks()

	log.Info().Msg("system tray initialized")
}

// forward hands clicks to handleMenuClicks until the tray stops.
func (t *Tray) forward(clicked <-chan struct{}, action func()) {
	for {
		select {
		case <-t.done:
			return
		case <-clicked:
			select {
			case t.clicks <- action:
			case <-t.done:
				return
			}
		}
	}
}

// handleMenuClicks processes menu item clicks without blocking
func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.done:
			return
		case action := <-t.clicks:
			if !t.shuttingDown.Load() {
				action()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				t.stop()
				systray.Quit()
				return
			}
		}
	}
}

// onExit is called when the tray is exiting
func (t *Tray) onExit() {
	t.stop()
	log.Info().Msg("system tray exiting")
}

func (t *Tray) applyProfile(p display.Profile) {
	if err := t.actions.ApplyProfile(p); err != nil {
		log.Error().Err(err).Str("profile", string(p)).Msg("failed to apply display profile")
		return
	}
	log.Info().Str("profile", string(p)).Msg("display profile applied")
}

func (t *Tray) launchSteam() {
	if err := t.actions.LaunchSteam(); err != nil {
		log.Error().Err(err).Msg("failed to start steam from tray")
	}
}

// openBrowser opens the status page in the default web browser
func (t *Tray) openBrowser() {
	if err := exec.Command("xdg-open", t.actions.StatusURL).Start(); err != nil {
		log.Warn().Err(err).Msg("failed to open browser")
	}
}

// StatusURL turns a listen address into a URL a browser can open.
func StatusURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}
