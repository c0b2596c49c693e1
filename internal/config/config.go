// Package config loads padkbd settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soar/padkbd/internal/presence"
)

const (
	DefaultControllerName = "Generic X-Box pad"
	DefaultKeyboardName   = "padkbd virtual keyboard"
	DefaultProcess        = "steam"
	DefaultStatusAddr     = "127.0.0.1:8080"
	envPrefix             = "PADKBD"
)

// Config is the resolved runtime configuration.
type Config struct {
	ControllerName string
	KeyboardName   string
	Process        string
	PollInterval   time.Duration
	ArmWhen        presence.ArmWhen
	LogLevel       string
	LogFormat      string
	StatusEnabled  bool
	StatusAddr     string
	TrayEnabled    bool
}

// Loader wraps a viper instance bound to the daemon flags.
type Loader struct {
	v *viper.Viper
}

// RegisterFlags adds the daemon flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "config file (default: search $XDG_CONFIG_HOME/padkbd, /etc/padkbd)")
	fs.String("controller", DefaultControllerName, "exact name of the controller input device")
	fs.String("keyboard-name", DefaultKeyboardName, "name of the virtual keyboard")
	fs.String("process", DefaultProcess, "name of the process to watch")
	fs.Duration("interval", presence.DefaultInterval, "process table polling interval")
	fs.String("arm-when", string(presence.ArmWhenAbsent), "arm emulation while the process is absent|present")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "console", "log format (console, json)")
	fs.Bool("status", true, "serve the status page and websocket feed")
	fs.String("status-addr", DefaultStatusAddr, "status server listen address")
	fs.Bool("tray", false, "show a system tray menu")
}

var flagKeys = map[string]string{
	"controller":    "controller.name",
	"keyboard-name": "keyboard.name",
	"process":       "presence.process",
	"interval":      "presence.interval",
	"arm-when":      "presence.arm_when",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"status":        "status.enabled",
	"status-addr":   "status.addr",
	"tray":          "tray.enabled",
}

// NewLoader binds fs (which must carry RegisterFlags) and reads the config
// file if one is given or found.
func NewLoader(fs *pflag.FlagSet) (*Loader, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for flag, key := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	path := ""
	if f := fs.Lookup("config"); f != nil {
		path = f.Value.String()
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("padkbd")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Loader{v: v}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("controller.name", DefaultControllerName)
	v.SetDefault("keyboard.name", DefaultKeyboardName)
	v.SetDefault("presence.process", DefaultProcess)
	v.SetDefault("presence.interval", presence.DefaultInterval)
	v.SetDefault("presence.arm_when", string(presence.ArmWhenAbsent))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("status.enabled", true)
	v.SetDefault("status.addr", DefaultStatusAddr)
	v.SetDefault("tray.enabled", false)
}

func searchPaths() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "padkbd"))
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "padkbd"))
	}
	return append(dirs, "/etc/padkbd")
}

// ConfigFile is the file that was read, or "".
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Load resolves and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	armWhen, err := presence.ParseArmWhen(l.v.GetString("presence.arm_when"))
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		ControllerName: l.v.GetString("controller.name"),
		KeyboardName:   l.v.GetString("keyboard.name"),
		Process:        l.v.GetString("presence.process"),
		PollInterval:   l.v.GetDuration("presence.interval"),
		ArmWhen:        armWhen,
		LogLevel:       l.v.GetString("log.level"),
		LogFormat:      l.v.GetString("log.format"),
		StatusEnabled:  l.v.GetBool("status.enabled"),
		StatusAddr:     l.v.GetString("status.addr"),
		TrayEnabled:    l.v.GetBool("tray.enabled"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that have no safe fallback.
func (c *Config) Validate() error {
	if c.ControllerName == "" {
		return errors.New("controller name must not be empty")
	}
	if c.KeyboardName == "" {
		return errors.New("keyboard name must not be empty")
	}
	if c.Process == "" {
		return errors.New("process name must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.StatusEnabled && c.StatusAddr == "" {
		return errors.New("status address must not be empty when the status server is enabled")
	}
	return nil
}

// Watch reloads the config file on change and calls fn with the new
// configuration. Invalid edits are reported through onErr and otherwise ignored.
func (l *Loader) Watch(fn func(*Config), onErr func(error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			onErr(err)
			return
		}
		fn(cfg)
	})
	l.v.WatchConfig()
}
