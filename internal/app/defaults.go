package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables read by the application.
const (
	EnvConfigPath      = "ZS_CONFIG_PATH"
	EnvHome            = "ZS_HOME"
	EnvTokenPassphrase = "ZS_TOKEN_PASSPHRASE"
)

// Defaults are the locations used when the config does not say otherwise.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults resolves the default locations:
//   - ZS_CONFIG_PATH: config file (default ~/.config/zs.toml)
//   - ZS_HOME: data directory holding the ledger, logs, mirror and token
//     (default ~/.local/share/zs)
//
// A leading ~/ in either variable is expanded.
func GetDefaults() (*Defaults, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	d := &Defaults{
		ConfigPath: fromEnv(EnvConfigPath, home, filepath.Join(home, ".config", "zs.toml")),
		BaseDir:    fromEnv(EnvHome, home, filepath.Join(home, ".local", "share", "zs")),
	}
	d.LogDir = filepath.Join(d.BaseDir, "log")
	return d, nil
}

func fromEnv(name, home, fallback string) string {
	v := os.Getenv(name)
	switch {
	case v == "":
		return fallback
	case v == "~":
		return home
	case strings.HasPrefix(v, "~/"):
		return filepath.Join(home, v[2:])
	default:
		return v
	}
}
