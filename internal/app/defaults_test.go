package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name       string
		configPath string
		zsHome     string
		want       Defaults
	}{
		{
			name:       "env vars win",
			configPath: "/custom/config.toml",
			zsHome:     "/custom/zs",
			want: Defaults{
				ConfigPath: "/custom/config.toml",
				BaseDir:    "/custom/zs",
				LogDir:     "/custom/zs/log",
			},
		},
		{
			name: "home dir fallback",
			want: Defaults{
				ConfigPath: filepath.Join(home, ".config", "zs.toml"),
				BaseDir:    filepath.Join(home, ".local", "share", "zs"),
				LogDir:     filepath.Join(home, ".local", "share", "zs", "log"),
			},
		},
		{
			name:       "tilde expanded",
			configPath: "~/zs/zs.toml",
			zsHome:     "~/zs",
			want: Defaults{
				ConfigPath: filepath.Join(home, "zs", "zs.toml"),
				BaseDir:    filepath.Join(home, "zs"),
				LogDir:     filepath.Join(home, "zs", "log"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigPath, tt.configPath)
			t.Setenv(EnvHome, tt.zsHome)

			got, err := GetDefaults()
			if err != nil {
				t.Fatalf("GetDefaults() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("GetDefaults() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
