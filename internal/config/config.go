package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default environment variables holding the Zenodo access tokens.
const (
	DefaultTokenEnv        = "ZENODO_TOKEN_UPLOAD"
	DefaultSandboxTokenEnv = "ZENODO_SANDBOX_TOKEN_UPLOAD"
)

// Config represents the main configuration for zs.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Zenodo     ZenodoConfig     `toml:"zenodo"`
	Database   DatabaseConfig   `toml:"database"`
	Mirror     MirrorConfig     `toml:"mirror"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// ZenodoConfig selects the deposition store and where its token comes from.
type ZenodoConfig struct {
	Type      string `toml:"type"`                 // "http" (default) or "memory"
	Sandbox   bool   `toml:"sandbox"`              // use the sandbox server
	APIRoot   string `toml:"api_root,omitempty"`   // overrides the production/sandbox endpoint
	TokenEnv  string `toml:"token_env,omitempty"`  // env var holding the token
	TokenFile string `toml:"token_file,omitempty"` // age-encrypted token, used when the env var is unset
}

// TokenEnvName returns the environment variable the token is read from.
func (z ZenodoConfig) TokenEnvName() string {
	if z.TokenEnv != "" {
		return z.TokenEnv
	}
	if z.Sandbox {
		return DefaultSandboxTokenEnv
	}
	return DefaultTokenEnv
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// DatabaseConfig represents configuration for the run ledger.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// MirrorConfig represents configuration for the manifest mirror.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type MirrorConfig struct {
	Type string `toml:"type"` // "none", "memory", "filesystem" or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Zenodo: ZenodoConfig{
			Type:      "http",
			TokenFile: filepath.Join(baseDir, "keys", "zenodo.token.age"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Mirror: MirrorConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "manifests"),
		},
		Filesystem: FilesystemConfig{
			Ignore: []string{".*", "*.tmp"},
		},
	}
}

// ErrExists is returned by Init when the config file is already present.
var ErrExists = errors.New("config file already exists")

// Validate reports every setting that would make a factory fail later.
func (c *Config) Validate() error {
	var errs []error

	switch c.Zenodo.Type {
	case "", "http", "memory":
	default:
		errs = append(errs, fmt.Errorf("zenodo.type: unknown store %q", c.Zenodo.Type))
	}

	switch c.Database.Type {
	case "sqlite":
		if c.Database.DataDir == "" {
			errs = append(errs, errors.New("database.data_dir: required for sqlite"))
		}
	case "memory":
	case "":
		errs = append(errs, errors.New("database.type: required"))
	default:
		errs = append(errs, fmt.Errorf("database.type: unknown ledger %q", c.Database.Type))
	}

	switch c.Mirror.Type {
	case "", "none", "memory":
	case "filesystem":
		if c.Mirror.FSRoot == "" {
			errs = append(errs, errors.New("mirror.fs_root: required for filesystem mirror"))
		}
	case "s3":
		if c.Mirror.S3Bucket == "" {
			errs = append(errs, errors.New("mirror.s3_bucket: required for s3 mirror"))
		}
	default:
		errs = append(errs, fmt.Errorf("mirror.type: unknown mirror %q", c.Mirror.Type))
	}

	return errors.Join(errs...)
}

// Manager reads and writes the TOML form of Config.
type Manager struct{}

// Read decodes a Config. Keys that match no field are rejected so a typo
// does not silently fall back to a default.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// Write encodes cfg as TOML.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates the config at path. A missing file
// yields an error matching os.ErrNotExist.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	cfg, err := (&Manager{}).Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to a new file at path. The file may name a token file and
// mirror credentials, so it is created owner-readable only.
func Init(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}

	if err := (&Manager{}).Write(f, cfg); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return f.Close()
}
