package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all environment-based configuration for clip-sync.
type Config struct {
	// Base URL of the alist server, without a trailing slash.
	ServerURL string `env:"ALIST_SERVER" envDefault:"http://localhost:5244"`

	// Credentials used to obtain a token when ALIST_TOKEN is not supplied.
	Username string `env:"ALIST_USERNAME" envDefault:"admin"`
	Password string `env:"ALIST_PASSWORD" envDefault:"password"`

	// Remote directory treated as the single clipboard slot.
	ClipboardDir string `env:"ALIST_CLIPBOARD_DIR" envDefault:"/host/clipboard"`

	// Pre-issued token. When set, no login call is made and the token is
	// used as-is.
	Token string `env:"ALIST_TOKEN"`

	// Go reference-time layout used in uploaded filenames.
	TimeFormat string `env:"TIME_FORMAT" envDefault:"20060102_150405"`

	// Environment controls log format.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Optional YAML config file. Values from the file only apply to
	// settings not present in the environment.
	ConfigFile string `env:"CLIP_SYNC_CONFIG"`
}

// fileConfig mirrors Config for the optional YAML config file.
type fileConfig struct {
	Server       string `yaml:"server"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	ClipboardDir string `yaml:"clipboard_dir"`
	Token        string `yaml:"token"`
	TimeFormat   string `yaml:"time_format"`
	Environment  string `yaml:"environment"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing credentials to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables. It first attempts
// to load a .env file if present, then parses env vars, then overlays
// values from the optional YAML config file for settings the environment
// did not provide.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.applyFile(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	cfg.ClipboardDir = "/" + strings.Trim(cfg.ClipboardDir, "/")

	return cfg, nil
}

// applyFile overlays values from the YAML config file. Environment
// variables always win: a file value is applied only when the matching
// env var was not set at all. The default file is ignored when missing;
// an explicitly configured file must exist.
func (c *Config) applyFile() error {
	path := c.ConfigFile

	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}

		path = filepath.Join(home, ".clip-sync", "config.yaml")
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator's own config
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}

		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	overlay := func(envKey string, dst *string, val string) {
		if val == "" {
			return
		}

		if _, set := os.LookupEnv(envKey); set {
			return
		}

		*dst = val
	}

	overlay("ALIST_SERVER", &c.ServerURL, fc.Server)
	overlay("ALIST_USERNAME", &c.Username, fc.Username)
	overlay("ALIST_PASSWORD", &c.Password, fc.Password)
	overlay("ALIST_CLIPBOARD_DIR", &c.ClipboardDir, fc.ClipboardDir)
	overlay("ALIST_TOKEN", &c.Token, fc.Token)
	overlay("TIME_FORMAT", &c.TimeFormat, fc.TimeFormat)
	overlay("ENVIRONMENT", &c.Environment, fc.Environment)

	return nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ALIST_SERVER must be a valid URL, got %q", c.ServerURL)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("ALIST_SERVER must use http or https, got %q", u.Scheme)
	}

	if c.ClipboardDir == "" {
		return fmt.Errorf("ALIST_CLIPBOARD_DIR must not be empty")
	}

	if c.Token == "" && (c.Username == "" || c.Password == "") {
		return fmt.Errorf("ALIST_USERNAME and ALIST_PASSWORD are required when ALIST_TOKEN is not set")
	}

	if c.TimeFormat == "" {
		return fmt.Errorf("TIME_FORMAT must not be empty")
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
