package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	EnvAPIURL = "LINTRA_API_URL"
	EnvHome   = "LINTRA_HOME"
)

// Duration is a time.Duration written as "40s" in the config file.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type BoardConfig struct {
	ScrollEdge    int      `toml:"scroll_edge"`
	ScrollStep    int      `toml:"scroll_step"`
	FrameInterval Duration `toml:"frame_interval"`
}

type Config struct {
	APIURL            string      `toml:"api_url"`
	RequestTimeout    Duration    `toml:"request_timeout"`
	RollbackOnFailure bool        `toml:"rollback_on_failure"`
	LogLevel          string      `toml:"log_level"`
	Board             BoardConfig `toml:"board"`
}

func DefaultConfig() *Config {
	return &Config{
		APIURL:            "http://localhost:3333/api",
		RequestTimeout:    Duration{40 * time.Second},
		RollbackOnFailure: true,
		LogLevel:          "info",
		Board: BoardConfig{
			ScrollEdge:    80,
			ScrollStep:    12,
			FrameInterval: Duration{16 * time.Millisecond},
		},
	}
}

// Validate checks the values a hand-edited file can get wrong.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url %q is not an absolute URL", c.APIURL)
	}
	if c.RequestTimeout.Duration <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.Board.ScrollEdge < 0 || c.Board.ScrollStep < 0 {
		return errors.New("board scroll settings must not be negative")
	}
	if c.Board.FrameInterval.Duration <= 0 {
		return errors.New("board frame_interval must be positive")
	}
	return nil
}

// LintraDir is ~/.lintra unless LINTRA_HOME points elsewhere.
func LintraDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return expandPath(dir), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".lintra"), nil
}

func ConfigPath() (string, error) {
	return inDir("config.toml")
}

func DatabasePath() (string, error) {
	return inDir("db", "lintra.sqlite")
}

func LogPath() (string, error) {
	return inDir("lintra.log")
}

// SessionPath holds the API session cookies shared by the CLI and the TUI.
func SessionPath() (string, error) {
	return inDir("session.json")
}

func inDir(elem ...string) (string, error) {
	dir, err := LintraDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, elem...)...), nil
}

func EnsureDirectories() error {
	dir, err := LintraDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(dir, "db"), 0755)
}

// Load reads the config file, writing the defaults first when it does not
// exist, then applies environment overrides.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := EnsureDirectories(); err != nil {
			return nil, err
		}
		if err := Save(cfg); err != nil {
			return nil, err
		}
	} else if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("read %s: %w", configPath, err)
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}
	return cfg, nil
}

func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
