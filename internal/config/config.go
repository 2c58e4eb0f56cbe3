package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config captures where the Finala backend lives and how tally talks to it.
type Config struct {
	UIURL          string
	APIURL         string
	Username       string
	Password       string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	LogFile        string
	LogLevel       string
}

const (
	defaultConfigPath     = "~/.config/tally/config.toml"
	defaultUIURL          = "http://127.0.0.1:8080"
	defaultPollInterval   = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultLogFile        = "~/.local/state/tally/tally.log"
	defaultLogLevel       = "info"

	passwordEnv = "TALLY_PASSWORD"
)

type rawConfig struct {
	UIURL          string `toml:"ui_url" yaml:"ui_url"`
	APIURL         string `toml:"api_url" yaml:"api_url"`
	Username       string `toml:"username" yaml:"username"`
	Password       string `toml:"password" yaml:"password"`
	PollInterval   string `toml:"poll_interval" yaml:"poll_interval"`
	RequestTimeout string `toml:"request_timeout" yaml:"request_timeout"`
	LogFile        string `toml:"log_file" yaml:"log_file"`
	LogLevel       string `toml:"log_level" yaml:"log_level"`
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{
		UIURL:          defaultUIURL,
		PollInterval:   defaultPollInterval,
		RequestTimeout: defaultRequestTimeout,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
	}
	cfg.Password = os.Getenv(passwordEnv)
	return cfg
}

// Load locates and parses the tally config, falling back to defaults when
// missing. Paths ending in .yaml or .yml are parsed as YAML, anything else as
// TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	return raw.apply(Default())
}

func (raw rawConfig) apply(cfg Config) (Config, error) {
	if v := strings.TrimSpace(raw.UIURL); v != "" {
		cfg.UIURL = v
	}
	cfg.APIURL = strings.TrimSpace(raw.APIURL)
	cfg.Username = strings.TrimSpace(raw.Username)
	if raw.Password != "" {
		cfg.Password = raw.Password
	}

	if v := strings.TrimSpace(raw.PollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("parse config: poll_interval %q is not a positive duration", v)
		}
		cfg.PollInterval = d
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("parse config: request_timeout %q is not a positive duration", v)
		}
		cfg.RequestTimeout = d
	}

	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	return cfg, nil
}

// HasCredentials reports whether a login should be attempted.
func (c Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
