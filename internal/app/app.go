package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/tally/internal/config"
	"github.com/five82/tally/internal/finala"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/urlstate"
	"github.com/five82/tally/internal/ui"
)

// Options configure a tally session.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/tally/prefs.toml
	URL        string        // overrides ui_url
	PollEvery  time.Duration // zero uses poll_interval
	Query      string        // opens this view instead of the saved one
	Verbose    bool
	Debug      bool
}

// LoadConfig loads the config file and applies command-line overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load tally config: %w", err)
	}
	if u := strings.TrimSpace(opts.URL); u != "" {
		cfg.UIURL = u
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}
	return cfg, nil
}

// LogLevel resolves the log level. --debug wins over --verbose, and both win
// over log_level.
func LogLevel(cfg config.Config, verbose, debug bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case verbose:
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// OpenLog opens the dashboard log file for appending. The terminal belongs to
// the UI while it runs.
func OpenLog(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(handler), file, nil
}

// Connect builds a Finala client and logs in when credentials are configured.
// Settings are loaded first so the login lands on the advertised API origin.
func Connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*finala.Client, error) {
	client, err := finala.NewClient(cfg.UIURL,
		finala.WithAPIURL(cfg.APIURL),
		finala.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("init finala client: %w", err)
	}
	if cfg.APIURL == "" {
		if _, err := client.FetchSettings(ctx); err != nil {
			logger.Debug("settings unavailable, using ui origin", "error", err)
		}
	}
	if !cfg.HasCredentials() {
		return client, nil
	}
	ok, err := client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("login as %s: %w", cfg.Username, finala.ErrUnauthorized)
	}
	logger.Info("logged in", "user", cfg.Username, "api", client.BaseURL())
	return client, nil
}

// Run boots the tally dashboard until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	logger, logFile, err := OpenLog(cfg.LogFile, LogLevel(cfg, opts.Verbose, opts.Debug))
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger.Info("starting dashboard", "ui", cfg.UIURL, "poll", cfg.PollInterval.String())

	client, err := Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	orch := NewOrchestrator(OrchestratorOptions{
		Fetcher: client,
		History: urlstate.NewFileHistory(opts.PrefsPath),
		Delay:   cfg.PollInterval,
		Logger:  logger,
		Query:   opts.Query,
	})
	if err := orch.Mount(ctx); err != nil {
		return fmt.Errorf("start pollers: %w", err)
	}
	defer orch.Unmount()

	return ui.Run(ctx, ui.Options{
		Controller: orch,
		ThemeName:  userPrefs.Theme,
		PrefsPath:  opts.PrefsPath,
		UIURL:      cfg.UIURL,
	})
}
