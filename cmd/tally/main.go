package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/tally/internal/app"
)

// build-time override (e.g. -ldflags "-X main.version=1.2.3")
var version = "dev"

// Global (root-level) flag variables
var (
	flagConfig  string
	flagPrefs   string
	flagURL     string
	flagPoll    time.Duration
	flagView    string
	flagVerbose bool
	flagDebug   bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tally: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// newRootCmd creates the root Cobra command. Without a subcommand it runs the
// dashboard.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Terminal dashboard for Finala cost scans",
		Long: strings.TrimSpace(`
tally - Terminal dashboard for Finala

Runs an interactive dashboard over a Finala backend: per-resource spend for
the selected execution, the resources behind each total, and tag or account
filters. The current view is saved and can be shared as a query string that
the Finala web UI understands.

Subcommands print the same data once for scripts.`),
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initLogging()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), rootOptions())
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.config/tally/config.toml)")
	cmd.PersistentFlags().StringVar(&flagURL, "url", "", "Finala UI URL (overrides ui_url)")
	cmd.PersistentFlags().StringVar(&flagView, "view", "", "Open a shared view (query string or Finala URL)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (info) logging")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging (overrides --verbose)")
	cmd.Flags().StringVar(&flagPrefs, "prefs", "", "Preferences file (default ~/.config/tally/prefs.toml)")
	cmd.Flags().DurationVar(&flagPoll, "poll", 0, "Refresh interval while scanning (overrides poll_interval)")
	cmd.Version = version

	cmd.AddCommand(newSummaryCmd())
	cmd.AddCommand(newResourcesCmd())
	cmd.AddCommand(newExecutionsCmd())
	cmd.AddCommand(newURLCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func rootOptions() app.Options {
	return app.Options{
		ConfigPath: flagConfig,
		PrefsPath:  flagPrefs,
		URL:        flagURL,
		PollEvery:  flagPoll,
		Query:      flagView,
		Verbose:    flagVerbose,
		Debug:      flagDebug,
	}
}

// initLogging sends one-shot command logs to stderr. The dashboard opens its
// own log file.
func initLogging() {
	var level slog.Level
	switch {
	case flagDebug:
		level = slog.LevelDebug
	case flagVerbose:
		level = slog.LevelInfo
	default:
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging initialized", "level", level.String())
}

// newVersionCmd prints version info.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tally version: %s\n", version)
		},
	}
}
