package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ticketdrop/ticketdrop/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagVerbose    bool
	flagQuiet      bool
)

// trackerClientTimeout bounds tracker HTTP calls at the transport level as
// a backstop; the orchestrator applies the configured per-call timeout on
// top via context.
const trackerClientTimeout = 2 * time.Minute

// defaultHTTPClient returns an HTTP client for metadata-style calls.
// The drive client gets no transport-level timeout because byte streaming
// runs as long as the file is large; its calls are bounded per-stage by
// the orchestrator's contexts instead.
func defaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ticketdrop",
		Short:   "Ticket attachment upload service",
		Long:    "ticketdrop accepts file uploads for tracker tickets, stores them in a shared drive, and confirms on the ticket.",
		Version: version,
		// Silence cobra's default error/usage printing — main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override chain:
// defaults -> config file -> environment variables.
func loadConfig() (*config.Config, error) {
	return config.Resolve(flagConfigPath, config.ReadEnvOverrides())
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win. Format "auto" picks
// the text handler on a terminal and JSON otherwise.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo

	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	format := cfg.Logging.Format
	if format == "auto" {
		if isatty.IsTerminal(os.Stderr.Fd()) {
			format = "text"
		} else {
			format = "json"
		}
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
