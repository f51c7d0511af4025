// Package cli holds the flag and setup plumbing shared by the laydoc
// binaries.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gardar/laydoc/pkg/config"
	"github.com/gardar/laydoc/pkg/logging"
)

// Globals are the persistent flags every binary accepts
type Globals struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// Bind registers the global flags on the root command
func (g *Globals) Bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "Configuration file path (YAML)")
	flags.StringVar(&g.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&g.LogFormat, "log-format", "", "Log format: console or json (default depends on the terminal)")
}

// Setup loads the configuration and builds the logger. Log flags override
// the file values.
func (g *Globals) Setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// Progress returns where progress bars should be drawn: stderr when it is
// a terminal, nowhere otherwise.
func Progress(cmd *cobra.Command) io.Writer {
	w := cmd.ErrOrStderr()
	if logging.IsTerminal(w) {
		return w
	}
	return nil
}

// SignalContext derives a context cancelled on SIGINT or SIGTERM
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
