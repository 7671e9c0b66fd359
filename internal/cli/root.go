package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ivanyeors/ai-analytics-platform/internal/config"
	"github.com/ivanyeors/ai-analytics-platform/internal/engine"
	"github.com/ivanyeors/ai-analytics-platform/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string // --db; overrides the config file
	ConfigPath string // --config

	// Config is loaded by the root command before any subcommand runs.
	// Subcommands built directly (as in tests) see the zero value and fall
	// back to config.Default().
	Config config.Config

	// Source overrides the engine's host source (for testing).
	// If nil, defaults to engine.SystemSource.
	Source engine.Source

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the analytics CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Analytics reducer store",
		Long: `Categorised time-series data points behind a set of atomic reducers.

Every write goes through a reducer that runs in one SQLite transaction and
is recorded in the reducer call log. Reads use the query commands.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.Config = cfg
			opts.logger = newLogger(cmd.ErrOrStderr(), cfg.Log, opts.Verbose)
			slog.SetDefault(opts.logger)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a .cue or .json config file")

	// Reducers
	cmd.AddCommand(NewAddPointCommand(opts))
	cmd.AddCommand(NewAddCategoryCommand(opts))
	cmd.AddCommand(NewUpdatePointCommand(opts))
	cmd.AddCommand(NewDeletePointCommand(opts))
	cmd.AddCommand(NewDeleteCategoryCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewCallCommand(opts))

	// Reads
	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))

	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger builds the process logger. Logs always go to w (stderr) so
// they never mix with command output. --verbose forces debug level.
func newLogger(w io.Writer, cfg config.LogConfig, verbose bool) *slog.Logger {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// Logger returns the configured logger, or slog.Default() if the root
// command has not run.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}

// DatabasePath resolves the database path: --db, then the config file, then
// the schema default.
func (o *RootOptions) DatabasePath() string {
	if o.Database != "" {
		return o.Database
	}
	if o.Config.Database != "" {
		return o.Config.Database
	}
	return config.Default().Database
}

// sampleDefault returns the configured default point count for generate.
func (o *RootOptions) sampleDefault() uint32 {
	if o.Config == (config.Config{}) {
		return config.Default().Sample.Points
	}
	return o.Config.Sample.Points
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	path := o.DatabasePath()
	o.Logger().Debug("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// openEngine opens the database and an engine whose logical clock resumes
// after the last logged call. The caller must close the returned store.
func (o *RootOptions) openEngine(ctx context.Context) (*engine.Engine, *store.Store, error) {
	st, err := o.openStore()
	if err != nil {
		return nil, nil, err
	}

	seq, err := st.LastSeq(ctx)
	if err != nil {
		st.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to read reducer log", err)
	}

	src := o.Source
	if src == nil {
		src = engine.SystemSource{}
	}

	eng := engine.New(st, src,
		engine.WithClock(engine.NewClockAt(seq)),
		engine.WithLogger(o.Logger()),
	)
	return eng, st, nil
}

// commandContext returns the command's context, or Background if unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
