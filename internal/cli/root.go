// Package cli implements the fingerstore command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildfp/fingerstore/internal/config"
	"github.com/buildfp/fingerstore/internal/identity"
	"github.com/buildfp/fingerstore/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides config when set
	KeyPath    string // overrides config when set
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the fingerstore CLI.
// A nil level disables verbose log level switching.
func NewRootCommand(level *slog.LevelVar) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fingerstore",
		Short: "Relational storage for build artifact fingerprints",
		Long: `fingerstore persists fingerprint records - content-addressed tracking
objects linking build artifacts across jobs - into SQLite and reconstructs
them on demand.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose && level != nil {
				level.Set(slog.LevelDebug)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.KeyPath, "key", "", "path to identity key file (overrides config)")

	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

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

// openStore resolves config, flags and identity into a ready store.
// The caller owns the returned store and must Close it.
func openStore(opts *RootOptions) (*store.Store, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.KeyPath != "" {
		cfg.Identity.KeyPath = opts.KeyPath
	}

	ident, err := identity.Load(cfg.Identity.KeyPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load instance identity", err)
	}

	st, err := store.New(store.Options{
		Path:        cfg.Database.Path,
		InstanceID:  ident.ID,
		BusyTimeout: time.Duration(cfg.Database.BusyTimeout),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return st, nil
}

// timestampOrNow fills a missing timestamp with the current time.
func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
