package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/buildfp/fingerstore/internal/fingerprint"
)

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <file.json>...",
		Short: "Persist fingerprint documents",
		Long: `Persist one or more fingerprint documents. Each file holds a single
JSON document with the fingerprint metadata, usage map and facet array.
Saving a hash that already exists replaces its whole row set.

Example:
  fingerstore save --db ./fingerprints.db build-artifacts.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd.Context(), rootOpts, args, cmd)
		},
	}
}

func runSave(ctx context.Context, opts *RootOptions, files []string, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	codec := fingerprint.JSONCodec{}
	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		g.Go(func() error {
			data, err := os.ReadFile(file)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read fingerprint document", err)
			}
			fp, err := codec.DecodeFingerprint(data)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid fingerprint document %s", file), err)
			}
			fp.Timestamp = timestampOrNow(fp.Timestamp)
			if err := st.Save(ctx, fp); err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("failed to save %s", fp.Hash), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %d fingerprint(s)\n", len(files))
	return nil
}
