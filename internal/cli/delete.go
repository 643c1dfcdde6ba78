package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <hash>...",
		Short: "Delete fingerprints by hash",
		Long: `Delete the fingerprints with the given content hashes, including all
their usage and facet rows. Deleting an absent hash is a no-op.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args, cmd)
		},
	}
}

func runDelete(opts *RootOptions, hashes []string, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, hash := range hashes {
		if err := st.Delete(cmd.Context(), hash); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to delete %s", hash), err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d fingerprint(s)\n", len(hashes))
	return nil
}
