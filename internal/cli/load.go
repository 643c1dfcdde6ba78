package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildfp/fingerstore/internal/fingerprint"
)

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <hash>",
		Short: "Load a fingerprint by hash",
		Long: `Load the fingerprint with the given content hash and print it as a
JSON document. Exits with status 1 if no fingerprint exists for this
instance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args[0], cmd)
		},
	}
}

func runLoad(opts *RootOptions, hash string, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	fp, err := st.Load(cmd.Context(), hash)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to load %s", hash), err)
	}
	if fp == nil {
		return NewExitError(ExitFailure, fmt.Sprintf("fingerprint %s not found", hash))
	}

	data, err := fingerprint.JSONCodec{}.EncodeFingerprint(fp)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to encode %s", hash), err)
	}
	// Text output is the compact document; json output re-indents it.
	return printResult(cmd.OutOrStdout(), opts.Format, json.RawMessage(data), string(data))
}
