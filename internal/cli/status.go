package cli

import (
	"github.com/spf13/cobra"
)

// statusResult is the JSON shape of the status command output.
type statusResult struct {
	Ready      bool   `json:"ready"`
	InstanceID string `json:"instanceId"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report store readiness",
		Long: `Report whether the store holds at least one fingerprint for this
instance identity. Storage outages read as not ready; they never fail the
probe. Exits with status 1 when not ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	result := statusResult{
		Ready:      st.IsReady(cmd.Context()),
		InstanceID: st.InstanceID(),
	}
	text := "not ready"
	if result.Ready {
		text = "ready"
	}
	if err := printResult(cmd.OutOrStdout(), opts.Format, result, text); err != nil {
		return err
	}
	if !result.Ready {
		return NewExitError(ExitFailure, "store is not ready")
	}
	return nil
}
