package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func bootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap <dpp-uri>",
		Short: "Submit a DPP bootstrapping URI to the daemon for validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().StartDPPBootstrap(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			if !resp.Accepted {
				return fmt.Errorf("bootstrap: uri was not accepted")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "accepted")
			return nil
		},
	}
}
