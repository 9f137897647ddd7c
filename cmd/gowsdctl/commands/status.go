package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the station's configured identity and enabled subsystems",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "interface:   %s\n", resp.Interface)
			fmt.Fprintf(out, "mac:         %s\n", resp.MAC)
			fmt.Fprintf(out, "ft enabled:  %t\n", resp.FTEnabled)
			fmt.Fprintf(out, "dpp enabled: %t\n", resp.DPPEnabled)
			return nil
		},
	}
}

func listFTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ft-attempts",
		Short: "List Fast BSS Transition roaming attempts currently pending a response",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().ListFTAttempts(cmd.Context())
			if err != nil {
				return fmt.Errorf("ft-attempts: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(resp.Attempts) == 0 {
				fmt.Fprintln(out, "no pending attempts")
				return nil
			}
			for _, a := range resp.Attempts {
				fmt.Fprintf(out, "%d %s %s\n", a.Ifindex, a.AA, a.State)
			}
			return nil
		},
	}
}
