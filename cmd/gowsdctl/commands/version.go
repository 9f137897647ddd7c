package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	appversion "github.com/gowsd/gowsd/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print gowsdctl version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), appversion.Full("gowsdctl"))
			return nil
		},
	}
}
