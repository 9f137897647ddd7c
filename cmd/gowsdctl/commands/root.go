// Package commands implements the gowsdctl cobra command tree.
package commands

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gowsd/gowsd/internal/server"
)

var addr string

// Root builds the top-level gowsdctl command.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "gowsdctl",
		Short: "Control the gowsd station authentication daemon",
	}

	root.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:50151", "gowsd control surface base URL")

	root.AddCommand(versionCmd(), statusCmd(), bootstrapCmd(), listFTCmd(), triggerFTCmd(), estimateRateCmd(), decodeAttrsCmd())
	return root
}

func newClient() *server.Client {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return server.NewClient(httpClient, addr)
}
