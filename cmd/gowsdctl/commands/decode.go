package commands

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gowsd/gowsd/internal/server"
)

func decodeAttrsCmd() *cobra.Command {
	var rawHex string
	var idsCSV string
	var ifindex uint32

	cmd := &cobra.Command{
		Use:   "decode-attrs",
		Short: "Decode a raw nl80211 attribute stream against the attribute schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(rawHex)
			if err != nil {
				return fmt.Errorf("decode-attrs: --raw: %w", err)
			}
			var ids []uint16
			for _, s := range strings.Split(idsCSV, ",") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				n, err := strconv.ParseUint(s, 10, 16)
				if err != nil {
					return fmt.Errorf("decode-attrs: --ids: %w", err)
				}
				ids = append(ids, uint16(n))
			}
			if len(ids) == 0 {
				return fmt.Errorf("decode-attrs: --ids must list at least one attribute id")
			}

			resp, err := newClient().DecodeNetlinkAttrs(cmd.Context(), &server.DecodeNetlinkAttrsRequest{
				AttributeIDs: ids,
				RawAttrs:     raw,
				Ifindex:      ifindex,
			})
			if err != nil {
				return fmt.Errorf("decode-attrs: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, a := range resp.Attrs {
				fmt.Fprintf(out, "%d (%s): %s\n", a.ID, a.Kind, a.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rawHex, "raw", "", "raw nl80211 attribute stream, hex-encoded")
	cmd.Flags().StringVar(&idsCSV, "ids", "", "comma-separated attribute ids to decode")
	cmd.Flags().Uint32Var(&ifindex, "ifindex", 0, "interface index to query live over netlink if --raw is empty")
	return cmd
}
