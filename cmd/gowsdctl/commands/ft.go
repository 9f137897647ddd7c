package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gowsd/gowsd/internal/server"
)

func triggerFTCmd() *cobra.Command {
	var mdeHex, r0khID, prevBSSID string
	var micLen int
	var targetFreq, dsFreq uint32
	var overDS, onchannel bool

	cmd := &cobra.Command{
		Use:   "trigger-ft <ifindex> <target-bssid>",
		Short: "Begin a Fast BSS Transition roaming attempt toward a target BSS",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ifindex int
			if _, err := fmt.Sscanf(args[0], "%d", &ifindex); err != nil {
				return fmt.Errorf("trigger-ft: ifindex: %w", err)
			}
			mde, err := hex.DecodeString(mdeHex)
			if err != nil {
				return fmt.Errorf("trigger-ft: --mde: %w", err)
			}
			resp, err := newClient().TriggerFTTransition(cmd.Context(), &server.TriggerFTTransitionRequest{
				Ifindex:    ifindex,
				AA:         args[1],
				MDE:        mde,
				R0KHID:     r0khID,
				MICLen:     micLen,
				TargetFreq: targetFreq,
				DSFreq:     dsFreq,
				PrevBSSID:  prevBSSID,
				OverDS:     overDS,
				Onchannel:  onchannel,
			})
			if err != nil {
				return fmt.Errorf("trigger-ft: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "state: %s\n", resp.State)
			fmt.Fprintf(out, "auth request ies: %s\n", hex.EncodeToString(resp.AuthRequestIEs))
			return nil
		},
	}
	cmd.Flags().StringVar(&mdeHex, "mde", "", "target BSS Mobility Domain element body, hex-encoded")
	cmd.Flags().StringVar(&r0khID, "r0kh-id", "", "R0 key holder identifier override (defaults to the daemon's configured value)")
	cmd.Flags().IntVar(&micLen, "mic-len", 16, "FTE MIC field width in bytes (16 or 24)")
	cmd.Flags().Uint32Var(&targetFreq, "target-freq", 0, "target BSS frequency in MHz; nonzero asks the daemon to transmit the exchange itself")
	cmd.Flags().Uint32Var(&dsFreq, "ds-freq", 0, "current channel frequency for FT-over-DS")
	cmd.Flags().StringVar(&prevBSSID, "prev-bssid", "", "current AP's BSSID, required for FT-over-DS")
	cmd.Flags().BoolVar(&overDS, "over-ds", false, "roam via an FT Action request through the current AP")
	cmd.Flags().BoolVar(&onchannel, "onchannel", false, "authenticate on the current operating channel under a short dwell")
	return cmd
}
