package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gowsd/gowsd/internal/server"
)

func estimateRateCmd() *cobra.Command {
	var rssi int32
	var supportedRatesHex, extSupportedRatesHex string
	var htCapHex, htOpHex, vhtCapHex, vhtOpHex string
	var localRatesHex string
	var localHT, localVHT bool
	var localHTMCSHex, localVHTMCSHex string

	cmd := &cobra.Command{
		Use:   "estimate-rate",
		Short: "Estimate the achievable PHY rate for a peer capability snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			decode := func(name, s string) ([]byte, error) {
				b, err := hex.DecodeString(s)
				if err != nil {
					return nil, fmt.Errorf("--%s: %w", name, err)
				}
				return b, nil
			}

			supportedRates, err := decode("supported-rates", supportedRatesHex)
			if err != nil {
				return err
			}
			extSupportedRates, err := decode("ext-supported-rates", extSupportedRatesHex)
			if err != nil {
				return err
			}
			htCap, err := decode("ht-cap", htCapHex)
			if err != nil {
				return err
			}
			htOp, err := decode("ht-op", htOpHex)
			if err != nil {
				return err
			}
			vhtCap, err := decode("vht-cap", vhtCapHex)
			if err != nil {
				return err
			}
			vhtOp, err := decode("vht-op", vhtOpHex)
			if err != nil {
				return err
			}
			localRates, err := decode("local-rates", localRatesHex)
			if err != nil {
				return err
			}
			localHTMCS, err := decode("local-ht-mcs", localHTMCSHex)
			if err != nil {
				return err
			}
			localVHTMCS, err := decode("local-vht-mcs", localVHTMCSHex)
			if err != nil {
				return err
			}

			resp, err := newClient().EstimateRate(cmd.Context(), &server.EstimateRateRequest{
				RSSI:                rssi,
				SupportedRates:      supportedRates,
				ExtSupportedRates:   extSupportedRates,
				HTCapabilities:      htCap,
				HTOperation:         htOp,
				VHTCapabilities:     vhtCap,
				VHTOperation:        vhtOp,
				LocalSupportedRates: localRates,
				LocalHTSupported:    localHT,
				LocalHTMCSSet:       localHTMCS,
				LocalVHTSupported:   localVHT,
				LocalVHTMCSSet:      localVHTMCS,
			})
			if err != nil {
				return fmt.Errorf("estimate-rate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bps\n", resp.Mode, resp.RateBps)
			return nil
		},
	}

	cmd.Flags().Int32Var(&rssi, "rssi", -60, "observed signal strength, in dBm")
	cmd.Flags().StringVar(&supportedRatesHex, "supported-rates", "", "peer Supported Rates IE body, hex-encoded")
	cmd.Flags().StringVar(&extSupportedRatesHex, "ext-supported-rates", "", "peer Extended Supported Rates IE body, hex-encoded")
	cmd.Flags().StringVar(&htCapHex, "ht-cap", "", "peer HT Capabilities IE body, hex-encoded")
	cmd.Flags().StringVar(&htOpHex, "ht-op", "", "peer HT Operation IE body, hex-encoded")
	cmd.Flags().StringVar(&vhtCapHex, "vht-cap", "", "peer VHT Capabilities IE body, hex-encoded")
	cmd.Flags().StringVar(&vhtOpHex, "vht-op", "", "peer VHT Operation IE body, hex-encoded")
	cmd.Flags().StringVar(&localRatesHex, "local-rates", "", "local radio's supported legacy rates, hex-encoded")
	cmd.Flags().BoolVar(&localHT, "local-ht", false, "local radio supports HT")
	cmd.Flags().StringVar(&localHTMCSHex, "local-ht-mcs", "", "local radio's HT supported MCS set, hex-encoded")
	cmd.Flags().BoolVar(&localVHT, "local-vht", false, "local radio supports VHT")
	cmd.Flags().StringVar(&localVHTMCSHex, "local-vht-mcs", "", "local radio's VHT supported MCS set, hex-encoded")
	return cmd
}
