package band

import (
	"errors"
	"testing"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// ratesIE builds a Supported-Rates-style element (id byte + length byte +
// rate octets).
func ratesIE(rates ...uint8) []byte {
	ie := make([]byte, 2+len(rates))
	ie[0] = 1 // tag, unused by the decoder
	ie[1] = uint8(len(rates))
	copy(ie[2:], rates)
	return ie
}

func TestEstimateNonHTRate(t *testing.T) {
	cap := Capability{SupportedRates: []uint8{2, 4, 11, 22, 12, 18, 24, 36, 48, 72, 96, 108}}
	sr := ratesIE(2, 4, 11, 22, 12, 18, 24, 36, 48, 72, 96, 108)

	rate, err := EstimateNonHTRate(cap, sr, nil, -60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 108*500000 {
		t.Fatalf("rate = %d, want %d", rate, 108*500000)
	}
	if rate%500000 != 0 {
		t.Fatalf("rate %d does not divide 500000", rate)
	}
}

func TestEstimateNonHTRateLowRSSI(t *testing.T) {
	cap := Capability{SupportedRates: []uint8{2, 4, 11, 22, 12, 18, 24, 36, 48, 72, 96, 108}}
	sr := ratesIE(2, 4, 11, 22, 12, 18, 24, 36, 48, 72, 96, 108)

	// -91 dBm is below even the 11b floor of -90; no rate is eligible.
	_, err := EstimateNonHTRate(cap, sr, nil, -91)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindNotApplicable {
		t.Fatalf("err = %v, want KindNotApplicable", err)
	}
}

func TestEstimateNonHTRateNoRatesIE(t *testing.T) {
	cap := Capability{SupportedRates: []uint8{108}}
	_, err := EstimateNonHTRate(cap, nil, nil, 0)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindInvalidArgument {
		t.Fatalf("err = %v, want KindInvalidArgument", err)
	}
}

func TestEstimateHTRxRateUnsupported(t *testing.T) {
	cap := Capability{HTSupported: false}
	_, err := EstimateHTRxRate(cap, make([]byte, 21), make([]byte, 22), -50)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindUnsupported {
		t.Fatalf("err = %v, want KindUnsupported", err)
	}
}

func TestEstimateHTRxRateBasicMCS0(t *testing.T) {
	cap := Capability{HTSupported: true}
	// MCS set: bit 0 set (MCS0 supported by us), all else clear.
	cap.HTMCSSet[0] = 0x01

	htc := make([]byte, 21)
	// tx_mcs_set lives at htc[5:], bit 0 -> MCS0 supported by peer.
	htc[5] = 0x01
	hto := make([]byte, 22)

	rate, err := EstimateHTRxRate(cap, htc, hto, -60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 6500000 {
		t.Fatalf("rate = %d, want 6500000", rate)
	}
}

func TestEstimateHTRxRateNoEligibleMCS(t *testing.T) {
	cap := Capability{HTSupported: true} // HTMCSSet all zero: we advertise no MCS
	htc := make([]byte, 21)
	htc[5] = 0x01 // peer advertises MCS0, but we don't support any MCS
	hto := make([]byte, 22)

	_, err := EstimateHTRxRate(cap, htc, hto, -60)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindNotApplicable {
		t.Fatalf("err = %v, want KindNotApplicable", err)
	}
}

func TestEstimateVHTRxRateNoEligibleMCS(t *testing.T) {
	cap := Capability{VHTSupported: true, HTSupported: true}
	vhtc := make([]byte, 12)
	vhto := make([]byte, 5)
	htc := make([]byte, 21)
	hto := make([]byte, 22)

	// RSSI below even the 20MHz MCS0 floor (-82 dBm), so no width/MCS
	// combination is eligible once an NSS is resolved.
	_, err := EstimateVHTRxRate(cap, vhtc, vhto, htc, hto, -100)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindNotApplicable {
		t.Fatalf("err = %v, want KindNotApplicable", err)
	}
}

func TestEstimateVHTRxRateBadOperationWidth(t *testing.T) {
	cap := Capability{VHTSupported: true, HTSupported: true}
	vhtc := make([]byte, 12)
	vhto := make([]byte, 5)
	vhto[2] = 4 // invalid channel width code
	htc := make([]byte, 21)
	hto := make([]byte, 22)

	_, err := EstimateVHTRxRate(cap, vhtc, vhto, htc, hto, -50)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestChannelWidthString(t *testing.T) {
	cases := map[ChannelWidth]string{
		Width20MHz:  "20MHz",
		Width40MHz:  "40MHz",
		Width80MHz:  "80MHz",
		Width160MHz: "160MHz",
		ChannelWidth(99): "Unknown",
	}
	for w, want := range cases {
		if got := w.String(); got != want {
			t.Errorf("ChannelWidth(%d).String() = %q, want %q", w, got, want)
		}
	}
}
