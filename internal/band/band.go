// Package band estimates achievable PHY data rates from a peer's capability
// information elements, RSSI, and a local band capability record.
//
// Non-HT estimation follows IEEE 802.11 Section 17.3.10.2 Table 17-18/17-4.
// HT/VHT estimation follows IEEE 802.11-2016 Section 21.5 and Table 9-250.
package band

import "github.com/gowsd/gowsd/internal/wsderr"

// ChannelWidth is an OFDM channel width, ordered so its integer value is
// also the index into the HT/VHT rate tables.
type ChannelWidth uint8

const (
	Width20MHz ChannelWidth = iota
	Width40MHz
	Width80MHz
	Width160MHz
)

func (w ChannelWidth) String() string {
	switch w {
	case Width20MHz:
		return "20MHz"
	case Width40MHz:
		return "40MHz"
	case Width80MHz:
		return "80MHz"
	case Width160MHz:
		return "160MHz"
	default:
		return "Unknown"
	}
}

// Capability is an immutable description of one radio band's PHY
// capabilities.
type Capability struct {
	// SupportedRates lists legacy rates in units of 500 kbit/s, as
	// encoded in the Supported Rates IE (basic-rate bit masked off).
	SupportedRates []uint8

	HTSupported     bool
	HTCapabilities  [21]byte // HT Capabilities IE body, fixed per 802.11-2016 9.4.2.56
	HTMCSSet        [16]byte // Supported MCS Set subfield, bit-indexed

	VHTSupported    bool
	VHTCapabilities [12]byte // VHT Capabilities IE body, 802.11-2016 9.4.2.158
	VHTMCSSet       [8]byte  // VHT Supported MCS Set subfield
}

// rateRSSIMap gives the minimum RSSI, in dBm, required to use a given
// legacy rate. Taken from 802.11 Section 17.3.10.2 Table 17-18/Table 17-4.
var rateRSSIMap = []struct {
	rssi int32
	rate uint8
}{
	{-90, 2}, // made up for 11b rates, mirrors the reference implementation
	{-88, 4},
	{-86, 11},
	{-84, 22},
	{-82, 12},
	{-81, 18},
	{-79, 24},
	{-77, 36},
	{-74, 48},
	{-70, 72},
	{-66, 96},
	{-65, 108},
}

func testBit(b []byte, bit int) bool {
	idx := bit / 8
	if idx < 0 || idx >= len(b) {
		return false
	}
	return b[idx]&(1<<(uint(bit)%8)) != 0
}

func bitField(b byte, start, nbits uint) uint8 {
	return (b >> start) & ((1 << nbits) - 1)
}

// peerSupportsRate reports whether a Supported-Rates-style element (id byte,
// length byte, then rate octets, basic-rate bit masked) lists rate.
func peerSupportsRate(rates []byte, rate uint8) bool {
	if len(rates) < 2 {
		return false
	}
	n := int(rates[1])
	for i := 0; i < n && i+2 < len(rates); i++ {
		if rates[i+2]&0x7f == rate {
			return true
		}
	}
	return false
}

// EstimateNonHTRate returns the highest legacy (non-HT) rate, in bits per
// second, usable given rssi and the peer's advertised supported-rates IEs.
// supportedRates and extSupportedRates are the raw elements (id byte, length
// byte, rate list); either may be nil but not both.
func EstimateNonHTRate(cap Capability, supportedRates, extSupportedRates []byte, rssi int32) (uint64, error) {
	const op = "band.EstimateNonHTRate"

	if supportedRates == nil && extSupportedRates == nil {
		return 0, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}

	var maxRate uint8
	// Rates are generally given in ascending order (11b then 11g); scan
	// from the back to usually find the best rate first.
	for i := len(cap.SupportedRates) - 1; i >= 0; i-- {
		rate := cap.SupportedRates[i]
		if maxRate >= rate {
			continue
		}

		j := -1
		for k, e := range rateRSSIMap {
			if e.rate == rate {
				j = k
				break
			}
		}
		if j == -1 {
			continue
		}
		if rssi < rateRSSIMap[j].rssi {
			continue
		}

		if peerSupportsRate(supportedRates, rate) || peerSupportsRate(extSupportedRates, rate) {
			maxRate = rate
		}
	}

	if maxRate == 0 {
		return 0, wsderr.New(wsderr.KindNotApplicable, op, nil)
	}

	return uint64(maxRate) * 500000, nil
}

// htVHTBaseRSSI are the base RSSI thresholds for a 20MHz channel, indexed by
// MCS-within-NSS (HT) or MCS (VHT).
var htVHTBaseRSSI = [10]int32{-82, -79, -77, -74, -70, -66, -65, -64, -59, -57}

// htVHTRates[width][index] is the precomputed long-GI data rate in bit/s for
// the given channel width and MCS-within-NSS index, per the formula
// Nsd * Nbpscs * R * Nss / (Tdft + Tgi) with Nsd = [52,108,234,468].
var htVHTRates = [4][10]uint64{
	Width20MHz: {
		6500000, 13000000, 19500000, 26000000, 39000000,
		52000000, 58500000, 65000000, 78000000, 86666000,
	},
	Width40MHz: {
		13500000, 27000000, 40500000, 54000000, 81000000,
		108000000, 121500000, 135000000, 162000000, 180000000,
	},
	Width80MHz: {
		29250000, 58500000, 87750000, 117000000, 175500000,
		234000000, 263250000, 292500000, 351000000, 390000000,
	},
	Width160MHz: {
		58500000, 117000000, 175500000, 234000000, 351000000,
		468000000, 526500000, 585000000, 702000000, 780000000,
	},
}

// ofdmRate computes the data rate, in bit/s, for one MCS-within-NSS index at
// the given width/nss/sgi, returning ok=false if rssi is below the floor for
// that combination.
func ofdmRate(index int, width ChannelWidth, rssi int32, nss uint8, sgi bool) (rate uint64, ok bool) {
	widthAdjust := int32(width) * 3
	if rssi < htVHTBaseRSSI[index]+widthAdjust {
		return 0, false
	}

	rate = htVHTRates[width][index]
	if sgi {
		rate = rate / 9 * 10
	}
	rate *= uint64(nss)
	return rate, true
}

// findBestMCSHT scans MCS indices from maxMCS down to 0 and returns the
// first (i.e. highest-index) combination both sides support and the RSSI
// floor permits. MCS values 32-76 (unequal modulation) are not considered.
func findBestMCSHT(cap Capability, txMCSSet []byte, maxMCS int, width ChannelWidth, rssi int32, sgi bool) (uint64, bool) {
	for i := maxMCS; i >= 0; i-- {
		if !testBit(cap.HTMCSSet[:], i) {
			continue
		}
		if !testBit(txMCSSet, i) {
			continue
		}
		if rate, ok := ofdmRate(i%8, width, rssi, uint8(i/8+1), sgi); ok {
			return rate, true
		}
	}
	return 0, false
}

// EstimateHTRxRate estimates the achievable HT receive rate given the
// peer's HT Capabilities (htc) and HT Operation (hto) elements, each
// including its id and length bytes.
func EstimateHTRxRate(cap Capability, htc, hto []byte, rssi int32) (uint64, error) {
	const op = "band.EstimateHTRxRate"

	if !cap.HTSupported {
		return 0, wsderr.New(wsderr.KindUnsupported, op, nil)
	}
	if htc == nil || hto == nil {
		return 0, wsderr.New(wsderr.KindUnsupported, op, nil)
	}

	maxMCS := 31
	var unequalTxMCSSet [16]byte
	txMCSSet := htc[5:]

	// Bit 96: Tx MCS Set Defined; bit 97: Tx MCS Set Unequal; bits 98-99:
	// Tx Maximum Number of Spatial Streams Supported.
	if testBit(txMCSSet, 96) {
		if testBit(txMCSSet, 97) {
			maxNSS := bitField(txMCSSet[12], 2, 2)
			maxMCS = int(maxNSS)*8 + 7
			for i := 0; i <= int(maxNSS) && i < len(unequalTxMCSSet); i++ {
				unequalTxMCSSet[i] = 0xff
			}
			txMCSSet = unequalTxMCSSet[:]
		}
	} else {
		maxMCS = 7
	}

	channelOffset := bitField(hto[3], 0, 2)
	if testBit(hto[3:], 2) && (channelOffset == 1 || channelOffset == 3) {
		sgi := testBit(cap.HTCapabilities[:], 6) && testBit(htc[2:], 6)
		if rate, ok := findBestMCSHT(cap, txMCSSet, maxMCS, Width40MHz, rssi, sgi); ok {
			return rate, nil
		}
	}

	sgi := testBit(cap.HTCapabilities[:], 5) && testBit(htc[2:], 5)
	if rate, ok := findBestMCSHT(cap, txMCSSet, maxMCS, Width20MHz, rssi, sgi); ok {
		return rate, nil
	}

	return 0, wsderr.New(wsderr.KindNotApplicable, op, nil)
}

// findBestMCSVHT scans VHT MCS indices from maxIndex down to 0 for the first
// index the RSSI floor permits at the given width/nss/sgi.
func findBestMCSVHT(maxIndex int, width ChannelWidth, rssi int32, nss uint8, sgi bool) (uint64, bool) {
	for i := maxIndex; i >= 0; i-- {
		if rate, ok := ofdmRate(i, width, rssi, nss, sgi); ok {
			return rate, true
		}
	}
	return 0, false
}

func minU8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}

// EstimateVHTRxRate estimates the achievable VHT receive rate given the
// peer's VHT Capabilities (vhtc), VHT Operation (vhto), HT Capabilities
// (htc), and HT Operation (hto) elements, each including its id and length
// bytes.
//
// Per IEEE 802.11 Table 9-250 Note 11, Extended NSS BW support is ignored,
// which lets 160MHz and 80+80MHz be treated identically.
func EstimateVHTRxRate(cap Capability, vhtc, vhto, htc, hto []byte, rssi int32) (uint64, error) {
	const op = "band.EstimateVHTRxRate"

	if !cap.VHTSupported || !cap.HTSupported {
		return 0, wsderr.New(wsderr.KindUnsupported, op, nil)
	}
	if vhtc == nil || vhto == nil || htc == nil || hto == nil {
		return 0, wsderr.New(wsderr.KindUnsupported, op, nil)
	}
	if len(vhto) < 5 || vhto[2] > 3 {
		return 0, wsderr.New(wsderr.KindBadMessage, op, nil)
	}

	var nss uint8
	maxMCS := uint8(7) // MCS 0-7 for NSS 1 is always supported

	// Find the highest NSS/MCS combination both the peer's Tx MCS map and
	// our Rx MCS map support, scanning from the highest NSS down.
	rxMCSMap := cap.VHTMCSSet[:]
	txMCSMap := vhtc[2+8:]
	for bitoffset := 14; bitoffset >= 0; bitoffset -= 2 {
		rxVal := bitField(rxMCSMap[bitoffset/8], uint(bitoffset%8), 2)
		txVal := bitField(txMCSMap[bitoffset/8], uint(bitoffset%8), 2)

		if rxVal == 3 || txVal == 3 {
			continue
		}

		maxMCS = minU8(rxVal, txVal) + 7
		nss = uint8(bitoffset/2 + 1)
		break
	}

	if nss == 0 {
		return 0, wsderr.New(wsderr.KindBadMessage, op, nil)
	}

	chanWidth := bitField(cap.VHTCapabilities[0], 2, 2)
	if chanWidth == 1 || chanWidth == 2 {
		if vhto[2] == 2 || vhto[2] == 3 || (vhto[2] == 1 && vhto[4] != 0) {
			sgi := testBit(cap.VHTCapabilities[:], 6) && testBit(vhtc[2:], 6)
			if rate, ok := findBestMCSVHT(int(maxMCS), Width160MHz, rssi, nss, sgi); ok {
				return rate, nil
			}
		}
	}

	if vhto[2] == 1 {
		sgi := testBit(cap.VHTCapabilities[:], 5) && testBit(vhtc[2:], 5)
		if rate, ok := findBestMCSVHT(int(maxMCS), Width80MHz, rssi, nss, sgi); ok {
			return rate, nil
		}
	}
	// Otherwise assume 20/40 operation.

	channelOffset := bitField(hto[3], 0, 2)
	if testBit(hto[3:], 2) && (channelOffset == 1 || channelOffset == 3) {
		sgi := testBit(cap.HTCapabilities[:], 6) && testBit(htc[2:], 6)
		if rate, ok := findBestMCSVHT(int(maxMCS), Width40MHz, rssi, nss, sgi); ok {
			return rate, nil
		}
	}

	sgi := testBit(cap.HTCapabilities[:], 5) && testBit(htc[2:], 5)
	if rate, ok := findBestMCSVHT(int(maxMCS), Width20MHz, rssi, nss, sgi); ok {
		return rate, nil
	}

	return 0, wsderr.New(wsderr.KindNotApplicable, op, nil)
}
