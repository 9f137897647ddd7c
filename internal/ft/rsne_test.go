package ft

import "testing"

func testRSNE() *RSNE {
	return &RSNE{
		Version:         1,
		GroupCipher:     [4]byte{0x00, 0x0f, 0xac, 0x04},
		PairwiseCiphers: []byte{0x00, 0x0f, 0xac, 0x04},
		AKMSuites:       []byte{0x00, 0x0f, 0xac, 0x03},
		HasCapabilities: true,
		Capabilities:    0x000c,
	}
}

func TestRSNEEncodeParseRoundTrip(t *testing.T) {
	r := testRSNE()
	encoded := r.Encode()

	got, err := ParseRSNE(encoded)
	if err != nil {
		t.Fatalf("ParseRSNE: %v", err)
	}
	if !got.EqualIgnoringPMKIDs(r) {
		t.Fatalf("got = %+v, want %+v", got, r)
	}
	if len(got.PMKIDs) != 0 {
		t.Fatalf("PMKIDs = %v, want none", got.PMKIDs)
	}
}

func TestRSNEWithSinglePMKIDRoundTrip(t *testing.T) {
	r := testRSNE()
	var pmkid [16]byte
	pmkid[0] = 0xAA

	withPMKID := r.WithSinglePMKID(pmkid)
	encoded := withPMKID.Encode()

	got, err := ParseRSNE(encoded)
	if err != nil {
		t.Fatalf("ParseRSNE: %v", err)
	}
	if !got.HasSinglePMKID(pmkid) {
		t.Fatalf("PMKIDs = %v, want exactly %v", got.PMKIDs, pmkid)
	}
	if !got.EqualIgnoringPMKIDs(r) {
		t.Fatal("non-PMKID fields changed after round trip")
	}
}

func TestRSNEParseRejectsTruncated(t *testing.T) {
	if _, err := ParseRSNE([]byte{0x01, 0x00}); err == nil {
		t.Fatal("expected an error for a truncated RSNE body")
	}
}
