package dpp

import (
	"crypto/elliptic"
	"errors"
	"testing"

	"github.com/gowsd/gowsd/internal/eccutil"
	"github.com/gowsd/gowsd/internal/wsderr"
)

func testKeyDER(t *testing.T) []byte {
	t.Helper()
	curve := elliptic.P256()
	x, y := curve.ScalarBaseMult([]byte{7, 7, 7})
	der, err := eccutil.MarshalSPKI(curve, x, y)
	if err != nil {
		t.Fatalf("MarshalSPKI: %v", err)
	}
	return der
}

func TestGenerateThenParseURIRoundTrip(t *testing.T) {
	info := &URIInfo{
		Version:   2,
		MAC:       []byte{0x52, 0x54, 0x00, 0x58, 0x28, 0xe5},
		Channels:  []Channel{{OperatingClass: 81, Channel: 6}},
		Info:      "example station",
		PublicKey: testKeyDER(t),
	}

	uri, err := GenerateURI(info)
	if err != nil {
		t.Fatalf("GenerateURI: %v", err)
	}

	got, err := ParseURI(uri)
	if err != nil {
		t.Fatalf("ParseURI(%q): %v", uri, err)
	}
	if got.Version != info.Version {
		t.Fatalf("version = %d, want %d", got.Version, info.Version)
	}
	if got.MAC.String() != info.MAC.String() {
		t.Fatalf("mac = %s, want %s", got.MAC, info.MAC)
	}
	if len(got.Channels) != 1 || got.Channels[0] != info.Channels[0] {
		t.Fatalf("channels = %+v, want %+v", got.Channels, info.Channels)
	}
	if got.Info != info.Info {
		t.Fatalf("info = %q, want %q", got.Info, info.Info)
	}
}

func TestParseURIRejectsMissingScheme(t *testing.T) {
	_, err := ParseURI("not-a-dpp-uri")
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestParseURIRequiresPublicKey(t *testing.T) {
	_, err := ParseURI("DPP:V:2;;")
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindInvalidArgument {
		t.Fatalf("err = %v, want KindInvalidArgument", err)
	}
}

func TestParseURICapturesHostAndInfo(t *testing.T) {
	der := testKeyDER(t)
	uri, err := GenerateURI(&URIInfo{Info: "hello", Host: "contact@example.com", PublicKey: der})
	if err != nil {
		t.Fatalf("GenerateURI: %v", err)
	}
	got, err := ParseURI(uri)
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if got.Info != "hello" || got.Host != "contact@example.com" {
		t.Fatalf("got Info=%q Host=%q", got.Info, got.Host)
	}
}

func TestParseURIRejectsSingleTrailingSemicolon(t *testing.T) {
	der := testKeyDER(t)
	uri, err := GenerateURI(&URIInfo{PublicKey: der})
	if err != nil {
		t.Fatalf("GenerateURI: %v", err)
	}
	malformed := uri[:len(uri)-1] // drop one of the two required trailing ';'

	_, err = ParseURI(malformed)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage for a single trailing semicolon", err)
	}
}

func TestParseURIRejectsExtraTrailingSemicolon(t *testing.T) {
	der := testKeyDER(t)
	uri, err := GenerateURI(&URIInfo{PublicKey: der})
	if err != nil {
		t.Fatalf("GenerateURI: %v", err)
	}
	malformed := uri + ";" // one semicolon beyond the mandatory ";;" terminator

	_, err = ParseURI(malformed)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage for a trailing ';;;' terminator", err)
	}
}

func TestParseURIRejectsEmptyInfoToken(t *testing.T) {
	_, err := ParseURI("DPP:I:;K:AA==;;")
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindInvalidArgument {
		t.Fatalf("err = %v, want KindInvalidArgument for an empty I: token", err)
	}
}

func TestParseURIRejectsEmptyHostToken(t *testing.T) {
	_, err := ParseURI("DPP:H:;K:AA==;;")
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindInvalidArgument {
		t.Fatalf("err = %v, want KindInvalidArgument for an empty H: token", err)
	}
}

func TestParseURIRejectsBadMAC(t *testing.T) {
	_, err := ParseURI("DPP:M:zzzzzzzzzzzz;K:AA==;;")
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindInvalidArgument {
		t.Fatalf("err = %v, want KindInvalidArgument", err)
	}
}

// The URI below is the EasyConnect specification's own bootstrapping
// example: a P-256 key in compressed SPKI form, a MAC, two announced
// channels, and a version tag.
func TestParseURIEasyConnectExample(t *testing.T) {
	const uri = "DPP:C:81/1,115/36;I:SN=4774LH2b4044;M:5254005828e5;V:2;K:MDkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDIgADURzxmttZoIRIPWGoQMV00XHWCAQIhXruVWOz0NjlkIA=;;"

	got, err := ParseURI(uri)
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if got.MAC.String() != "52:54:00:58:28:e5" {
		t.Fatalf("mac = %s", got.MAC)
	}
	if got.Version != 2 {
		t.Fatalf("version = %d, want 2", got.Version)
	}
	if got.Info != "SN=4774LH2b4044" {
		t.Fatalf("info = %q", got.Info)
	}
	if len(got.Frequencies) != 2 || got.Frequencies[0] != 2412 || got.Frequencies[1] != 5180 {
		t.Fatalf("frequencies = %v, want [2412 5180]", got.Frequencies)
	}
	if len(got.PublicKey) == 0 {
		t.Fatal("bootstrapping public key missing")
	}
	curve, x, _, err := eccutil.ParseSPKI(got.PublicKey)
	if err != nil {
		t.Fatalf("ParseSPKI: %v", err)
	}
	if curve != elliptic.P256() || x.Sign() == 0 {
		t.Fatal("bootstrapping key is not a P-256 point")
	}
}

func TestParseURIRejectsUnknownOperClass(t *testing.T) {
	_, err := ParseURI("DPP:C:7/1;K:AA==;;")
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindInvalidArgument {
		t.Fatalf("err = %v, want KindInvalidArgument for unknown operating class", err)
	}
}

func TestParseURIRejectsMulticastMAC(t *testing.T) {
	_, err := ParseURI("DPP:M:0154005828e5;K:AA==;;")
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindInvalidArgument {
		t.Fatalf("err = %v, want KindInvalidArgument for a multicast MAC", err)
	}
}
