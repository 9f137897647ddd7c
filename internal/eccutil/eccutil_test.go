package eccutil

import (
	"crypto/elliptic"
	"errors"
	"testing"

	"github.com/gowsd/gowsd/internal/wsderr"
)

func TestCurveByGroupKnown(t *testing.T) {
	if c, err := CurveByGroup(19); err != nil || c != elliptic.P256() {
		t.Fatalf("group 19 = %v, %v; want P256", c, err)
	}
	if c, err := CurveByGroup(20); err != nil || c != elliptic.P384() {
		t.Fatalf("group 20 = %v, %v; want P384", c, err)
	}
}

func TestCurveByGroupUnsupported(t *testing.T) {
	_, err := CurveByGroup(21)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindUnsupported {
		t.Fatalf("err = %v, want KindUnsupported", err)
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	curve := elliptic.P256()
	x, y := curve.ScalarBaseMult([]byte{1, 2, 3, 4})

	der := Marshal(curve, x, y)
	gx, gy, err := Unmarshal(curve, der)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if gx.Cmp(x) != 0 || gy.Cmp(y) != 0 {
		t.Fatal("round trip produced a different point")
	}
}

func TestSPKIRoundTrip(t *testing.T) {
	curve := elliptic.P384()
	x, y := curve.ScalarBaseMult([]byte{9, 9, 9})

	der, err := MarshalSPKI(curve, x, y)
	if err != nil {
		t.Fatalf("MarshalSPKI: %v", err)
	}
	gotCurve, gx, gy, err := ParseSPKI(der)
	if err != nil {
		t.Fatalf("ParseSPKI: %v", err)
	}
	if gotCurve != curve {
		t.Fatal("curve mismatch after SPKI round trip")
	}
	if gx.Cmp(x) != 0 || gy.Cmp(y) != 0 {
		t.Fatal("point mismatch after SPKI round trip")
	}
}

func TestPadToFieldSize(t *testing.T) {
	curve := elliptic.P256()
	got := PadToFieldSize(curve, []byte{0xAB})
	if len(got) != 32 {
		t.Fatalf("len = %d, want 32", len(got))
	}
	if got[31] != 0xAB {
		t.Fatalf("last byte = %x, want AB", got[31])
	}
}
