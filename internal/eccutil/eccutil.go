// Package eccutil collects the elliptic-curve plumbing shared by the DPP
// key schedule: curve selection by group size, SEC1 point
// (de)serialization, and ASN.1 SubjectPublicKeyInfo encode/decode.
//
// No generic point-arithmetic library lives anywhere in the surrounding
// dependency set (no circl, no btcec, no filippo.io/edwards25519-style
// curve packages), so this leans on the standard library's legacy
// elliptic.Curve interface, which is still the only thing in reach that
// exposes Add/ScalarMult/ScalarBaseMult directly.
package eccutil

import (
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/asn1"
	"hash"
	"math/big"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// CurveByGroup maps a DPP/PKEX finite-field group identifier (from a
// Finite Cyclic Group attribute) to its Go curve.
func CurveByGroup(group uint16) (elliptic.Curve, error) {
	const op = "eccutil.CurveByGroup"
	switch group {
	case 19:
		return elliptic.P256(), nil
	case 20:
		return elliptic.P384(), nil
	default:
		return nil, wsderr.New(wsderr.KindUnsupported, op, nil)
	}
}

// HashForCurve returns the hash DPP's key schedule pairs with curve: SHA256
// for P-256, SHA384 for P-384, matching the "hash length tracks curve
// strength" rule used throughout the key derivation.
func HashForCurve(curve elliptic.Curve) func() hash.Hash {
	if curve.Params().BitSize > 256 {
		return sha512.New384
	}
	return sha256.New
}

// Marshal serializes a point in SEC1 uncompressed form (0x04 || X || Y).
func Marshal(curve elliptic.Curve, x, y *big.Int) []byte {
	return elliptic.Marshal(curve, x, y)
}

// Unmarshal parses a SEC1 uncompressed point and verifies it lies on curve.
func Unmarshal(curve elliptic.Curve, data []byte) (x, y *big.Int, err error) {
	const op = "eccutil.Unmarshal"
	x, y = elliptic.Unmarshal(curve, data)
	if x == nil {
		return nil, nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	return x, y, nil
}

var (
	oidECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidP256        = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	oidP384        = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
)

// spki is the DER SubjectPublicKeyInfo shape: an algorithm identifier
// (ecPublicKey plus the named-curve OID) and the point as a bit string.
type spki struct {
	Algorithm struct {
		Algorithm asn1.ObjectIdentifier
		Curve     asn1.ObjectIdentifier
	}
	PublicKey asn1.BitString
}

// MarshalSPKI encodes a public point as an ASN.1 DER SubjectPublicKeyInfo,
// the wire format a bootstrapping URI's "K:" token and a DPP Provisioning
// attribute both carry. The point goes out compressed, with the type byte
// selected by y's parity so decoding needs no p - y recomputation.
func MarshalSPKI(curve elliptic.Curve, x, y *big.Int) ([]byte, error) {
	const op = "eccutil.MarshalSPKI"

	var curveOID asn1.ObjectIdentifier
	switch curve {
	case elliptic.P256():
		curveOID = oidP256
	case elliptic.P384():
		curveOID = oidP384
	default:
		return nil, wsderr.New(wsderr.KindUnsupported, op, nil)
	}

	point := elliptic.MarshalCompressed(curve, x, y)
	var out spki
	out.Algorithm.Algorithm = oidECPublicKey
	out.Algorithm.Curve = curveOID
	out.PublicKey = asn1.BitString{Bytes: point, BitLength: len(point) * 8}

	der, err := asn1.Marshal(out)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	return der, nil
}

// ParseSPKI decodes an ASN.1 DER SubjectPublicKeyInfo into curve and point,
// rejecting anything that isn't an EC public key on a curve this package
// supports. Both the compressed and uncompressed SEC1 point forms are
// accepted.
func ParseSPKI(der []byte) (curve elliptic.Curve, x, y *big.Int, err error) {
	const op = "eccutil.ParseSPKI"

	var in spki
	rest, perr := asn1.Unmarshal(der, &in)
	if perr != nil || len(rest) != 0 {
		return nil, nil, nil, wsderr.New(wsderr.KindBadMessage, op, perr)
	}
	if !in.Algorithm.Algorithm.Equal(oidECPublicKey) {
		return nil, nil, nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	switch {
	case in.Algorithm.Curve.Equal(oidP256):
		curve = elliptic.P256()
	case in.Algorithm.Curve.Equal(oidP384):
		curve = elliptic.P384()
	default:
		return nil, nil, nil, wsderr.New(wsderr.KindUnsupported, op, nil)
	}

	point := in.PublicKey.Bytes
	if len(point) == 0 {
		return nil, nil, nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	switch point[0] {
	case 0x02, 0x03:
		x, y = elliptic.UnmarshalCompressed(curve, point)
	case 0x04:
		x, y = elliptic.Unmarshal(curve, point)
	}
	if x == nil {
		return nil, nil, nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	return curve, x, y, nil
}

// FieldElementSize returns the byte length of a coordinate/scalar for curve
// (32 for P-256, 48 for P-384), the size DPP's key schedule zero-pads
// HKDF inputs and MIC material to.
func FieldElementSize(curve elliptic.Curve) int {
	return (curve.Params().BitSize + 7) / 8
}

// PadToFieldSize left-pads b with zeros to curve's coordinate size, the
// fixed-width form DPP concatenates into its HKDF "info" and "IKM" strings.
func PadToFieldSize(curve elliptic.Curve, b []byte) []byte {
	n := FieldElementSize(curve)
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}
