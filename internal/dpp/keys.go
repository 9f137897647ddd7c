package dpp

import (
	"crypto/elliptic"
	"hash"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"

	"github.com/gowsd/gowsd/internal/eccutil"
)

// KeySchedule holds the symmetric material derived from the initiator and
// responder protocol keys during DPP authentication: k1 protects the first
// round's wrapped data, k2 the second, and ke the configuration exchange
// that follows a successful mutual authentication.
type KeySchedule struct {
	K1 []byte
	K2 []byte
	Ke []byte
}

// sharedX returns the big-endian, field-size-padded x coordinate of the
// ECDH shared point peerX,peerY scaled by privateScalar on curve -- the raw
// "M.x" / "N.x" material the key schedule hashes.
func sharedX(curve elliptic.Curve, privateScalar []byte, peerX, peerY *big.Int) []byte {
	x, _ := curve.ScalarMult(peerX, peerY, privateScalar)
	return eccutil.PadToFieldSize(curve, x.Bytes())
}

// zeroSaltExpand derives n bytes via HKDF-Extract(salt=zeroes of len(ikm),
// ikm) followed by HKDF-Expand(prk, info), the convention DPP's dpp_hkdf
// helper uses throughout k1/k2/ke derivation. PKEX's z derivation differs:
// it extracts with a true zero-length salt, which DeriveZ implements
// directly rather than through this helper.
func zeroSaltExpand(newHash func() hash.Hash, ikm []byte, info string, n int) []byte {
	salt := make([]byte, len(ikm))
	r := hkdf.New(newHash, ikm, salt, []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		panic(err) // hkdf.Reader only errors past its output-length limit
	}
	return out
}

// DeriveK1K2 computes k1 = HKDF(M.x, "first intermediate key") and
// k2 = HKDF(N.x, "second intermediate key"), each truncated to the curve's
// hash length: the first-message and second-message wrapping keys of DPP
// authentication.
func DeriveK1K2(curve elliptic.Curve, mx, nx []byte) KeySchedule {
	newHash := eccutil.HashForCurve(curve)
	n := eccutil.FieldElementSize(curve)
	return KeySchedule{
		K1: zeroSaltExpand(newHash, mx, "first intermediate key", n),
		K2: zeroSaltExpand(newHash, nx, "second intermediate key", n),
	}
}

// DeriveKe computes ke = HKDF(I.nonce || R.nonce, ikm, "DPP Key") where ikm
// is the concatenation of the initiator and responder ECDH shared secrets:
// M.x || N.x, followed by L.x in the mutual-auth case where the bootstrap
// key pairs contribute the extra shared point.
func DeriveKe(curve elliptic.Curve, iNonce, rNonce, ikm []byte) []byte {
	newHash := eccutil.HashForCurve(curve)
	n := eccutil.FieldElementSize(curve)
	salt := append(append([]byte{}, iNonce...), rNonce...)
	r := hkdf.New(newHash, ikm, salt, []byte("DPP Key"))
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		panic(err)
	}
	return out
}

// AuthTag computes an authentication tag (I-auth or R-auth): the curve's
// hash over the ordered components. For R-auth that is I-nonce || R-nonce
// || PI.x || PR.x || [BI.x ||] BR.x || 0x00; I-auth swaps the nonce and
// protocol-key order and ends in 0x01. The optional BI.x component is
// present only when the exchange authenticates mutually.
func AuthTag(curve elliptic.Curve, components ...[]byte) []byte {
	h := eccutil.HashForCurve(curve)()
	for _, c := range components {
		h.Write(c)
	}
	return h.Sum(nil)
}

// DeriveLI computes the initiator's mutual-authentication shared point
// L_I = bI * (BR + PR), where bI is the initiator's bootstrapping private
// key and BR, PR are the responder's bootstrapping and protocol public
// points. It never touches the initiator's protocol private key: that
// scalar is not part of the L_I formula.
func DeriveLI(curve elliptic.Curve, bI []byte, brX, brY, prX, prY *big.Int) (*big.Int, *big.Int) {
	sumX, sumY := curve.Add(brX, brY, prX, prY)
	return curve.ScalarMult(sumX, sumY, bI)
}

// DeriveLR computes the responder's mutual-authentication shared point
// L_R = ((bR + pR) mod q) * BI, where bR and pR are the responder's
// bootstrapping and protocol private keys and BI is the initiator's
// bootstrapping public point. DeriveLI and DeriveLR produce equal points
// for corresponding key pairs: bI*(BR+PR) = bI*BR + bI*PR = bR*BI + pR*BI
// = (bR+pR)*BI, by commutativity of scalar multiplication on the curve.
func DeriveLR(curve elliptic.Curve, bR, pR []byte, biX, biY *big.Int) (*big.Int, *big.Int) {
	q := curve.Params().N
	sum := new(big.Int).Add(new(big.Int).SetBytes(bR), new(big.Int).SetBytes(pR))
	sum.Mod(sum, q)
	return curve.ScalarMult(biX, biY, sum.Bytes())
}

