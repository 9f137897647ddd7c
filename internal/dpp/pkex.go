package dpp

import (
	"crypto/elliptic"
	"crypto/hmac"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"

	"github.com/gowsd/gowsd/internal/eccutil"
	"github.com/gowsd/gowsd/internal/wsderr"
)

// WFA Easy Connect v3.0 C.1 Role-specific Elements for NIST p256: the
// fixed generator points Pi (initiator) and Pr (responder) every PKEX
// exchange on this curve scales its Qi/Qr from. Qi and Qr are NOT these
// fixed points: per-exchange, they are H(MAC [|| identifier] || code)
// scaled by Pi/Pr (see CodeScalar and DeriveQi/DeriveQr).
var (
	pkexInitiatorP256X, _ = new(big.Int).SetString(
		"562612cf3648fe0b0704bb122250b254b194647e54ce08072eecca745b612d25", 16)
	pkexInitiatorP256Y, _ = new(big.Int).SetString(
		"3e44c7c98c1ca10b200993b2fde569dc75bcad33c1e7c6454d101e6a3d843ca4", 16)
	pkexResponderP256X, _ = new(big.Int).SetString(
		"1ea48ab1a4e84239ad7307f234df574fc09d54be361b310f59915233ac199d76", 16)
	pkexResponderP256Y, _ = new(big.Int).SetString(
		"d9fbf6b9f5fadf1958d83ec9897a35c1bde90b777acb912ae8213f4752024d67", 16)
)

// Pi returns PKEX's fixed initiator generator point for curve, or
// Unsupported for a curve Table C.1 defines no role-specific element for.
func Pi(curve elliptic.Curve) (x, y *big.Int, err error) {
	if curve != elliptic.P256() {
		return nil, nil, wsderr.New(wsderr.KindUnsupported, "dpp.Pi", nil)
	}
	return pkexInitiatorP256X, pkexInitiatorP256Y, nil
}

// Pr returns PKEX's fixed responder generator point for curve, or
// Unsupported for a curve Table C.1 defines no role-specific element for.
func Pr(curve elliptic.Curve) (x, y *big.Int, err error) {
	if curve != elliptic.P256() {
		return nil, nil, wsderr.New(wsderr.KindUnsupported, "dpp.Pr", nil)
	}
	return pkexResponderP256X, pkexResponderP256Y, nil
}

// CodeScalar computes the per-exchange scalar H(mac [|| identifier] ||
// code) that turns PKEX's fixed Pi/Pr point into the session's Qi/Qr: mac
// is the role's own MAC address (6 bytes), identifier is the optional
// free-text PKEX identifier, and code is the shared PKEX code.
func CodeScalar(curve elliptic.Curve, mac []byte, identifier, code string) []byte {
	newHash := eccutil.HashForCurve(curve)
	h := newHash()
	h.Write(mac)
	if identifier != "" {
		h.Write([]byte(identifier))
	}
	h.Write([]byte(code))
	return h.Sum(nil)
}

// DeriveQi computes the initiator's exchange point
// Qi = H(MAC_I [|| identifier] || code) · Pi.
func DeriveQi(curve elliptic.Curve, macI []byte, identifier, code string) (x, y *big.Int, err error) {
	piX, piY, err := Pi(curve)
	if err != nil {
		return nil, nil, err
	}
	x, y = curve.ScalarMult(piX, piY, CodeScalar(curve, macI, identifier, code))
	return x, y, nil
}

// DeriveQr computes the responder's exchange point
// Qr = H(MAC_R [|| identifier] || code) · Pr.
func DeriveQr(curve elliptic.Curve, macR []byte, identifier, code string) (x, y *big.Int, err error) {
	prX, prY, err := Pr(curve)
	if err != nil {
		return nil, nil, err
	}
	x, y = curve.ScalarMult(prX, prY, CodeScalar(curve, macR, identifier, code))
	return x, y, nil
}

// DerivePublicShare computes M (or N): X + Qi (or X + Qr), the obfuscated
// bootstrap-key share sent over the air, where X is the ephemeral PKEX key
// pair's public point and Q = codeScalar*P (P being Pi or Pr, per role).
func DerivePublicShare(curve elliptic.Curve, xX, xY *big.Int, codeScalar []byte, pX, pY *big.Int) (x, y *big.Int) {
	qx, qy := curve.ScalarMult(pX, pY, codeScalar)
	return curve.Add(xX, xY, qx, qy)
}

// RecoverPeerShare reverses DerivePublicShare: given the peer's transmitted
// share and the local view of Q = codeScalar*P, it subtracts to recover the
// peer's ephemeral public point X. Curve point subtraction is addition of
// the negated point (same x, P-y).
func RecoverPeerShare(curve elliptic.Curve, shareX, shareY *big.Int, codeScalar []byte, pX, pY *big.Int) (x, y *big.Int) {
	qx, qy := curve.ScalarMult(pX, pY, codeScalar)
	negY := new(big.Int).Sub(curve.Params().P, qy)
	return curve.Add(shareX, shareY, qx, negY)
}

// DeriveZ computes the PKEX session key z: HKDF-Extract with a zero-length
// salt over K.x (the ephemeral Diffie-Hellman secret's x coordinate),
// expanded with info = MAC_I || MAC_R || M.x || N.x || code. Unlike
// DeriveK1K2's zero-filled salt, PKEX's extraction uses a genuinely
// zero-length salt per the reference dpp_derive_z.
func DeriveZ(curve elliptic.Curve, kx, macI, macR, mx, nx []byte, code string) []byte {
	newHash := eccutil.HashForCurve(curve)

	extract := hmac.New(newHash, nil)
	extract.Write(kx)
	prk := extract.Sum(nil)

	info := make([]byte, 0, len(macI)+len(macR)+len(mx)+len(nx)+len(code))
	info = append(info, macI...)
	info = append(info, macR...)
	info = append(info, mx...)
	info = append(info, nx...)
	info = append(info, code...)

	out := make([]byte, newHash().Size())
	if _, err := io.ReadFull(hkdf.Expand(newHash, prk, info), out); err != nil {
		panic(err)
	}
	return out
}

// DeriveUV computes u (the initiator's commit-reveal tag, keyed by J.x) or
// v (the responder's, keyed by L.x): HMAC over the ordered components --
// for u that is MAC_I || A.x || Y.x || X.x, for v [MAC_R ||] B.x || X.x ||
// Y.x.
func DeriveUV(curve elliptic.Curve, key []byte, components ...[]byte) []byte {
	newHash := eccutil.HashForCurve(curve)
	mac := hmac.New(newHash, key)
	for _, c := range components {
		mac.Write(c)
	}
	return mac.Sum(nil)
}
