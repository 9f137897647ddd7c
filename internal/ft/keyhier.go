// This file derives the FT key hierarchy (IEEE 802.11-2020 12.7.1.6): the
// KDF shared by every level, PMK-R0 and its name, PMK-R1 and its name, and
// the PTK that keys the reassociation MIC. The hash is selected by key
// length the same way ComputeFTEMIC selects its MAC: 32-byte keys use
// SHA-256, 48-byte keys use SHA-384.
package ft

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"
	"net"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// kdf is the 802.11 KDF-Hash-Length construction: HMAC-Hash(key,
// LE16(counter) || label || context || LE16(bits)) iterated until size
// bytes are produced, counter starting at 1.
func kdf(h func() hash.Hash, key []byte, label string, context []byte, size int) []byte {
	out := make([]byte, 0, size)
	bits := uint16(size * 8)
	for counter := uint16(1); len(out) < size; counter++ {
		mac := hmac.New(h, key)
		var le [2]byte
		binary.LittleEndian.PutUint16(le[:], counter)
		mac.Write(le[:])
		mac.Write([]byte(label))
		mac.Write(context)
		binary.LittleEndian.PutUint16(le[:], bits)
		mac.Write(le[:])
		out = mac.Sum(out)
	}
	return out[:size]
}

// ftHash maps an FT key-hierarchy key length to its hash: SHA-256 for the
// 256-bit suites, SHA-384 for the 384-bit ones.
func ftHash(keyLen int) (func() hash.Hash, error) {
	switch keyLen {
	case 32:
		return sha256.New, nil
	case 48:
		return sha512.New384, nil
	default:
		return nil, wsderr.New(wsderr.KindInvalidArgument, "ft.ftHash", nil)
	}
}

// DerivePMKR0 computes the first level of the FT key hierarchy from the
// AKM's XXKey (the MSK tail for EAP suites, the PSK otherwise): PMK-R0 and
// PMK-R0-Name. The context binds the SSID, the mobility domain id, the
// R0KH-ID, and the station address (S0KH-ID).
func DerivePMKR0(xxkey, ssid []byte, mdid [2]byte, r0khID string, spa net.HardwareAddr) (pmkR0 []byte, pmkR0Name [16]byte, err error) {
	const op = "ft.DerivePMKR0"
	h, err := ftHash(len(xxkey))
	if err != nil {
		return nil, pmkR0Name, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	if len(ssid) == 0 || len(ssid) > 32 || len(r0khID) == 0 || len(r0khID) > 48 || len(spa) != 6 {
		return nil, pmkR0Name, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}

	context := make([]byte, 0, 2+len(ssid)+2+1+len(r0khID)+6)
	context = append(context, byte(len(ssid)))
	context = append(context, ssid...)
	context = append(context, mdid[:]...)
	context = append(context, byte(len(r0khID)))
	context = append(context, r0khID...)
	context = append(context, spa...)

	// R0-Key-Data is PMK-R0 followed by a 128-bit salt the name is
	// hashed from.
	keyData := kdf(h, xxkey, "FT-R0", context, len(xxkey)+16)
	pmkR0 = keyData[:len(xxkey)]
	salt := keyData[len(xxkey):]

	name := h()
	name.Write([]byte("FT-R0N"))
	name.Write(salt)
	copy(pmkR0Name[:], name.Sum(nil))
	return pmkR0, pmkR0Name, nil
}

// DerivePMKR1 computes the second level of the hierarchy for one R1 key
// holder: PMK-R1 = KDF(PMK-R0, "FT-R1", R1KH-ID || S1KH-ID) and its name,
// Truncate-128(Hash("FT-R1N" || PMK-R0-Name || R1KH-ID || S1KH-ID)).
func DerivePMKR1(pmkR0 []byte, pmkR0Name [16]byte, r1khID, spa net.HardwareAddr) (pmkR1 []byte, pmkR1Name [16]byte, err error) {
	const op = "ft.DerivePMKR1"
	h, err := ftHash(len(pmkR0))
	if err != nil {
		return nil, pmkR1Name, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	if len(r1khID) != 6 || len(spa) != 6 {
		return nil, pmkR1Name, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}

	context := make([]byte, 0, 12)
	context = append(context, r1khID...)
	context = append(context, spa...)
	pmkR1 = kdf(h, pmkR0, "FT-R1", context, len(pmkR0))

	name := h()
	name.Write([]byte("FT-R1N"))
	name.Write(pmkR0Name[:])
	name.Write(context)
	copy(pmkR1Name[:], name.Sum(nil))
	return pmkR1, pmkR1Name, nil
}

// PMKR1Name recomputes just the PMK-R1-Name for an R1 key holder learned
// from an authentication response, without needing PMK-R0 itself; the
// 16-byte-KCK suites name keys with SHA-256, the 24-byte ones with
// SHA-384.
func PMKR1Name(micLen int, pmkR0Name [16]byte, r1khID, spa net.HardwareAddr) ([16]byte, error) {
	const op = "ft.PMKR1Name"
	var out [16]byte
	if len(r1khID) != 6 || len(spa) != 6 {
		return out, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	var h func() hash.Hash
	switch micLen {
	case 16:
		h = sha256.New
	case 24:
		h = sha512.New384
	default:
		return out, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	name := h()
	name.Write([]byte("FT-R1N"))
	name.Write(pmkR0Name[:])
	name.Write(r1khID)
	name.Write(spa)
	copy(out[:], name.Sum(nil))
	return out, nil
}

// PTK is the pairwise transient key the FT handshake ends in, split into
// the confirmation, encryption, and temporal parts the later exchanges
// consume.
type PTK struct {
	KCK []byte
	KEK []byte
	TK  []byte
	// Name identifies the PTK: Truncate-128(SHA-256(PMK-R1-Name ||
	// "FT-PTKN" || SNonce || ANonce || BSSID || STA-ADDR)).
	Name [16]byte
}

// DeriveFTPTK computes PTK = KDF(PMK-R1, "FT-PTK", SNonce || ANonce ||
// BSSID || STA-ADDR). KCK and KEK widths follow the hierarchy's hash (16
// and 16 bytes under SHA-256, 24 and 32 under SHA-384); tkLen is the
// pairwise cipher's temporal-key width.
func DeriveFTPTK(pmkR1 []byte, pmkR1Name [16]byte, aa, spa net.HardwareAddr, aNonce, sNonce [32]byte, tkLen int) (*PTK, error) {
	const op = "ft.DeriveFTPTK"
	h, err := ftHash(len(pmkR1))
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	if len(aa) != 6 || len(spa) != 6 || tkLen <= 0 {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}

	kckLen, kekLen := 16, 16
	if len(pmkR1) == 48 {
		kckLen, kekLen = 24, 32
	}

	context := make([]byte, 0, 32+32+6+6)
	context = append(context, sNonce[:]...)
	context = append(context, aNonce[:]...)
	context = append(context, aa...)
	context = append(context, spa...)
	keyData := kdf(h, pmkR1, "FT-PTK", context, kckLen+kekLen+tkLen)

	ptk := &PTK{
		KCK: keyData[:kckLen],
		KEK: keyData[kckLen : kckLen+kekLen],
		TK:  keyData[kckLen+kekLen:],
	}
	name := sha256.New()
	name.Write(pmkR1Name[:])
	name.Write([]byte("FT-PTKN"))
	name.Write(context)
	copy(ptk.Name[:], name.Sum(nil))
	return ptk, nil
}
