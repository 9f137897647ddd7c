// Package aessiv implements AES-SIV (RFC 5297) deterministic authenticated
// encryption: S2V over a CMAC pseudo-random function, followed by AES-CTR
// keyed by the S2V output with bits 31 and 63 of the synthetic IV cleared.
//
// No wrapped-data library exists in the surrounding dependency set, so this
// is built directly on crypto/aes and crypto/cipher, mirroring the way the
// rest of this tree hand-rolls CMAC (see internal/ft's FTE MIC) rather than
// importing a crypto framework for a single primitive.
package aessiv

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"

	"github.com/gowsd/gowsd/internal/wsderr"
)

const blockSize = aes.BlockSize

// cmac computes AES-CMAC (RFC 4493) of msg under key using block as the
// already-constructed AES cipher for key.
func cmac(block cipher.Block, msg []byte) []byte {
	k1, k2 := subkeys(block)

	n := (len(msg) + blockSize - 1) / blockSize
	var flag bool
	if n == 0 {
		n = 1
		flag = false
	} else {
		flag = len(msg)%blockSize == 0
	}

	var mLast [blockSize]byte
	if flag {
		copy(mLast[:], msg[(n-1)*blockSize:])
		xorInto(mLast[:], k1[:])
	} else {
		tail := msg[(n-1)*blockSize:]
		copy(mLast[:], tail)
		mLast[len(tail)] = 0x80
		xorInto(mLast[:], k2[:])
	}

	x := make([]byte, blockSize)
	for i := 0; i < n-1; i++ {
		xorInto(x, msg[i*blockSize:(i+1)*blockSize])
		enc := make([]byte, blockSize)
		block.Encrypt(enc, x)
		x = enc
	}

	y := make([]byte, blockSize)
	xorBytes(y, x, mLast[:])
	out := make([]byte, blockSize)
	block.Encrypt(out, y)
	return out
}

func xorInto(dst []byte, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

func subkeys(block cipher.Block) (k1, k2 [blockSize]byte) {
	var zero, l [blockSize]byte
	block.Encrypt(l[:], zero[:])

	k1 = shiftLeftXorRb(l)
	k2 = shiftLeftXorRb(k1)
	return k1, k2
}

// shiftLeftXorRb left-shifts in by one bit and conditionally XORs the RFC
// 4493 constant Rb (0x87 in the low byte) when the carry out of the MSB is
// set.
func shiftLeftXorRb(in [blockSize]byte) [blockSize]byte {
	var out [blockSize]byte
	var carry byte
	for i := blockSize - 1; i >= 0; i-- {
		out[i] = (in[i] << 1) | carry
		carry = in[i] >> 7
	}
	if in[0]&0x80 != 0 {
		out[blockSize-1] ^= 0x87
	}
	return out
}

// s2v is the vector-CMAC used by S2V: it keys one AES-CMAC instance
// and runs it over each string in turn, doubling the accumulator before
// folding in every component but the last per RFC 5297 section 2.4.
func s2v(block cipher.Block, ads [][]byte, plaintext []byte) []byte {
	d := cmac(block, make([]byte, blockSize))

	for _, s := range ads {
		d = dbl(d)
		c := cmac(block, s)
		xorInto(d, c)
	}

	if len(plaintext) >= blockSize {
		t := make([]byte, len(plaintext))
		copy(t, plaintext)
		xorInto(t[len(t)-blockSize:], d)
		return cmac(block, t)
	}
	return cmac(block, xorEndPad(dbl(d), plaintext))
}

func dbl(in []byte) []byte {
	var a [blockSize]byte
	copy(a[:], in)
	out := shiftLeftXorRb(a)
	return out[:]
}

// xorEndPad implements RFC 5297's pad(X) || then XOR-into-d step used when
// the final string is shorter than one block: X is padded with a single 1
// bit followed by zeros, then XORed with d.
func xorEndPad(d []byte, x []byte) []byte {
	out := make([]byte, blockSize)
	copy(out, x)
	if len(x) < blockSize {
		out[len(x)] = 0x80
	}
	xorInto(out, d)
	return out
}

// Seal encrypts plaintext under key (32, 48 or 64 bytes: first half is the
// CMAC/S2V key, second half the CTR key) and returns synthetic-IV || ciphertext.
// ads holds the associated-data strings fed to S2V in order, mirroring the
// AD1..ADn components a DPP wrapped-data attribute uses (protocol version,
// peer nonce, capabilities, ...).
func Seal(key []byte, ads [][]byte, plaintext []byte) ([]byte, error) {
	const op = "aessiv.Seal"
	k1, k2, err := splitKey(key)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}

	macBlock, err := aes.NewCipher(k1)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	ctrBlock, err := aes.NewCipher(k2)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}

	iv := s2v(macBlock, ads, plaintext)
	ctrIV := make([]byte, blockSize)
	copy(ctrIV, iv)
	ctrIV[8] &= 0x7f
	ctrIV[12] &= 0x7f

	ct := make([]byte, len(plaintext))
	stream := cipher.NewCTR(ctrBlock, ctrIV)
	stream.XORKeyStream(ct, plaintext)

	out := make([]byte, 0, blockSize+len(ct))
	out = append(out, iv...)
	out = append(out, ct...)
	return out, nil
}

// Open reverses Seal, reporting a mismatched synthetic IV as BadMessage
// (the wrapped-data attribute was forged, truncated, or built under the
// wrong key).
func Open(key []byte, ads [][]byte, sealed []byte) ([]byte, error) {
	const op = "aessiv.Open"
	if len(sealed) < blockSize {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	k1, k2, err := splitKey(key)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}

	macBlock, err := aes.NewCipher(k1)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	ctrBlock, err := aes.NewCipher(k2)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}

	iv := sealed[:blockSize]
	ct := sealed[blockSize:]

	ctrIV := make([]byte, blockSize)
	copy(ctrIV, iv)
	ctrIV[8] &= 0x7f
	ctrIV[12] &= 0x7f

	pt := make([]byte, len(ct))
	stream := cipher.NewCTR(ctrBlock, ctrIV)
	stream.XORKeyStream(pt, ct)

	check := s2v(macBlock, ads, pt)
	if subtle.ConstantTimeCompare(check, iv) != 1 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	return pt, nil
}

func splitKey(key []byte) (k1, k2 []byte, err error) {
	switch len(key) {
	case 32, 48, 64:
		half := len(key) / 2
		return key[:half], key[half:], nil
	default:
		return nil, nil, errBadKeyLen{}
	}
}

type errBadKeyLen struct{}

func (errBadKeyLen) Error() string { return "aessiv: key must be 32, 48, or 64 bytes" }
