// This file implements AES Key Wrap (RFC 3394), the key-encryption
// algorithm the FT handshake's KEK applies to GTK/IGTK subelements. Like
// the FTE's CMAC, no library in the surrounding dependency set provides
// it, so it sits directly on crypto/aes.
package ft

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// kwIV is the RFC 3394 initial value the integrity check registers
// against.
var kwIV = [8]byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

// AESKeyWrap wraps plaintext (a multiple of 8 bytes, at least 16) under
// kek, producing output 8 bytes longer than the input.
func AESKeyWrap(kek, plaintext []byte) ([]byte, error) {
	const op = "ft.AESKeyWrap"
	if len(plaintext) < 16 || len(plaintext)%8 != 0 {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}

	n := len(plaintext) / 8
	out := make([]byte, 8*(n+1))
	copy(out[:8], kwIV[:])
	copy(out[8:], plaintext)

	var b [16]byte
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(b[:8], out[:8])
			copy(b[8:], out[i*8:i*8+8])
			block.Encrypt(b[:], b[:])
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(out[:8], binary.BigEndian.Uint64(b[:8])^t)
			copy(out[i*8:i*8+8], b[8:])
		}
	}
	return out, nil
}

// AESKeyUnwrap reverses AESKeyWrap, failing with BadMessage when the
// integrity register doesn't recover the RFC 3394 initial value.
func AESKeyUnwrap(kek, wrapped []byte) ([]byte, error) {
	const op = "ft.AESKeyUnwrap"
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}

	n := len(wrapped)/8 - 1
	a := make([]byte, 8)
	copy(a, wrapped[:8])
	out := make([]byte, n*8)
	copy(out, wrapped[8:])

	var b [16]byte
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(b[:8], binary.BigEndian.Uint64(a)^t)
			copy(b[8:], out[(i-1)*8:i*8])
			block.Decrypt(b[:], b[:])
			copy(a, b[:8])
			copy(out[(i-1)*8:i*8], b[8:])
		}
	}

	if subtle.ConstantTimeCompare(a, kwIV[:]) != 1 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	return out, nil
}
