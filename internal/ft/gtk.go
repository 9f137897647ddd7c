package ft

import (
	"github.com/gowsd/gowsd/internal/wsderr"
)

// KeyUnwrap is the handshake-supplied key-decryption primitive applied to
// wrapped GTK/IGTK material delivered in a reassociation response;
// AESKeyUnwrap is the conventional value.
type KeyUnwrap func(kek, wrapped []byte) ([]byte, error)

// GTKSubelem is a parsed GTK subelement: a key id/tx flag byte, an 8-byte
// receive sequence counter, 2 reserved bytes, then the wrapped key.
type GTKSubelem struct {
	KeyID   byte
	RSC     [8]byte
	Wrapped []byte
}

// ParseGTKSubelem decodes a GTK subelement body.
func ParseGTKSubelem(body []byte) (*GTKSubelem, error) {
	const op = "ft.ParseGTKSubelem"
	if len(body) < 1+8+2 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	g := &GTKSubelem{KeyID: body[0]}
	copy(g.RSC[:], body[1:9])
	g.Wrapped = body[11:]
	return g, nil
}

// rscHighBytesZero reports whether the top 4 bytes of an 8-byte receive
// sequence counter are all zero, the freshness check a GTK/IGTK delivered
// in a reassociation response must pass before it is installed.
func rscHighBytesZero(rsc [8]byte) bool {
	for _, b := range rsc[4:] {
		if b != 0 {
			return false
		}
	}
	return true
}

// DecryptGTK unwraps a GTK subelement's key material under kek via the
// handshake's unwrap primitive, rejecting it as Rejected if the RSC's high
// bytes are non-zero (a replayed or malformed delivery) or if the unwrap
// authentication fails.
func DecryptGTK(kek []byte, sub *GTKSubelem, unwrap KeyUnwrap) ([]byte, error) {
	const op = "ft.DecryptGTK"
	if !rscHighBytesZero(sub.RSC) {
		return nil, wsderr.New(wsderr.KindRejected, op, nil)
	}
	gtk, err := unwrap(kek, sub.Wrapped)
	if err != nil {
		return nil, wsderr.New(wsderr.KindRejected, op, err)
	}
	return gtk, nil
}

// IGTKSubelem is a parsed IGTK subelement: key id (2 bytes), IPN (6
// bytes), then the wrapped key.
type IGTKSubelem struct {
	KeyID   uint16
	IPN     [6]byte
	Wrapped []byte
}

// ParseIGTKSubelem decodes an IGTK subelement body.
func ParseIGTKSubelem(body []byte) (*IGTKSubelem, error) {
	const op = "ft.ParseIGTKSubelem"
	if len(body) < 2+6 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	g := &IGTKSubelem{KeyID: uint16(body[0]) | uint16(body[1])<<8}
	copy(g.IPN[:], body[2:8])
	g.Wrapped = body[8:]
	return g, nil
}

// DecryptIGTK unwraps an IGTK subelement's key material under kek.
func DecryptIGTK(kek []byte, sub *IGTKSubelem, unwrap KeyUnwrap) ([]byte, error) {
	const op = "ft.DecryptIGTK"
	igtk, err := unwrap(kek, sub.Wrapped)
	if err != nil {
		return nil, wsderr.New(wsderr.KindRejected, op, err)
	}
	return igtk, nil
}
