package ft

import (
	"encoding/binary"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// FTE is a parsed Fast BSS Transition element. The MIC field's width is
// not fixed by the element format: it is 16 bytes for the AES-128-CMAC
// AKM class and 24 bytes for the HMAC-SHA384 AKM, so callers must track
// and pass the negotiated width (see ParseFTE). OCI, GTK, and IGTK
// subelements are kept as raw TLVs (subelement id, then a length byte,
// then the body) appended after the fixed header, mirroring how the
// element is laid out on the wire.
type FTE struct {
	MICControl uint16 // low byte: element count; high byte: reserved/flags
	MIC        []byte // micLen bytes, per the negotiated AKM's KCK length
	ANonce     [32]byte
	SNonce     [32]byte
	Subelems   []byte
}

// MICElementCount returns the element-count field packed into MICControl.
func (f *FTE) MICElementCount() int { return int(f.MICControl & 0xff) }

// SetMICElementCount sets the element-count field, used when a response is
// expected to carry zero elements (message 2) versus three (reassociation).
func (f *FTE) SetMICElementCount(n int) { f.MICControl = f.MICControl&0xff00 | uint16(n) }

// ParseFTE decodes a Fast BSS Transition element body whose MIC field is
// micLen bytes wide (16 for the AES-128-CMAC AKM class, 24 for the
// HMAC-SHA384 AKM).
func ParseFTE(body []byte, micLen int) (*FTE, error) {
	const op = "ft.ParseFTE"
	if micLen <= 0 {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	if len(body) < 2+micLen+32+32 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	f := &FTE{MIC: make([]byte, micLen)}
	f.MICControl = binary.LittleEndian.Uint16(body[0:2])
	copy(f.MIC, body[2:2+micLen])
	copy(f.ANonce[:], body[2+micLen:2+micLen+32])
	copy(f.SNonce[:], body[2+micLen+32:2+micLen+64])
	f.Subelems = body[2+micLen+64:]
	return f, nil
}

// Encode serializes f back into an FTE body, sizing the MIC field to
// len(f.MIC).
func (f *FTE) Encode() []byte {
	micLen := len(f.MIC)
	n := 2 + micLen + 32 + 32
	buf := make([]byte, n, n+len(f.Subelems))
	binary.LittleEndian.PutUint16(buf[0:2], f.MICControl)
	copy(buf[2:2+micLen], f.MIC)
	copy(buf[2+micLen:2+micLen+32], f.ANonce[:])
	copy(buf[2+micLen+32:n], f.SNonce[:])
	return append(buf, f.Subelems...)
}

// WithZeroMIC returns a copy of f with the MIC field zeroed (same width),
// the form the FTE takes under its own MIC computation.
func (f *FTE) WithZeroMIC() *FTE {
	clone := *f
	clone.MIC = make([]byte, len(f.MIC))
	return &clone
}

// FTE subelement ids carried in Subelems.
const (
	SubelemR0KHID = 3
	SubelemR1KHID = 1
	SubelemGTK    = 2
	SubelemIGTK   = 4
	SubelemOCI    = 7
)

// FindSubelem returns the body of the first occurrence of id within a
// subelement TLV run, or NotFound.
func FindSubelem(subelems []byte, id byte) ([]byte, error) {
	const op = "ft.FindSubelem"
	buf := subelems
	for len(buf) > 0 {
		if len(buf) < 2 {
			return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
		}
		subID, l := buf[0], int(buf[1])
		if len(buf) < 2+l {
			return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
		}
		if subID == id {
			return buf[2 : 2+l], nil
		}
		buf = buf[2+l:]
	}
	return nil, wsderr.New(wsderr.KindNotFound, op, nil)
}

// AppendSubelem appends one subelement (id, len(body), body) to buf.
func AppendSubelem(buf []byte, id byte, body []byte) []byte {
	buf = append(buf, id, byte(len(body)))
	return append(buf, body...)
}
