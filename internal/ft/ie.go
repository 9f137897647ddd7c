package ft

import (
	"github.com/gowsd/gowsd/internal/wsderr"
)

// 802.11 information element ids this package builds or parses.
const (
	IEIDRSN = 48
	IEIDMDE = 54
	IEIDFTE = 55
)

// IE is one raw 802.11 information element: a one-byte id, a one-byte
// length, and a body of that many bytes.
type IE struct {
	ID   byte
	Body []byte
}

// AppendIE appends one IE (id, len(body), body) to buf.
func AppendIE(buf []byte, id byte, body []byte) []byte {
	buf = append(buf, id, byte(len(body)))
	return append(buf, body...)
}

// IterIEs walks a concatenated run of information elements, returning them
// in order. A truncated header or a length that overruns buf is
// BadMessage.
func IterIEs(buf []byte) ([]IE, error) {
	const op = "ft.IterIEs"
	var out []IE
	for len(buf) > 0 {
		if len(buf) < 2 {
			return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
		}
		id, l := buf[0], int(buf[1])
		if len(buf) < 2+l {
			return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
		}
		out = append(out, IE{ID: id, Body: buf[2 : 2+l]})
		buf = buf[2+l:]
	}
	return out, nil
}

// FindIE returns the first element of ies with the given id, or NotFound.
func FindIE(ies []IE, id byte) (IE, error) {
	const op = "ft.FindIE"
	for _, ie := range ies {
		if ie.ID == id {
			return ie, nil
		}
	}
	return IE{}, wsderr.New(wsderr.KindNotFound, op, nil)
}
