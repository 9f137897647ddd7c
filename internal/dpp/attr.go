package dpp

import (
	"encoding/binary"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// AttrID identifies one DPP attribute type within a public-action-frame or
// wrapped-data attribute stream.
type AttrID uint16

const (
	AttrStatus             AttrID = 0x1000
	AttrInitiatorBootstrap AttrID = 0x1001
	AttrResponderBootstrap AttrID = 0x1002
	AttrInitiatorProtoKey  AttrID = 0x1003
	AttrInitiatorNonce     AttrID = 0x1005
	AttrInitiatorCapab     AttrID = 0x1006
	AttrRespProtoKey       AttrID = 0x1007
	AttrRespNonce          AttrID = 0x1008
	AttrRespCapab          AttrID = 0x1009
	AttrInitiatorAuthTag   AttrID = 0x100a
	AttrRespAuthTag        AttrID = 0x100b
	AttrConfigObj          AttrID = 0x100c
	AttrConnector          AttrID = 0x100d
	AttrConfigAttrObj      AttrID = 0x100e
	AttrProtocolVersion    AttrID = 0x100f
	// AttrWrappedData carries the AES-SIV-sealed payload; its id sits
	// apart from the plaintext attributes' run.
	AttrWrappedData AttrID = 0x101e
)

// Attribute is one (id, value) pair in a DPP attribute stream.
type Attribute struct {
	ID   AttrID
	Data []byte
}

// AppendAttr appends a little-endian TLV (2-byte id, 2-byte length, value)
// to buf, mirroring dpp_append_attr.
func AppendAttr(buf []byte, id AttrID, value []byte) []byte {
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(id))
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(value)))
	buf = append(buf, hdr...)
	buf = append(buf, value...)
	return buf
}

// IterAttrs walks a little-endian TLV stream (as AppendAttr produces),
// reporting a truncated header or a length field overrunning the buffer as
// BadMessage.
func IterAttrs(buf []byte) ([]Attribute, error) {
	const op = "dpp.IterAttrs"
	var out []Attribute
	for len(buf) > 0 {
		if len(buf) < 4 {
			return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
		}
		id := AttrID(binary.LittleEndian.Uint16(buf[0:2]))
		ln := binary.LittleEndian.Uint16(buf[2:4])
		buf = buf[4:]
		if int(ln) > len(buf) {
			return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
		}
		out = append(out, Attribute{ID: id, Data: buf[:ln]})
		buf = buf[ln:]
	}
	return out, nil
}

// Find returns the first attribute matching id, or NotFound.
func Find(attrs []Attribute, id AttrID) (Attribute, error) {
	const op = "dpp.Find"
	for _, a := range attrs {
		if a.ID == id {
			return a, nil
		}
	}
	return Attribute{}, wsderr.New(wsderr.KindNotFound, op, nil)
}
