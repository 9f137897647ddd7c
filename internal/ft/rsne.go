package ft

import (
	"bytes"
	"encoding/binary"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// RSNE is a parsed RSN information element body. Every variable-length
// section is kept as raw bytes rather than decoded into suite structs,
// since this package only needs to compare or replace the PMKID list --
// never to interpret cipher/AKM suite selectors itself.
type RSNE struct {
	Version            uint16
	GroupCipher        [4]byte
	PairwiseCiphers    []byte // count*4 raw suite bytes
	AKMSuites          []byte // count*4 raw suite bytes
	HasCapabilities    bool
	Capabilities       uint16
	PMKIDs             [][16]byte
	HasGroupMgmtCipher bool
	GroupMgmtCipher    [4]byte
}

// ParseRSNE decodes an RSN element body (the bytes after the id/len
// header) into an RSNE, rejecting anything shorter than the fixed-size
// prefix or whose suite counts overrun the buffer.
func ParseRSNE(body []byte) (*RSNE, error) {
	const op = "ft.ParseRSNE"
	if len(body) < 8 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	r := &RSNE{}
	r.Version = binary.LittleEndian.Uint16(body[0:2])
	copy(r.GroupCipher[:], body[2:6])
	pos := 6

	pc := int(binary.LittleEndian.Uint16(body[pos : pos+2]))
	pos += 2
	if len(body) < pos+pc*4 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	r.PairwiseCiphers = body[pos : pos+pc*4]
	pos += pc * 4

	if len(body) < pos+2 {
		return r, nil
	}
	ac := int(binary.LittleEndian.Uint16(body[pos : pos+2]))
	pos += 2
	if len(body) < pos+ac*4 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	r.AKMSuites = body[pos : pos+ac*4]
	pos += ac * 4

	if len(body) < pos+2 {
		return r, nil
	}
	r.HasCapabilities = true
	r.Capabilities = binary.LittleEndian.Uint16(body[pos : pos+2])
	pos += 2

	if len(body) < pos+2 {
		return r, nil
	}
	pmc := int(binary.LittleEndian.Uint16(body[pos : pos+2]))
	pos += 2
	if len(body) < pos+pmc*16 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	for i := 0; i < pmc; i++ {
		var p [16]byte
		copy(p[:], body[pos+i*16:pos+(i+1)*16])
		r.PMKIDs = append(r.PMKIDs, p)
	}
	pos += pmc * 16

	if len(body) >= pos+4 {
		r.HasGroupMgmtCipher = true
		copy(r.GroupMgmtCipher[:], body[pos:pos+4])
	}
	return r, nil
}

// WithSinglePMKID returns a new RSNE identical to r but carrying exactly
// one PMKID, the form the FT authentication request's RSNE and the AP's
// responses both take (PMKID = PMK-R0-Name or PMK-R1-Name).
func (r *RSNE) WithSinglePMKID(pmkid [16]byte) *RSNE {
	clone := *r
	clone.PMKIDs = [][16]byte{pmkid}
	return &clone
}

// Encode serializes r back into an RSN element body.
func (r *RSNE) Encode() []byte {
	buf := make([]byte, 0, 64)
	var tmp [2]byte

	binary.LittleEndian.PutUint16(tmp[:], r.Version)
	buf = append(buf, tmp[:]...)
	buf = append(buf, r.GroupCipher[:]...)

	binary.LittleEndian.PutUint16(tmp[:], uint16(len(r.PairwiseCiphers)/4))
	buf = append(buf, tmp[:]...)
	buf = append(buf, r.PairwiseCiphers...)

	binary.LittleEndian.PutUint16(tmp[:], uint16(len(r.AKMSuites)/4))
	buf = append(buf, tmp[:]...)
	buf = append(buf, r.AKMSuites...)

	if r.HasCapabilities || len(r.PMKIDs) > 0 || r.HasGroupMgmtCipher {
		binary.LittleEndian.PutUint16(tmp[:], r.Capabilities)
		buf = append(buf, tmp[:]...)
	}

	if len(r.PMKIDs) > 0 || r.HasGroupMgmtCipher {
		binary.LittleEndian.PutUint16(tmp[:], uint16(len(r.PMKIDs)))
		buf = append(buf, tmp[:]...)
		for _, p := range r.PMKIDs {
			buf = append(buf, p[:]...)
		}
	}

	if r.HasGroupMgmtCipher {
		buf = append(buf, r.GroupMgmtCipher[:]...)
	}

	return buf
}

// EqualIgnoringPMKIDs reports whether r and other describe the same
// cipher/AKM/capability fields, ignoring their PMKID lists -- the
// comparison the FT response validator runs against the RSNE captured at
// scan time.
func (r *RSNE) EqualIgnoringPMKIDs(other *RSNE) bool {
	if r.Version != other.Version || r.GroupCipher != other.GroupCipher {
		return false
	}
	if !bytes.Equal(r.PairwiseCiphers, other.PairwiseCiphers) {
		return false
	}
	if !bytes.Equal(r.AKMSuites, other.AKMSuites) {
		return false
	}
	if r.HasCapabilities != other.HasCapabilities || r.Capabilities != other.Capabilities {
		return false
	}
	if r.HasGroupMgmtCipher != other.HasGroupMgmtCipher || r.GroupMgmtCipher != other.GroupMgmtCipher {
		return false
	}
	return true
}

// HasSinglePMKID reports whether r carries exactly one PMKID equal to want.
func (r *RSNE) HasSinglePMKID(want [16]byte) bool {
	return len(r.PMKIDs) == 1 && r.PMKIDs[0] == want
}
