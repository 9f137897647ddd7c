// Package nlattr is a typed projection of nl80211 generic-netlink attribute
// streams into strongly-typed Go values, built on top of
// github.com/mdlayher/netlink's attribute (de)serialization.
//
// Each attribute id maps to exactly one semantic decoder (ifindex, MAC,
// name, country code, u32, u64, flag, iovec, or nested container); Parse
// walks a message once against a caller-supplied field list and reports
// schema violations as a *wsderr.Error.
package nlattr

import (
	"net"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// Kind selects which decoder a Field uses.
type Kind uint8

const (
	KindIfindex Kind = iota + 1
	KindU32
	KindU64
	KindU8
	KindName
	KindCountry2
	KindMAC
	KindFlag
	KindIOVec
	KindNested
)

// Field describes one attribute the caller expects to find, and where to
// store it once decoded.
type Field struct {
	ID   uint16
	Kind Kind

	U32     *uint32
	U64     *uint64
	U8      *uint8
	Str     *string
	Country *[2]byte
	MAC     *net.HardwareAddr
	Flag    *bool
	IOVec   *[]byte
	Nested  *[]netlink.Attribute

	present bool
}

func decode(f *Field, a netlink.Attribute) error {
	switch f.Kind {
	case KindIfindex:
		if len(a.Data) != 4 {
			return errBadLen
		}
		v := nlenc.Uint32(a.Data)
		if v == 0 {
			return errBadLen
		}
		*f.U32 = v
	case KindU32:
		if len(a.Data) != 4 {
			return errBadLen
		}
		*f.U32 = nlenc.Uint32(a.Data)
	case KindU64:
		if len(a.Data) != 8 {
			return errBadLen
		}
		*f.U64 = nlenc.Uint64(a.Data)
	case KindU8:
		if len(a.Data) != 1 {
			return errBadLen
		}
		*f.U8 = a.Data[0]
	case KindName:
		if len(a.Data) < 1 {
			return errBadLen
		}
		nul := false
		for _, b := range a.Data[1:] {
			if b == 0 {
				nul = true
				break
			}
		}
		if !nul {
			return errBadLen
		}
		*f.Str = nlenc.String(a.Data)
	case KindCountry2:
		if len(a.Data) != 3 || a.Data[2] != 0 {
			return errBadLen
		}
		f.Country[0] = a.Data[0]
		f.Country[1] = a.Data[1]
	case KindMAC:
		if len(a.Data) != 6 {
			return errBadLen
		}
		*f.MAC = net.HardwareAddr(append([]byte(nil), a.Data...))
	case KindFlag:
		if len(a.Data) != 0 {
			return errBadLen
		}
	case KindIOVec:
		*f.IOVec = a.Data
	case KindNested:
		nested, err := netlink.UnmarshalAttributes(a.Data)
		if err != nil {
			return err
		}
		*f.Nested = nested
	}
	return nil
}

var errBadLen = errBadLenType{}

type errBadLenType struct{}

func (errBadLenType) Error() string { return "attribute has unexpected length" }

// Parse decodes msg (the raw attribute-stream body of a generic-netlink
// message) against fields, checking each field's id against the
// process-wide NL80211AttrKind schema before using it. Attribute ids present
// in msg but not in fields are ignored -- fields selects which of the
// schema's attributes this call cares about, not the schema itself.
// Semantics:
//
//   - a field id absent from NL80211AttrKind, or present with a different
//     Kind than the field declares -> Unsupported
//   - an id in fields not present in msg (and not KindFlag) -> NotFound
//   - an id present more than once in msg -> AlreadyPresent
//   - a decoder rejecting the value (bad length, zero ifindex, ...) -> InvalidArgument
func Parse(msg []byte, fields ...Field) error {
	const op = "nlattr.Parse"

	for i := range fields {
		if fields[i].Kind == 0 || fields[i].Kind > KindNested {
			return wsderr.New(wsderr.KindUnsupported, op, nil)
		}
		if NL80211AttrKind[fields[i].ID] != fields[i].Kind {
			return wsderr.New(wsderr.KindUnsupported, op, nil)
		}
	}

	attrs, err := netlink.UnmarshalAttributes(msg)
	if err != nil {
		return wsderr.New(wsderr.KindBadMessage, op, err)
	}

	for _, a := range attrs {
		idx := -1
		for i := range fields {
			if fields[i].ID == a.Type {
				idx = i
				break
			}
		}
		if idx == -1 {
			continue
		}

		f := &fields[idx]
		if f.present {
			return wsderr.New(wsderr.KindAlreadyPresent, op, nil)
		}
		if err := decode(f, a); err != nil {
			return wsderr.New(wsderr.KindInvalidArgument, op, err)
		}
		f.present = true
	}

	for i := range fields {
		f := &fields[i]
		if f.Kind == KindFlag {
			*f.Flag = f.present
			continue
		}
		if !f.present {
			return wsderr.New(wsderr.KindNotFound, op, nil)
		}
	}

	return nil
}

// NL80211AttrKind maps well-known nl80211 attribute ids to their Kind, mirroring
// the reference implementation's handler_for_type switch. Exported as a
// lookup table rather than a function so callers building a custom Field
// list can reuse the classification without re-deriving it.
var NL80211AttrKind = map[uint16]Kind{
	unix.NL80211_ATTR_IFINDEX:           KindIfindex,
	unix.NL80211_ATTR_WIPHY:             KindU32,
	unix.NL80211_ATTR_IFTYPE:            KindU32,
	unix.NL80211_ATTR_KEY_TYPE:          KindU32,
	unix.NL80211_ATTR_WDEV:              KindU64,
	unix.NL80211_ATTR_IFNAME:            KindName,
	unix.NL80211_ATTR_WIPHY_NAME:        KindName,
	unix.NL80211_ATTR_REG_ALPHA2:        KindCountry2,
	unix.NL80211_ATTR_MAC:               KindMAC,
	unix.NL80211_ATTR_ACK:               KindFlag,
	unix.NL80211_ATTR_WIPHY_FREQ:        KindU32,
	unix.NL80211_ATTR_WIPHY_CHANNEL_TYPE: KindU32,
	unix.NL80211_ATTR_CHANNEL_WIDTH:     KindU32,
	unix.NL80211_ATTR_CENTER_FREQ1:      KindU32,
	unix.NL80211_ATTR_CENTER_FREQ2:      KindU32,
	unix.NL80211_ATTR_FRAME:             KindIOVec,
	unix.NL80211_ATTR_WIPHY_BANDS:       KindNested,
	unix.NL80211_ATTR_KEY_IDX:           KindU8,
}
