package nlattr

import (
	"encoding/binary"
	"net"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// encode runs fn over a fresh netlink.AttributeEncoder and returns the
// marshaled attribute stream, panicking only on an encoder bug (the
// encoder itself cannot fail for the primitive types used here).
func encode(fn func(ae *netlink.AttributeEncoder)) []byte {
	ae := netlink.NewAttributeEncoder()
	fn(ae)
	b, err := ae.Encode()
	if err != nil {
		// Only reachable if fn encodes a value the encoder itself
		// rejects, which none of the helpers below do.
		panic(err)
	}
	return b
}

// NewKeyGroup builds an NL80211_CMD_NEW_KEY message installing a group key,
// mirroring nl80211_build_new_key_group.
func NewKeyGroup(ifindex uint32, cipher uint32, keyID uint8, key, seq []byte, addr net.HardwareAddr) genetlink.Message {
	const keytypeGroup = unix.NL80211_KEYTYPE_GROUP

	data := encode(func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, ifindex)
		if addr != nil {
			ae.Bytes(unix.NL80211_ATTR_MAC, addr)
		}
		ae.Nested(unix.NL80211_ATTR_KEY, func(nae *netlink.AttributeEncoder) error {
			nae.Bytes(unix.NL80211_KEY_DATA, key)
			nae.Uint32(unix.NL80211_KEY_CIPHER, cipher)
			nae.Uint8(unix.NL80211_KEY_IDX, keyID)
			if seq != nil {
				nae.Bytes(unix.NL80211_KEY_SEQ, seq)
			}
			nae.Uint32(unix.NL80211_KEY_TYPE, uint32(keytypeGroup))
			nae.Nested(unix.NL80211_KEY_DEFAULT_TYPES, func(dae *netlink.AttributeEncoder) error {
				dae.Flag(unix.NL80211_KEY_DEFAULT_TYPE_MULTICAST, true)
				return nil
			})
			return nil
		})
	})

	return genetlink.Message{
		Header: genetlink.Header{Command: unix.NL80211_CMD_NEW_KEY},
		Data:   data,
	}
}

// staFlagUpdate mirrors struct nl80211_sta_flag_update: a mask/set pair of
// NL80211_STA_FLAG_* bitmaps.
type staFlagUpdate struct {
	Mask uint32
	Set  uint32
}

func (u staFlagUpdate) bytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], u.Mask)
	binary.LittleEndian.PutUint32(b[4:8], u.Set)
	return b
}

func setStation(ifindex uint32, addr net.HardwareAddr, flags staFlagUpdate) genetlink.Message {
	data := encode(func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, ifindex)
		ae.Bytes(unix.NL80211_ATTR_MAC, addr)
		ae.Bytes(unix.NL80211_ATTR_STA_FLAGS2, flags.bytes())
	})
	return genetlink.Message{
		Header: genetlink.Header{Command: unix.NL80211_CMD_SET_STATION},
		Data:   data,
	}
}

// SetStationAuthorized builds a SET_STATION marking addr authorized.
func SetStationAuthorized(ifindex uint32, addr net.HardwareAddr) genetlink.Message {
	return setStation(ifindex, addr, staFlagUpdate{
		Mask: 1 << unix.NL80211_STA_FLAG_AUTHORIZED,
		Set:  1 << unix.NL80211_STA_FLAG_AUTHORIZED,
	})
}

// SetStationAssociated builds a SET_STATION marking addr authenticated and
// associated.
func SetStationAssociated(ifindex uint32, addr net.HardwareAddr) genetlink.Message {
	bits := uint32(1<<unix.NL80211_STA_FLAG_AUTHENTICATED | 1<<unix.NL80211_STA_FLAG_ASSOCIATED)
	return setStation(ifindex, addr, staFlagUpdate{Mask: bits, Set: bits})
}

// SetStationUnauthorized builds a SET_STATION clearing addr's authorized bit.
func SetStationUnauthorized(ifindex uint32, addr net.HardwareAddr) genetlink.Message {
	return setStation(ifindex, addr, staFlagUpdate{
		Mask: 1 << unix.NL80211_STA_FLAG_AUTHORIZED,
		Set:  0,
	})
}

// SetKey builds an NL80211_CMD_SET_KEY message that (re)selects keyIndex as
// the default unicast/multicast key, mirroring nl80211_build_set_key.
func SetKey(ifindex uint32, keyIndex uint8) genetlink.Message {
	data := encode(func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, ifindex)
		ae.Nested(unix.NL80211_ATTR_KEY, func(nae *netlink.AttributeEncoder) error {
			nae.Uint8(unix.NL80211_KEY_IDX, keyIndex)
			nae.Flag(unix.NL80211_KEY_DEFAULT, true)
			nae.Nested(unix.NL80211_KEY_DEFAULT_TYPES, func(dae *netlink.AttributeEncoder) error {
				dae.Flag(unix.NL80211_KEY_DEFAULT_TYPE_MULTICAST, true)
				return nil
			})
			return nil
		})
	})
	return genetlink.Message{
		Header: genetlink.Header{Command: unix.NL80211_CMD_SET_KEY},
		Data:   data,
	}
}

// GetInterface builds an NL80211_CMD_GET_INTERFACE request for ifindex, the
// query used to confirm an interface's current wiphy/channel/MAC state.
func GetInterface(ifindex uint32) genetlink.Message {
	data := encode(func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, ifindex)
	})
	return genetlink.Message{
		Header: genetlink.Header{Command: unix.NL80211_CMD_GET_INTERFACE},
		Data:   data,
	}
}

// GetKey builds an NL80211_CMD_GET_KEY request for keyIndex, mirroring
// nl80211_build_get_key.
func GetKey(ifindex uint32, keyIndex uint8) genetlink.Message {
	data := encode(func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, ifindex)
		ae.Uint8(unix.NL80211_ATTR_KEY_IDX, keyIndex)
	})
	return genetlink.Message{
		Header: genetlink.Header{Command: unix.NL80211_CMD_GET_KEY},
		Data:   data,
	}
}

// ParseGetKeySeq extracts the 6-byte key sequence counter from a GET_KEY
// reply's nested ATTR_KEY/KEY_SEQ attribute.
func ParseGetKeySeq(msg []byte) ([]byte, error) {
	const op = "nlattr.ParseGetKeySeq"
	var nested []netlink.Attribute
	if err := Parse(msg, Field{ID: unix.NL80211_ATTR_KEY, Kind: KindNested, Nested: &nested}); err != nil {
		return nil, err
	}
	for _, a := range nested {
		if a.Type == unix.NL80211_KEY_SEQ {
			if len(a.Data) != 6 {
				return nil, wsderr.New(wsderr.KindInvalidArgument, op, errBadLen)
			}
			return a.Data, nil
		}
	}
	return nil, wsderr.New(wsderr.KindNotFound, op, nil)
}

// CmdFrame builds an NL80211_CMD_FRAME message transmitting an outgoing
// management frame: a 24-byte 802.11 header (frame type, addr1=addr3=to,
// addr2=from) followed by the caller-supplied body, mirroring
// nl80211_build_cmd_frame.
func CmdFrame(ifindex uint32, frameType uint16, from, to net.HardwareAddr, freq uint32, body []byte) genetlink.Message {
	hdr := make([]byte, 24)
	binary.LittleEndian.PutUint16(hdr[0:2], frameType)
	copy(hdr[4:10], to)
	copy(hdr[10:16], from)
	copy(hdr[16:22], to)

	frame := make([]byte, 0, len(hdr)+len(body))
	frame = append(frame, hdr...)
	frame = append(frame, body...)

	data := encode(func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, ifindex)
		ae.Uint32(unix.NL80211_ATTR_WIPHY_FREQ, freq)
		ae.Bytes(unix.NL80211_ATTR_FRAME, frame)
	})
	return genetlink.Message{
		Header: genetlink.Header{Command: unix.NL80211_CMD_FRAME},
		Data:   data,
	}
}
