package nlattr

import (
	"errors"
	"net"
	"testing"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/gowsd/gowsd/internal/wsderr"
)

func encodeAttrs(t *testing.T, fn func(ae *netlink.AttributeEncoder)) []byte {
	t.Helper()
	return encode(fn)
}

func TestParseIfindex(t *testing.T) {
	msg := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, 3)
	})

	var ifindex uint32
	err := Parse(msg, Field{ID: unix.NL80211_ATTR_IFINDEX, Kind: KindIfindex, U32: &ifindex})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ifindex != 3 {
		t.Fatalf("ifindex = %d, want 3", ifindex)
	}
}

func TestParseRejectsIDNotInSchema(t *testing.T) {
	msg := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(9999, 3)
	})

	var v uint32
	err := Parse(msg, Field{ID: 9999, Kind: KindU32, U32: &v})
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindUnsupported {
		t.Fatalf("err = %v, want KindUnsupported for an id absent from the schema", err)
	}
}

func TestParseRejectsKindMismatchAgainstSchema(t *testing.T) {
	msg := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, 3)
	})

	var mac net.HardwareAddr
	// NL80211_ATTR_IFINDEX is schema'd as KindIfindex, not KindMAC.
	err := Parse(msg, Field{ID: unix.NL80211_ATTR_IFINDEX, Kind: KindMAC, MAC: &mac})
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindUnsupported {
		t.Fatalf("err = %v, want KindUnsupported for a Kind mismatched against the schema", err)
	}
}

func TestParseIfindexZeroRejected(t *testing.T) {
	msg := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, 0)
	})

	var ifindex uint32
	err := Parse(msg, Field{ID: unix.NL80211_ATTR_IFINDEX, Kind: KindIfindex, U32: &ifindex})
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindInvalidArgument {
		t.Fatalf("err = %v, want KindInvalidArgument", err)
	}
}

func TestParseNotFound(t *testing.T) {
	msg := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_WIPHY, 1)
	})

	var ifindex uint32
	err := Parse(msg, Field{ID: unix.NL80211_ATTR_IFINDEX, Kind: KindIfindex, U32: &ifindex})
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindNotFound {
		t.Fatalf("err = %v, want KindNotFound", err)
	}
}

func TestParseAlreadyPresent(t *testing.T) {
	msg := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, 3)
		ae.Uint32(unix.NL80211_ATTR_IFINDEX, 4)
	})

	var ifindex uint32
	err := Parse(msg, Field{ID: unix.NL80211_ATTR_IFINDEX, Kind: KindIfindex, U32: &ifindex})
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindAlreadyPresent {
		t.Fatalf("err = %v, want KindAlreadyPresent", err)
	}
}

func TestParseFlagDefaultsFalse(t *testing.T) {
	msg := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Uint32(unix.NL80211_ATTR_WIPHY, 1)
	})

	var ack bool
	err := Parse(msg, Field{ID: unix.NL80211_ATTR_ACK, Kind: KindFlag, Flag: &ack})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack {
		t.Fatal("ack should default to false when absent")
	}
}

func TestParseMAC(t *testing.T) {
	want := net.HardwareAddr{0x52, 0x54, 0x00, 0x58, 0x28, 0xe5}
	msg := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Bytes(unix.NL80211_ATTR_MAC, want)
	})

	var mac net.HardwareAddr
	err := Parse(msg, Field{ID: unix.NL80211_ATTR_MAC, Kind: KindMAC, MAC: &mac})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mac.String() != want.String() {
		t.Fatalf("mac = %s, want %s", mac, want)
	}
}

func TestSetStationAuthorizedBuildsCommand(t *testing.T) {
	msg := SetStationAuthorized(3, net.HardwareAddr{1, 2, 3, 4, 5, 6})
	if msg.Header.Command != unix.NL80211_CMD_SET_STATION {
		t.Fatalf("command = %d, want SET_STATION", msg.Header.Command)
	}

	var ifindex uint32
	var mac net.HardwareAddr
	err := Parse(msg.Data,
		Field{ID: unix.NL80211_ATTR_IFINDEX, Kind: KindIfindex, U32: &ifindex},
		Field{ID: unix.NL80211_ATTR_MAC, Kind: KindMAC, MAC: &mac},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ifindex != 3 {
		t.Fatalf("ifindex = %d, want 3", ifindex)
	}
}

func TestGetInterfaceBuildsCommand(t *testing.T) {
	msg := GetInterface(3)
	if msg.Header.Command != unix.NL80211_CMD_GET_INTERFACE {
		t.Fatalf("command = %d, want GET_INTERFACE", msg.Header.Command)
	}

	var ifindex uint32
	err := Parse(msg.Data, Field{ID: unix.NL80211_ATTR_IFINDEX, Kind: KindIfindex, U32: &ifindex})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ifindex != 3 {
		t.Fatalf("ifindex = %d, want 3", ifindex)
	}
}

func TestCmdFrameHeaderLayout(t *testing.T) {
	from := net.HardwareAddr{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}
	to := net.HardwareAddr{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}

	msg := CmdFrame(3, 0x00b0, from, to, 2412, []byte{0xde, 0xad})

	var iov []byte
	err := Parse(msg.Data, Field{ID: unix.NL80211_ATTR_FRAME, Kind: KindIOVec, IOVec: &iov})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(iov) != 24+2 {
		t.Fatalf("frame len = %d, want 26", len(iov))
	}
	if iov[0] != 0xb0 || iov[1] != 0x00 {
		t.Fatalf("frame type bytes = %x %x, want b0 00", iov[0], iov[1])
	}
	for i := 0; i < 6; i++ {
		if iov[4+i] != to[i] {
			t.Fatalf("addr1 mismatch at byte %d", i)
		}
		if iov[10+i] != from[i] {
			t.Fatalf("addr2 mismatch at byte %d", i)
		}
		if iov[16+i] != to[i] {
			t.Fatalf("addr3 mismatch at byte %d", i)
		}
	}
	if iov[24] != 0xde || iov[25] != 0xad {
		t.Fatalf("body mismatch")
	}
}
