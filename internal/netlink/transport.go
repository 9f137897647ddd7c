// Package netlink opens the real nl80211 generic-netlink family and sends
// the messages internal/nlattr builds, translating transport-level
// failures into the same *wsderr.Error taxonomy the attribute codec uses.
package netlink

import (
	"net"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"

	"github.com/gowsd/gowsd/internal/nlattr"
	"github.com/gowsd/gowsd/internal/wsderr"
)

// Conn wraps a genetlink.Conn resolved to the nl80211 family id, the
// handle every FT/DPP/rate-estimation operation sends its built messages
// through.
type Conn struct {
	conn   *genetlink.Conn
	family genetlink.Family
}

// Dial opens a generic-netlink socket and resolves the "nl80211" family.
func Dial() (*Conn, error) {
	const op = "netlink.Dial"
	conn, err := genetlink.Dial(nil)
	if err != nil {
		return nil, wsderr.New(wsderr.KindUnsupported, op, err)
	}

	family, err := conn.GetFamily("nl80211")
	if err != nil {
		conn.Close()
		return nil, wsderr.New(wsderr.KindNotFound, op, err)
	}

	return &Conn{conn: conn, family: family}, nil
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Execute sends msg as a request to the nl80211 family and returns the
// concatenated attribute-stream bodies of every reply message, using
// Acknowledge semantics for commands that expect a bare ack rather than a
// data reply.
func (c *Conn) Execute(msg genetlink.Message, flags netlink.HeaderFlags) ([]byte, error) {
	const op = "netlink.Conn.Execute"
	msg.Header.Version = c.family.Version

	replies, err := c.conn.Execute(msg, c.family.ID, flags)
	if err != nil {
		return nil, wsderr.New(wsderr.KindBadMessage, op, err)
	}

	var out []byte
	for _, r := range replies {
		out = append(out, r.Data...)
	}
	return out, nil
}

// ExecuteAndDecode sends msg and decodes the reply's attribute stream
// against fields via nlattr.Parse, the path every FT/DPP/rate-estimation
// caller uses to turn a kernel reply into typed Go values in one step.
func (c *Conn) ExecuteAndDecode(msg genetlink.Message, flags netlink.HeaderFlags, fields ...nlattr.Field) error {
	data, err := c.Execute(msg, flags)
	if err != nil {
		return err
	}
	return nlattr.Parse(data, fields...)
}

// DefaultRequestFlags are the header flags a request expecting a single
// data reply uses (Request | Acknowledge).
func DefaultRequestFlags() netlink.HeaderFlags {
	return netlink.Request | netlink.Acknowledge
}

// DumpRequestFlags are the header flags a multi-message dump request uses.
func DumpRequestFlags() netlink.HeaderFlags {
	return netlink.Request | netlink.Dump
}

// FrameSender adapts Conn to the FT core's transmitter contract: each
// TxFrame becomes an outgoing-frame command carrying a 24-byte 802.11
// header built from the interface's own address and dest.
type FrameSender struct {
	conn *Conn
	// addr resolves an ifindex to the interface's own MAC, the frame's
	// transmitter address.
	addr func(ifindex int) net.HardwareAddr
}

// NewFrameSender wraps conn; addr supplies each interface's own MAC.
func NewFrameSender(conn *Conn, addr func(ifindex int) net.HardwareAddr) *FrameSender {
	return &FrameSender{conn: conn, addr: addr}
}

// TxFrame sends body as a management frame of frameType toward dest on
// freq.
func (s *FrameSender) TxFrame(ifindex int, frameType uint16, freq uint32, dest net.HardwareAddr, body []byte) error {
	const op = "netlink.FrameSender.TxFrame"
	from := s.addr(ifindex)
	if len(from) != 6 {
		return wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	msg := nlattr.CmdFrame(uint32(ifindex), frameType, from, dest, freq, body)
	_, err := s.conn.Execute(msg, DefaultRequestFlags())
	return err
}
