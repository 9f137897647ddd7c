package server

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net"
	"strconv"

	"connectrpc.com/connect"
	mdlnetlink "github.com/mdlayher/netlink"

	gwnetlink "github.com/gowsd/gowsd/internal/netlink"
	"github.com/gowsd/gowsd/internal/nlattr"
	"github.com/gowsd/gowsd/internal/wsderr"
)

// decodedValue holds the one concrete field a nlattr.Field decoded into,
// tagged with the Kind that selects which one is live.
type decodedValue struct {
	kind nlattr.Kind

	u32     uint32
	u64     uint64
	u8      uint8
	str     string
	country [2]byte
	mac     net.HardwareAddr
	flag    bool
	iovec   []byte
	nested  []mdlnetlink.Attribute
}

// newDecodedField builds a nlattr.Field for id/kind and a decodedValue whose
// address is wired into whichever of Field's typed pointers kind selects.
func newDecodedField(id uint16, kind nlattr.Kind) (nlattr.Field, *decodedValue) {
	v := &decodedValue{kind: kind}
	f := nlattr.Field{ID: id, Kind: kind}
	switch kind {
	case nlattr.KindIfindex, nlattr.KindU32:
		f.U32 = &v.u32
	case nlattr.KindU64:
		f.U64 = &v.u64
	case nlattr.KindU8:
		f.U8 = &v.u8
	case nlattr.KindName:
		f.Str = &v.str
	case nlattr.KindCountry2:
		f.Country = &v.country
	case nlattr.KindMAC:
		f.MAC = &v.mac
	case nlattr.KindFlag:
		f.Flag = &v.flag
	case nlattr.KindIOVec:
		f.IOVec = &v.iovec
	case nlattr.KindNested:
		f.Nested = &v.nested
	}
	return f, v
}

func (v *decodedValue) String() string {
	switch v.kind {
	case nlattr.KindIfindex, nlattr.KindU32:
		return strconv.FormatUint(uint64(v.u32), 10)
	case nlattr.KindU64:
		return strconv.FormatUint(v.u64, 10)
	case nlattr.KindU8:
		return strconv.FormatUint(uint64(v.u8), 10)
	case nlattr.KindName:
		return v.str
	case nlattr.KindCountry2:
		return string(v.country[:])
	case nlattr.KindMAC:
		return v.mac.String()
	case nlattr.KindFlag:
		return strconv.FormatBool(v.flag)
	case nlattr.KindIOVec:
		return hex.EncodeToString(v.iovec)
	case nlattr.KindNested:
		return strconv.Itoa(len(v.nested)) + " nested attributes"
	default:
		return ""
	}
}

func kindName(k nlattr.Kind) string {
	switch k {
	case nlattr.KindIfindex:
		return "ifindex"
	case nlattr.KindU32:
		return "u32"
	case nlattr.KindU64:
		return "u64"
	case nlattr.KindU8:
		return "u8"
	case nlattr.KindName:
		return "name"
	case nlattr.KindCountry2:
		return "country2"
	case nlattr.KindMAC:
		return "mac"
	case nlattr.KindFlag:
		return "flag"
	case nlattr.KindIOVec:
		return "iovec"
	case nlattr.KindNested:
		return "nested"
	default:
		return "unknown"
	}
}

// DecodeNetlinkAttrs decodes a raw nl80211 attribute stream against the
// process-wide schema for diagnostics, or -- when no raw bytes are supplied
// and an interface index is -- fetches one live via a GET_INTERFACE query
// over the daemon's own netlink socket first.
func (s *StationServer) DecodeNetlinkAttrs(ctx context.Context, req *connect.Request[DecodeNetlinkAttrsRequest]) (*connect.Response[DecodeNetlinkAttrsResponse], error) {
	const op = "server.DecodeNetlinkAttrs"
	s.logger.InfoContext(ctx, "DecodeNetlinkAttrs called", slog.Int("count", len(req.Msg.AttributeIDs)))

	raw := req.Msg.RawAttrs
	if len(raw) == 0 && req.Msg.Ifindex != 0 {
		if s.netConn == nil {
			return nil, wsderr.New(wsderr.KindUnsupported, op, nil)
		}
		msg := nlattr.GetInterface(req.Msg.Ifindex)
		data, err := s.netConn.Execute(msg, gwnetlink.DefaultRequestFlags())
		if s.collector != nil {
			if err != nil {
				s.collector.NetlinkErrorsTotal.WithLabelValues("get_interface").Inc()
			} else {
				s.collector.NetlinkRequestsTotal.WithLabelValues("get_interface").Inc()
			}
		}
		if err != nil {
			return nil, err
		}
		raw = data
	}

	fields := make([]nlattr.Field, len(req.Msg.AttributeIDs))
	values := make([]*decodedValue, len(req.Msg.AttributeIDs))
	for i, id := range req.Msg.AttributeIDs {
		kind, ok := nlattr.NL80211AttrKind[id]
		if !ok {
			return nil, wsderr.New(wsderr.KindUnsupported, op, nil)
		}
		fields[i], values[i] = newDecodedField(id, kind)
	}

	if err := nlattr.Parse(raw, fields...); err != nil {
		if s.collector != nil {
			s.collector.NetlinkErrorsTotal.WithLabelValues("decode").Inc()
		}
		return nil, err
	}
	if s.collector != nil {
		s.collector.NetlinkRequestsTotal.WithLabelValues("decode").Inc()
	}

	attrs := make([]DecodedAttr, len(fields))
	for i := range fields {
		attrs[i] = DecodedAttr{ID: fields[i].ID, Kind: kindName(fields[i].Kind), Value: values[i].String()}
	}
	return connect.NewResponse(&DecodeNetlinkAttrsResponse{Attrs: attrs}), nil
}
