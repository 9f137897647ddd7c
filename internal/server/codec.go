package server

import "encoding/json"

// jsonCodec is a connect.Codec implementation for the station control
// surface's plain Go request/response structs. The teacher's BFD service
// used buf-generated protobuf messages and the default protobuf/JSON
// codecs that ship with connect-go; this tree has no protoc/buf toolchain
// available to regenerate an equivalent stub set for the station/FT/DPP
// service, so the wire format here is encoding/json directly over the
// Go structs instead of protobuf.
type jsonCodec struct{}

// Name identifies the codec in the Content-Type header connect-go
// negotiates against ("application/json" for unary RPCs under this codec
// name).
func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
