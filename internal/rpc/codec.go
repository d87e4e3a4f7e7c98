// Package rpc describes the annotation store service spoken between the field
// client and the server. Messages are plain Go structs carried as JSON over
// gRPC; the service descriptor and client stub are written by hand.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype both sides negotiate.
const CodecName = "json"

// Codec marshals messages with encoding/json.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (Codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(Codec{})
}
