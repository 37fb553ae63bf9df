// Package rpc defines the wire contract between the Codifyr CLI and the
// identity server: the gRPC service descriptor, its request and response
// messages, and the error details attached to failed calls.
//
// Messages are plain Go structs carried by a JSON codec registered with
// grpc-go, so both sides share one set of types without generated code.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype used by every call
// ("application/grpc+json").
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
