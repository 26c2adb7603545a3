package api

import (
	"connectrpc.com/connect"
	"github.com/goccy/go-json"
)

// Codec encodes messages as JSON under the "json" name, replacing Connect's
// protobuf JSON codec, so the plain structs of this package can travel over
// the Connect protocol.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// WithJSON configures a Connect client or handler to use Codec.
func WithJSON() connect.Option {
	return connect.WithCodec(Codec{})
}
