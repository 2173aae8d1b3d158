package appointlyv1

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Codec speaks the protobuf wire format for the messages of this package and
// falls back to the protobuf runtime for generated messages such as the
// health service. Install it with grpc.ForceServerCodec / grpc.ForceCodec.
type Codec struct{}

func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return marshal(m)
	case proto.Message:
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("appointlyv1: cannot marshal %T", v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case wireMessage:
		return m.unmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("appointlyv1: cannot unmarshal into %T", v)
}
