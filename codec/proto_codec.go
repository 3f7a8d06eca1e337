package codec

import (
	"fmt"

	"github.com/goccy/go-json"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoCodec carries values as a binary google.protobuf.Value.
//
// Values pass through their JSON form on the way in and out, so the same
// struct tags apply as with JSONCodec. google.protobuf.Value stores every
// number as a double: integers beyond 2^53 lose precision.
type ProtoCodec struct{}

func (c *ProtoCodec) Encode(v any) (OpaqueValue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	pv := &structpb.Value{}
	if err := protojson.Unmarshal(data, pv); err != nil {
		return nil, fmt.Errorf("proto codec: %w", err)
	}
	out, err := proto.Marshal(pv)
	if err != nil {
		return nil, fmt.Errorf("proto codec: %w", err)
	}
	return OpaqueValue(out), nil
}

func (c *ProtoCodec) Decode(data OpaqueValue, v any) error {
	pv := &structpb.Value{}
	if err := proto.Unmarshal(data, pv); err != nil {
		return fmt.Errorf("proto codec: %w", err)
	}
	// An empty message has no kind set; protojson refuses to render it.
	if pv.GetKind() == nil {
		return json.Unmarshal(null, v)
	}
	js, err := protojson.Marshal(pv)
	if err != nil {
		return fmt.Errorf("proto codec: %w", err)
	}
	return json.Unmarshal(js, v)
}

func (c *ProtoCodec) Type() CodecType {
	return CodecTypeProto
}
