// Package codec converts Go values to and from OpaqueValue, the
// transport-agnostic encoding used for every argument and result that
// crosses a dispatch table.
//
// Two codecs are provided:
//   - JSONCodec:  OpaqueValue holds JSON text. The default.
//   - ProtoCodec: OpaqueValue holds a serialized google.protobuf.Value, for
//     hosts whose transport already speaks protobuf.
package codec

type CodecType byte

const (
	CodecTypeJSON  CodecType = 0
	CodecTypeProto CodecType = 1
)

func (t CodecType) String() string {
	switch t {
	case CodecTypeJSON:
		return "json"
	case CodecTypeProto:
		return "proto"
	default:
		return "unknown"
	}
}

// OpaqueValue is one encoded argument or result. Its bytes are only
// meaningful to the Codec that produced them.
type OpaqueValue []byte

func (v OpaqueValue) String() string {
	return string(v)
}

// Codec is the encode/decode capability the dispatcher treats as a black box.
// Implementations must be safe for concurrent use.
type Codec interface {
	Encode(v any) (OpaqueValue, error)
	Decode(data OpaqueValue, v any) error
	Type() CodecType
}

// GetCodec returns the codec for codecType, falling back to JSON.
func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeProto {
		return &ProtoCodec{}
	}

	return &JSONCodec{}
}

// MustEncode encodes v with c and panics on failure. Meant for tests and
// constant arguments.
func MustEncode(c Codec, v any) OpaqueValue {
	data, err := c.Encode(v)
	if err != nil {
		panic("codec: " + err.Error())
	}
	return data
}
