package codec

import (
	"github.com/goccy/go-json"
)

var null = OpaqueValue("null")

// JSONCodec encodes values as JSON text using goccy/go-json, a drop-in
// replacement for encoding/json with the same struct tag rules.
// An empty OpaqueValue decodes as JSON null.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) (OpaqueValue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return OpaqueValue(data), nil
}

func (c *JSONCodec) Decode(data OpaqueValue, v any) error {
	if len(data) == 0 {
		data = null
	}
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}
