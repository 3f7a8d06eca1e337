package codec

// jsonMarshaler matches errors that know how to encode themselves.
type jsonMarshaler interface {
	MarshalJSON() ([]byte, error)
}

// EncodeError is the error-encoding capability used for ServerError details.
// An error implementing json.Marshaler is encoded as itself; any other error
// is encoded as its Error() text. If encoding the error value fails the text
// is used instead, so the result is never empty for a non-nil error.
func EncodeError(c Codec, err error) OpaqueValue {
	if err == nil {
		return MustEncode(c, nil)
	}
	if _, ok := err.(jsonMarshaler); ok {
		if data, encErr := c.Encode(err); encErr == nil {
			return data
		}
	}
	data, encErr := c.Encode(err.Error())
	if encErr != nil {
		return nil
	}
	return data
}
