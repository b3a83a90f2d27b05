package codec

import (
	"fmt"
)

// ContentTypeText is the media type handled by the text codec
const ContentTypeText = "text/plain"

// TextCodec passes string and byte bodies through unmodified
type TextCodec struct{}

// ContentType implements Codec
func (c *TextCodec) ContentType() string {
	return ContentTypeText
}

// Encode implements Codec
func (c *TextCodec) Encode(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case fmt.Stringer:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("codec: cannot encode %T as text", v)
	}
}

// Decode implements Codec
func (c *TextCodec) Decode(data []byte, v interface{}) error {
	switch t := v.(type) {
	case *string:
		*t = string(data)
		return nil
	case *[]byte:
		*t = append((*t)[:0], data...)
		return nil
	default:
		return fmt.Errorf("codec: cannot decode text into %T", v)
	}
}

func init() {
	globalRegistry.MustRegister(&TextCodec{})
}
