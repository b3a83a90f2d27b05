package codec

import (
	"encoding/json"
	"fmt"
)

// ContentTypeJSON is the media type handled by the JSON codec
const ContentTypeJSON = "application/json"

// JSONCodec encodes bodies as JSON
type JSONCodec struct {
	// Indent enables two-space indented output
	Indent bool
}

// ContentType implements Codec
func (c *JSONCodec) ContentType() string {
	return ContentTypeJSON
}

// Encode implements Codec
func (c *JSONCodec) Encode(v interface{}) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if c.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("codec: encode json: %w", err)
	}
	return data, nil
}

// Decode implements Codec
func (c *JSONCodec) Decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return ErrEmptyData
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: decode json: %w", err)
	}
	return nil
}

func init() {
	globalRegistry.MustRegister(&JSONCodec{})
}
