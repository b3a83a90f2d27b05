package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ContentTypeMessagePack is the media type handled by the MessagePack codec
const ContentTypeMessagePack = "application/msgpack"

// MessagePackCodec encodes bodies as MessagePack for compact binary payloads
type MessagePackCodec struct{}

// ContentType implements Codec
func (c *MessagePackCodec) ContentType() string {
	return ContentTypeMessagePack
}

// Encode implements Codec
func (c *MessagePackCodec) Encode(v interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode msgpack: %w", err)
	}
	return data, nil
}

// Decode implements Codec
func (c *MessagePackCodec) Decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return ErrEmptyData
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: decode msgpack: %w", err)
	}
	return nil
}

func init() {
	globalRegistry.MustRegister(&MessagePackCodec{})
	// Some servers use the x- prefixed form
	if err := globalRegistry.Alias("application/x-msgpack", ContentTypeMessagePack); err != nil {
		panic(err)
	}
}
