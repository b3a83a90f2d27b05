package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID    int    `json:"id" msgpack:"id"`
	Name  string `json:"name" msgpack:"name"`
	Price int    `json:"price" msgpack:"price"`
}

func TestRegistry(t *testing.T) {
	t.Run("Register rejects nil codec", func(t *testing.T) {
		r := NewRegistry()
		assert.Error(t, r.Register(nil))
	})

	t.Run("Register rejects duplicate content type", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&JSONCodec{}))

		err := r.Register(&JSONCodec{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("Register accepts the same codec instance twice", func(t *testing.T) {
		r := NewRegistry()
		c := &JSONCodec{}

		require.NoError(t, r.Register(c))
		assert.NoError(t, r.Register(c))
	})

	t.Run("Lookup ignores parameters and case", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&JSONCodec{}))

		c, err := r.Lookup("Application/JSON; charset=utf-8")
		require.NoError(t, err)
		assert.Equal(t, ContentTypeJSON, c.ContentType())
	})

	t.Run("Lookup reports unknown content type", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.Lookup("application/yaml")
		assert.ErrorIs(t, err, ErrUnknownContentType)
	})

	t.Run("Alias maps another media type to a registered codec", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&MessagePackCodec{}))
		require.NoError(t, r.Alias("application/x-msgpack", ContentTypeMessagePack))

		c, err := r.Lookup("application/x-msgpack")
		require.NoError(t, err)
		assert.Equal(t, ContentTypeMessagePack, c.ContentType())
	})

	t.Run("Alias requires a registered target", func(t *testing.T) {
		r := NewRegistry()
		assert.ErrorIs(t, r.Alias("application/x-msgpack", ContentTypeMessagePack), ErrUnknownContentType)
	})

	t.Run("ContentTypes lists registrations sorted", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&TextCodec{}))
		require.NoError(t, r.Register(&JSONCodec{}))

		assert.Equal(t, []string{"application/json", "text/plain"}, r.ContentTypes())
	})
}

func TestDefaultRegistry(t *testing.T) {
	t.Run("built-in codecs are registered", func(t *testing.T) {
		for _, ct := range []string{
			ContentTypeJSON,
			ContentTypeMessagePack,
			"application/x-msgpack",
			ContentTypeText,
		} {
			c, err := Lookup(ct)
			assert.NoError(t, err, ct)
			assert.NotNil(t, c, ct)
		}
	})

	t.Run("Encode and Decode round-trip through the global registry", func(t *testing.T) {
		in := order{ID: 7, Name: "widget", Price: 1250}

		data, err := Encode(ContentTypeJSON, in)
		require.NoError(t, err)

		var out order
		require.NoError(t, Decode(ContentTypeJSON, data, &out))
		assert.Equal(t, in, out)
	})
}

func TestJSONCodec(t *testing.T) {
	t.Run("encodes compact by default", func(t *testing.T) {
		c := &JSONCodec{}

		data, err := c.Encode(order{ID: 1, Name: "a"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1,"name":"a","price":0}`, string(data))
		assert.NotContains(t, string(data), "\n")
	})

	t.Run("encodes indented when configured", func(t *testing.T) {
		c := &JSONCodec{Indent: true}

		data, err := c.Encode(order{ID: 1})
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n  ")
	})

	t.Run("rejects empty data on decode", func(t *testing.T) {
		c := &JSONCodec{}
		var out order

		assert.ErrorIs(t, c.Decode(nil, &out), ErrEmptyData)
	})

	t.Run("wraps malformed payload errors", func(t *testing.T) {
		c := &JSONCodec{}
		var out order

		err := c.Decode([]byte("{not json"), &out)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "codec: decode json")
	})
}

func TestMessagePackCodec(t *testing.T) {
	t.Run("round-trips a struct", func(t *testing.T) {
		c := &MessagePackCodec{}
		in := order{ID: 9, Name: "gadget", Price: 75}

		data, err := c.Encode(in)
		require.NoError(t, err)

		var out order
		require.NoError(t, c.Decode(data, &out))
		assert.Equal(t, in, out)
	})

	t.Run("rejects empty data on decode", func(t *testing.T) {
		c := &MessagePackCodec{}
		var out order

		assert.ErrorIs(t, c.Decode(nil, &out), ErrEmptyData)
	})
}

func TestTextCodec(t *testing.T) {
	t.Run("encodes strings and bytes", func(t *testing.T) {
		c := &TextCodec{}

		data, err := c.Encode("hello")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)

		data, err = c.Encode([]byte("raw"))
		require.NoError(t, err)
		assert.Equal(t, []byte("raw"), data)
	})

	t.Run("rejects unsupported encode types", func(t *testing.T) {
		c := &TextCodec{}

		_, err := c.Encode(42)
		assert.Error(t, err)
	})

	t.Run("decodes into string and byte pointers", func(t *testing.T) {
		c := &TextCodec{}

		var s string
		require.NoError(t, c.Decode([]byte("abc"), &s))
		assert.Equal(t, "abc", s)

		var b []byte
		require.NoError(t, c.Decode([]byte("xyz"), &b))
		assert.Equal(t, []byte("xyz"), b)
	})

	t.Run("rejects unsupported decode targets", func(t *testing.T) {
		c := &TextCodec{}
		var n int

		assert.Error(t, c.Decode([]byte("1"), &n))
	})
}
