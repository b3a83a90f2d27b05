package codec

import (
	"errors"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownContentType = errors.New("codec: unknown content type")
	ErrEmptyData          = errors.New("codec: data cannot be empty")
)

// Codec encodes and decodes request and response bodies for one media type
type Codec interface {
	// ContentType returns the media type the codec handles
	ContentType() string

	// Encode serializes v to bytes
	Encode(v interface{}) ([]byte, error)

	// Decode deserializes data into v
	Decode(data []byte, v interface{}) error
}

// Registry maps media types to codecs. Lookup strips media type parameters
// and ignores case, so "application/json; charset=utf-8" finds the JSON codec.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry creates an empty codec registry
func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Codec),
	}
}

// normalizeContentType reduces a content type header value to its media type
func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Register adds a codec under its content type
func (r *Registry) Register(c Codec) error {
	if c == nil {
		return fmt.Errorf("codec: codec cannot be nil")
	}
	key := normalizeContentType(c.ContentType())
	if key == "" {
		return fmt.Errorf("codec: content type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.codecs[key]; exists && existing != c {
		return fmt.Errorf("codec: content type %s already registered", key)
	}
	r.codecs[key] = c
	return nil
}

// MustRegister adds a codec and panics on conflict. Intended for init-time
// registration of the built-in codecs.
func (r *Registry) MustRegister(c Codec) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Alias maps an additional media type to an already registered codec
func (r *Registry) Alias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.codecs[normalizeContentType(target)]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownContentType, target)
	}
	key := normalizeContentType(alias)
	if key == "" {
		return fmt.Errorf("codec: alias cannot be empty")
	}
	r.codecs[key] = c
	return nil
}

// Lookup returns the codec for a content type
func (r *Registry) Lookup(contentType string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.codecs[normalizeContentType(contentType)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, contentType)
	}
	return c, nil
}

// ContentTypes returns the registered media types in sorted order
func (r *Registry) ContentTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.codecs))
	for key := range r.codecs {
		types = append(types, key)
	}
	sort.Strings(types)
	return types
}

// Encode serializes v using the codec registered for contentType
func (r *Registry) Encode(contentType string, v interface{}) ([]byte, error) {
	c, err := r.Lookup(contentType)
	if err != nil {
		return nil, err
	}
	return c.Encode(v)
}

// Decode deserializes data into v using the codec registered for contentType
func (r *Registry) Decode(contentType string, data []byte, v interface{}) error {
	c, err := r.Lookup(contentType)
	if err != nil {
		return err
	}
	return c.Decode(data, v)
}

// Global registry instance holding the built-in codecs
var globalRegistry = NewRegistry()

// Default returns the global codec registry
func Default() *Registry {
	return globalRegistry
}

// Register adds a codec to the global registry
func Register(c Codec) error {
	return globalRegistry.Register(c)
}

// Lookup returns a codec from the global registry
func Lookup(contentType string) (Codec, error) {
	return globalRegistry.Lookup(contentType)
}

// Encode serializes v using the global registry
func Encode(contentType string, v interface{}) ([]byte, error) {
	return globalRegistry.Encode(contentType, v)
}

// Decode deserializes data into v using the global registry
func Decode(contentType string, data []byte, v interface{}) error {
	return globalRegistry.Decode(contentType, data, v)
}
