package wire

import (
	"net/http"
	"sort"
	"strings"
)

// Header is an ordered, case-insensitive multimap of HTTP header fields.
// Lookup ignores case; iteration follows insertion order of field names; the
// casing of the first write of a name is preserved. The zero value is ready
// to use.
type Header struct {
	entries []headerEntry
	index   map[string]int
}

type headerEntry struct {
	name   string
	values []string
}

// NewHeader returns an empty Header
func NewHeader() *Header {
	return &Header{}
}

// HeaderFromHTTP converts a net/http header map into a Header.
// Names are added in sorted order since the map carries no ordering.
func HeaderFromHTTP(h http.Header) *Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	out := NewHeader()
	for _, name := range names {
		for _, v := range h[name] {
			out.Add(name, v)
		}
	}
	return out
}

func (h *Header) lookup(name string) (int, bool) {
	if h.index == nil {
		return 0, false
	}
	i, ok := h.index[strings.ToLower(name)]
	return i, ok
}

// Get returns the first value for name, or "" when absent
func (h *Header) Get(name string) string {
	if h == nil {
		return ""
	}
	if i, ok := h.lookup(name); ok && len(h.entries[i].values) > 0 {
		return h.entries[i].values[0]
	}
	return ""
}

// Values returns a copy of all values for name in the order they were added
func (h *Header) Values(name string) []string {
	if h == nil {
		return nil
	}
	i, ok := h.lookup(name)
	if !ok {
		return nil
	}
	out := make([]string, len(h.entries[i].values))
	copy(out, h.entries[i].values)
	return out
}

// Has reports whether name is present
func (h *Header) Has(name string) bool {
	if h == nil {
		return false
	}
	_, ok := h.lookup(name)
	return ok
}

// Set replaces all values for name with value, keeping the name's position
// when it already exists and appending it otherwise
func (h *Header) Set(name, value string) {
	if i, ok := h.lookup(name); ok {
		h.entries[i].values = []string{value}
		return
	}
	h.append(name, value)
}

// Add appends value to the values for name, creating the name when absent
func (h *Header) Add(name, value string) {
	if i, ok := h.lookup(name); ok {
		h.entries[i].values = append(h.entries[i].values, value)
		return
	}
	h.append(name, value)
}

func (h *Header) append(name, value string) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	h.index[strings.ToLower(name)] = len(h.entries)
	h.entries = append(h.entries, headerEntry{name: name, values: []string{value}})
}

// Del removes name and all its values
func (h *Header) Del(name string) {
	i, ok := h.lookup(name)
	if !ok {
		return
	}
	h.entries = append(h.entries[:i], h.entries[i+1:]...)
	delete(h.index, strings.ToLower(name))
	for key, j := range h.index {
		if j > i {
			h.index[key] = j - 1
		}
	}
}

// Names returns the field names in insertion order, with original casing
func (h *Header) Names() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.name
	}
	return out
}

// Len returns the number of distinct field names
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Clone returns a deep copy of the header
func (h *Header) Clone() *Header {
	if h == nil {
		return NewHeader()
	}
	out := &Header{
		entries: make([]headerEntry, len(h.entries)),
		index:   make(map[string]int, len(h.index)),
	}
	for i, e := range h.entries {
		values := make([]string, len(e.values))
		copy(values, e.values)
		out.entries[i] = headerEntry{name: e.name, values: values}
	}
	for k, v := range h.index {
		out.index[k] = v
	}
	return out
}

// CopyTo adds every field to dst in insertion order
func (h *Header) CopyTo(dst http.Header) {
	if h == nil {
		return
	}
	for _, e := range h.entries {
		for _, v := range e.values {
			dst.Add(e.name, v)
		}
	}
}
