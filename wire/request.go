package wire

import (
	"fmt"
	"net/url"
	"strings"
)

// ResponseType declares how the caller intends to interpret a response body
type ResponseType int

const (
	// ResponseJSON expects a body decodable through the codec registry
	ResponseJSON ResponseType = iota
	// ResponseText expects a plain text body
	ResponseText
	// ResponseBytes expects an opaque byte body
	ResponseBytes
)

// String returns a human-readable response type name
func (t ResponseType) String() string {
	switch t {
	case ResponseJSON:
		return "json"
	case ResponseText:
		return "text"
	case ResponseBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Request is an immutable description of an HTTP call. Values are constructed
// with NewRequest and derived with Clone or the With methods; holders must
// not modify a Request they did not derive themselves.
type Request struct {
	method         string
	url            *url.URL
	header         *Header
	body           []byte
	reportProgress bool
	responseType   ResponseType
}

// RequestOption configures a Request at construction time
type RequestOption func(*Request)

// WithHeader sets a header field, replacing existing values
func WithHeader(name, value string) RequestOption {
	return func(r *Request) {
		r.header.Set(name, value)
	}
}

// WithAddedHeader appends a header value without replacing existing ones
func WithAddedHeader(name, value string) RequestOption {
	return func(r *Request) {
		r.header.Add(name, value)
	}
}

// WithBody sets the request body and its content type.
// Bodies are buffered so that retrying interceptors can replay them.
func WithBody(body []byte, contentType string) RequestOption {
	return func(r *Request) {
		r.body = body
		if contentType != "" {
			r.header.Set("Content-Type", contentType)
		}
	}
}

// WithQuery adds a query parameter to the request URL
func WithQuery(key, value string) RequestOption {
	return func(r *Request) {
		q := r.url.Query()
		q.Add(key, value)
		r.url.RawQuery = q.Encode()
	}
}

// WithReportProgress enables upload and download progress events
func WithReportProgress() RequestOption {
	return func(r *Request) {
		r.reportProgress = true
	}
}

// WithResponseType declares the expected response body interpretation
func WithResponseType(t ResponseType) RequestOption {
	return func(r *Request) {
		r.responseType = t
	}
}

// NewRequest builds a Request for the given method and URL
func NewRequest(method, rawURL string, opts ...RequestOption) (*Request, error) {
	if method == "" {
		return nil, fmt.Errorf("%w: empty method", ErrInvalidRequest)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %v", ErrInvalidRequest, err)
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRequest, u.Scheme)
	}

	r := &Request{
		method: strings.ToUpper(method),
		url:    u,
		header: NewHeader(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Method returns the uppercase HTTP method
func (r *Request) Method() string {
	return r.method
}

// URL returns a copy of the request URL
func (r *Request) URL() *url.URL {
	u := *r.url
	return &u
}

// URLString returns the request URL in string form
func (r *Request) URLString() string {
	return r.url.String()
}

// Header returns the request headers. The returned value is shared with the
// request and must be treated as read-only; derive with WithHeader instead.
func (r *Request) Header() *Header {
	return r.header
}

// Body returns the buffered request body, nil when there is none.
// The returned slice is shared and must not be modified.
func (r *Request) Body() []byte {
	return r.body
}

// ContentType returns the Content-Type header value
func (r *Request) ContentType() string {
	return r.header.Get("Content-Type")
}

// ReportProgress reports whether progress events were requested
func (r *Request) ReportProgress() bool {
	return r.reportProgress
}

// ResponseType returns the expected response body interpretation
func (r *Request) ResponseType() ResponseType {
	return r.responseType
}

// Clone returns a copy whose headers and URL are independent of the original.
// The body is shared since bodies are never modified after construction.
func (r *Request) Clone() *Request {
	u := *r.url
	return &Request{
		method:         r.method,
		url:            &u,
		header:         r.header.Clone(),
		body:           r.body,
		reportProgress: r.reportProgress,
		responseType:   r.responseType,
	}
}

// WithHeader returns a copy with the header field set, replacing existing values
func (r *Request) WithHeader(name, value string) *Request {
	out := r.Clone()
	out.header.Set(name, value)
	return out
}

// WithAddedHeader returns a copy with value appended to the header field
func (r *Request) WithAddedHeader(name, value string) *Request {
	out := r.Clone()
	out.header.Add(name, value)
	return out
}

// WithoutHeader returns a copy with the header field removed
func (r *Request) WithoutHeader(name string) *Request {
	out := r.Clone()
	out.header.Del(name)
	return out
}

// WithBody returns a copy carrying the given body and content type
func (r *Request) WithBody(body []byte, contentType string) *Request {
	out := r.Clone()
	out.body = body
	if contentType != "" {
		out.header.Set("Content-Type", contentType)
	}
	return out
}

// WithURL returns a copy addressed to u
func (r *Request) WithURL(u *url.URL) *Request {
	out := r.Clone()
	copied := *u
	out.url = &copied
	return out
}
