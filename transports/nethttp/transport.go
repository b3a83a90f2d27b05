package nethttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/marrek/httpwire/wire"
)

const readChunkSize = 32 * 1024

// Transport is the terminal handler performing network I/O over net/http.
// Connection pooling, TLS and proxies belong to the underlying http.Client;
// this layer turns one dispatch into an event stream.
//
// Any delivered HTTP response is a dispatch success regardless of status;
// status policy belongs to interceptors and decode helpers. Transport-level
// errors terminate the stream with a Failure event.
type Transport struct {
	client      *http.Client
	maxBodySize int64
	userAgent   string
}

// TransportOption configures the transport
type TransportOption func(*Transport)

// WithHTTPClient sets the underlying http.Client
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTimeout sets the overall per-request timeout on the underlying client
func WithTimeout(timeout time.Duration) TransportOption {
	return func(t *Transport) {
		t.client.Timeout = timeout
	}
}

// WithMaxBodySize bounds response body buffering. Zero means no limit.
func WithMaxBodySize(limit int64) TransportOption {
	return func(t *Transport) {
		t.maxBodySize = limit
	}
}

// WithUserAgent sets the User-Agent sent when the request carries none
func WithUserAgent(ua string) TransportOption {
	return func(t *Transport) {
		t.userAgent = ua
	}
}

// NewTransport creates a transport over a dedicated http.Client
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handle implements the terminal Handler. The request runs on its own
// producer goroutine; every event send selects against ctx so an
// unsubscribed consumer stops production promptly.
func (t *Transport) Handle(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
	s := newSender(ctx)
	go t.produce(ctx, req, s)
	return s.ch, nil
}

func (t *Transport) produce(ctx context.Context, req *wire.Request, s *sender) {
	defer s.close()

	hreq, err := t.buildRequest(ctx, req, s)
	if err != nil {
		s.send(&wire.Failure{Err: err})
		return
	}

	s.send(&wire.Sent{})

	resp, err := t.client.Do(hreq)
	if err != nil {
		s.send(&wire.Failure{Err: fmt.Errorf("nethttp: %w", err)})
		return
	}
	defer resp.Body.Close()

	header := wire.HeaderFromHTTP(resp.Header)
	if !s.send(&wire.ResponseHeaders{Status: resp.StatusCode, Header: header}) {
		return
	}

	body, ok := t.readBody(req, resp, s)
	if !ok {
		return
	}

	s.send(&wire.Response{
		Status: resp.StatusCode,
		Header: header,
		Body:   body,
		URL:    resp.Request.URL.String(),
	})
}

func (t *Transport) buildRequest(ctx context.Context, req *wire.Request, s *sender) (*http.Request, error) {
	u := req.URL()
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: transport needs an absolute url, got %q", wire.ErrInvalidRequest, u.String())
	}

	var body io.Reader
	if b := req.Body(); b != nil {
		if req.ReportProgress() {
			body = &progressReader{
				r:     bytes.NewReader(b),
				total: int64(len(b)),
				s:     s,
			}
		} else {
			body = bytes.NewReader(b)
		}
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method(), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("nethttp: build request: %w", err)
	}
	if b := req.Body(); b != nil {
		hreq.ContentLength = int64(len(b))
	}

	req.Header().CopyTo(hreq.Header)
	if t.userAgent != "" && !req.Header().Has("User-Agent") {
		hreq.Header.Set("User-Agent", t.userAgent)
	}
	return hreq, nil
}

// readBody buffers the response body in chunks, emitting download progress
// when the request opted in. Returns ok=false when the stream already
// terminated (oversize, read error, caller gone).
func (t *Transport) readBody(req *wire.Request, resp *http.Response, s *sender) ([]byte, bool) {
	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	var received int64

	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			received += int64(n)
			if t.maxBodySize > 0 && received > t.maxBodySize {
				s.send(&wire.Failure{Err: fmt.Errorf("%w: limit %d bytes", wire.ErrBodyTooLarge, t.maxBodySize)})
				return nil, false
			}
			buf.Write(chunk[:n])
			if req.ReportProgress() {
				if !s.send(&wire.DownloadProgress{Loaded: received, Total: resp.ContentLength}) {
					return nil, false
				}
			}
		}
		if err == io.EOF {
			return buf.Bytes(), true
		}
		if err != nil {
			s.send(&wire.Failure{Err: fmt.Errorf("nethttp: read body: %w", err)})
			return nil, false
		}
	}
}

// sender serializes event sends onto one stream. net/http may write the
// request body from its own goroutine, so upload progress events can race
// the producer; the mutex makes close-after-last-send safe.
type sender struct {
	ctx context.Context
	ch  chan wire.Event

	mu     sync.Mutex
	closed bool
}

func newSender(ctx context.Context) *sender {
	return &sender{ctx: ctx, ch: make(chan wire.Event)}
}

// send delivers ev unless the stream is closed or the consumer went away
func (s *sender) send(ev wire.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *sender) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// progressReader reports upload progress as the request body is consumed
type progressReader struct {
	r      *bytes.Reader
	total  int64
	loaded int64
	s      *sender
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.s.send(&wire.UploadProgress{Loaded: p.loaded, Total: p.total})
	}
	return n, err
}
