// Copyright 2024 Httpwire Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpwire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/marrek/httpwire/codec"
	"github.com/marrek/httpwire/interceptors"
	"github.com/marrek/httpwire/transports/nethttp"
	"github.com/marrek/httpwire/wire"
)

// Client is the main entry point for httpwire. It owns exactly one composed
// handler: the interceptor chain is built lazily on the first request and
// reused for every request after that. A Client is safe for concurrent use.
type Client struct {
	handler  interceptors.Handler
	baseURL  *url.URL
	defaults []headerDefault
	codecs   *codec.Registry
	logger   *slog.Logger
}

type headerDefault struct {
	name  string
	value string
}

type clientConfig struct {
	baseURL       string
	transport     interceptors.Handler
	transportOpts []nethttp.TransportOption
	interceptors  []interceptors.Interceptor
	source        interceptors.Source
	defaults      []headerDefault
	codecs        *codec.Registry
	logger        *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*clientConfig)

// WithBaseURL resolves relative request URLs against base
func WithBaseURL(base string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.baseURL = base
	}
}

// WithTransport replaces the terminal transport. Useful for tests and for
// dispatch paths that are not plain HTTP.
func WithTransport(transport interceptors.Handler) ClientOption {
	return func(cfg *clientConfig) {
		cfg.transport = transport
	}
}

// WithHTTPClient sets the http.Client backing the default transport
func WithHTTPClient(client *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.transportOpts = append(cfg.transportOpts, nethttp.WithHTTPClient(client))
	}
}

// WithTimeout sets the overall per-request timeout on the default transport
func WithTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.transportOpts = append(cfg.transportOpts, nethttp.WithTimeout(timeout))
	}
}

// WithUserAgent sets the User-Agent sent when a request carries none
func WithUserAgent(ua string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.transportOpts = append(cfg.transportOpts, nethttp.WithUserAgent(ua))
	}
}

// WithMaxBodySize bounds response body buffering on the default transport
func WithMaxBodySize(limit int64) ClientOption {
	return func(cfg *clientConfig) {
		cfg.transportOpts = append(cfg.transportOpts, nethttp.WithMaxBodySize(limit))
	}
}

// WithInterceptors installs a static interceptor list, composed around the
// transport on the first request. The last interceptor is the outermost.
func WithInterceptors(ics ...interceptors.Interceptor) ClientOption {
	return func(cfg *clientConfig) {
		cfg.interceptors = append(cfg.interceptors, ics...)
	}
}

// WithInterceptorSource installs a lazy interceptor source, resolved at most
// once on the first request. Mutually exclusive with WithInterceptors.
func WithInterceptorSource(source interceptors.Source) ClientOption {
	return func(cfg *clientConfig) {
		cfg.source = source
	}
}

// WithDefaultHeader applies a header field to every request that does not
// already carry it
func WithDefaultHeader(name, value string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.defaults = append(cfg.defaults, headerDefault{name: name, value: value})
	}
}

// WithCodecRegistry replaces the codec registry used for body encoding
func WithCodecRegistry(registry *codec.Registry) ClientOption {
	return func(cfg *clientConfig) {
		cfg.codecs = registry
	}
}

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// NewClient creates a new httpwire client
func NewClient(options ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		codecs: codec.Default(),
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(cfg)
	}

	if cfg.source != nil && len(cfg.interceptors) > 0 {
		return nil, fmt.Errorf("httpwire: WithInterceptors and WithInterceptorSource are mutually exclusive")
	}

	var baseURL *url.URL
	if cfg.baseURL != "" {
		u, err := url.Parse(cfg.baseURL)
		if err != nil {
			return nil, fmt.Errorf("httpwire: parse base url: %w", err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("httpwire: base url must be absolute, got %q", cfg.baseURL)
		}
		baseURL = u
	}

	transport := cfg.transport
	if transport == nil {
		transport = nethttp.NewTransport(cfg.transportOpts...)
	}

	var handler interceptors.Handler
	switch {
	case cfg.source != nil:
		handler = interceptors.NewLazyHandler(cfg.source, transport)
	case len(cfg.interceptors) > 0:
		handler = interceptors.Chain(transport, cfg.interceptors...)
	default:
		handler = transport
	}

	return &Client{
		handler:  handler,
		baseURL:  baseURL,
		defaults: cfg.defaults,
		codecs:   cfg.codecs,
		logger:   cfg.logger,
	}, nil
}

// prepare resolves relative URLs against the base URL and applies default
// headers, cloning only when something changes
func (c *Client) prepare(req *wire.Request) *wire.Request {
	if c.baseURL != nil && !req.URL().IsAbs() {
		req = req.WithURL(c.baseURL.ResolveReference(req.URL()))
	}
	for _, d := range c.defaults {
		if !req.Header().Has(d.name) {
			req = req.WithHeader(d.name, d.value)
		}
	}
	return req
}

// Events dispatches a request and returns its raw event stream. The stream
// carries progress events and exactly one terminal event, then closes;
// cancelling ctx stops production.
func (c *Client) Events(ctx context.Context, req *wire.Request) (<-chan wire.Event, error) {
	return c.handler.Handle(ctx, c.prepare(req))
}

// Do dispatches a request and collapses its stream to the terminal
// response. A terminal failure is returned as its error.
func (c *Client) Do(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	stream, err := c.Events(ctx, req)
	if err != nil {
		return nil, err
	}
	_, resp, err := wire.Collect(ctx, stream)
	return resp, err
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, url string, opts ...wire.RequestOption) (*wire.Response, error) {
	return c.call(ctx, "GET", url, opts...)
}

// Head issues a HEAD request
func (c *Client) Head(ctx context.Context, url string, opts ...wire.RequestOption) (*wire.Response, error) {
	return c.call(ctx, "HEAD", url, opts...)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, url string, opts ...wire.RequestOption) (*wire.Response, error) {
	return c.call(ctx, "DELETE", url, opts...)
}

// Options issues an OPTIONS request
func (c *Client) Options(ctx context.Context, url string, opts ...wire.RequestOption) (*wire.Response, error) {
	return c.call(ctx, "OPTIONS", url, opts...)
}

// Post issues a POST request, encoding body via the codec registry
func (c *Client) Post(ctx context.Context, url, contentType string, body interface{}, opts ...wire.RequestOption) (*wire.Response, error) {
	return c.callWithBody(ctx, "POST", url, contentType, body, opts...)
}

// Put issues a PUT request, encoding body via the codec registry
func (c *Client) Put(ctx context.Context, url, contentType string, body interface{}, opts ...wire.RequestOption) (*wire.Response, error) {
	return c.callWithBody(ctx, "PUT", url, contentType, body, opts...)
}

// Patch issues a PATCH request, encoding body via the codec registry
func (c *Client) Patch(ctx context.Context, url, contentType string, body interface{}, opts ...wire.RequestOption) (*wire.Response, error) {
	return c.callWithBody(ctx, "PATCH", url, contentType, body, opts...)
}

func (c *Client) call(ctx context.Context, method, url string, opts ...wire.RequestOption) (*wire.Response, error) {
	req, err := wire.NewRequest(method, url, opts...)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func (c *Client) callWithBody(ctx context.Context, method, url, contentType string, body interface{}, opts ...wire.RequestOption) (*wire.Response, error) {
	encoded, err := c.encode(contentType, body)
	if err != nil {
		return nil, err
	}
	opts = append(opts, wire.WithBody(encoded, contentType))
	return c.call(ctx, method, url, opts...)
}

// encode serializes a body value. Raw []byte and string bodies pass through
// untouched; everything else goes through the codec for contentType.
func (c *Client) encode(contentType string, body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		encoded, err := c.codecs.Encode(contentType, body)
		if err != nil {
			return nil, fmt.Errorf("httpwire: encode body: %w", err)
		}
		return encoded, nil
	}
}

// Decode deserializes a response body into v using the codec matching the
// response Content-Type, falling back to JSON when the header is absent.
// A non-2xx response returns a *wire.StatusError without decoding.
func (c *Client) Decode(resp *wire.Response, v interface{}) error {
	if err := resp.StatusError(); err != nil {
		return err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = codec.ContentTypeJSON
	}
	return c.codecs.Decode(contentType, resp.Body, v)
}

// GetJSON issues a GET request and decodes the response body into v
func (c *Client) GetJSON(ctx context.Context, url string, v interface{}) error {
	resp, err := c.Get(ctx, url, wire.WithHeader("Accept", codec.ContentTypeJSON))
	if err != nil {
		return err
	}
	return c.Decode(resp, v)
}

// PostJSON issues a POST request with a JSON body and decodes the response into v.
// A nil v discards the response body after the status check.
func (c *Client) PostJSON(ctx context.Context, url string, body, v interface{}) error {
	resp, err := c.Post(ctx, url, codec.ContentTypeJSON, body,
		wire.WithHeader("Accept", codec.ContentTypeJSON))
	if err != nil {
		return err
	}
	if v == nil {
		return resp.StatusError()
	}
	return c.Decode(resp, v)
}
