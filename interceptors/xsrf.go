package interceptors

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/marrek/httpwire/wire"
)

// XSRFHeader is the default header carrying the XSRF token
const XSRFHeader = "X-XSRF-TOKEN"

// TokenExtractor yields the current XSRF token. Where the token lives and
// how it is parsed (cookies, meta tags, a sidecar) is outside this package;
// the extractor is the seam.
type TokenExtractor interface {
	// Token returns the current token, or "" when none is available
	Token(ctx context.Context) (string, error)
}

// TokenExtractorFunc is a function adapter for TokenExtractor
type TokenExtractorFunc func(ctx context.Context) (string, error)

// Token implements TokenExtractor
func (f TokenExtractorFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// XSRFInterceptor adds an anti-forgery token header to mutating requests
// targeting the trusted origin. Requests to any other host pass through
// untouched, so the token never leaks to a third party. GET and HEAD are
// never touched; neither is a request that already carries the header. An
// extractor yielding "" means no token is available and the request passes
// through unchanged.
type XSRFInterceptor struct {
	extractor TokenExtractor
	header    string
	scheme    string
	host      string
}

// NewXSRFInterceptor creates an XSRF interceptor scoped to origin
// (scheme://host). Only requests whose URL matches that origin receive the
// token header.
func NewXSRFInterceptor(extractor TokenExtractor, origin string) (*XSRFInterceptor, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("interceptors: parse xsrf origin: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("interceptors: xsrf origin must be scheme://host, got %q", origin)
	}
	return &XSRFInterceptor{
		extractor: extractor,
		header:    XSRFHeader,
		scheme:    strings.ToLower(u.Scheme),
		host:      strings.ToLower(u.Host),
	}, nil
}

// WithHeaderName overrides the header carrying the token
func (i *XSRFInterceptor) WithHeaderName(name string) *XSRFInterceptor {
	i.header = name
	return i
}

// Intercept implements Interceptor
func (i *XSRFInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	if req.Method() == "GET" || req.Method() == "HEAD" || req.Header().Has(i.header) {
		return next.Handle(ctx, req)
	}
	if !i.sameOrigin(req.URL()) {
		return next.Handle(ctx, req)
	}

	token, err := i.extractor.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("interceptors: extract xsrf token: %w", err)
	}
	if token == "" {
		return next.Handle(ctx, req)
	}
	return next.Handle(ctx, req.WithHeader(i.header, token))
}

func (i *XSRFInterceptor) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, i.scheme) && strings.EqualFold(u.Host, i.host)
}

// Name implements Interceptor
func (i *XSRFInterceptor) Name() string {
	return "XSRFInterceptor"
}
