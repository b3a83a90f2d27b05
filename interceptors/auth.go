package interceptors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marrek/httpwire/wire"
	"golang.org/x/oauth2"
)

// TokenProvider yields bearer tokens for outgoing requests
type TokenProvider interface {
	// Token returns the current token value
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc is a function adapter for TokenProvider
type TokenProviderFunc func(ctx context.Context) (string, error)

// Token implements TokenProvider
func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken is a TokenProvider for a fixed token value
type StaticToken string

// Token implements TokenProvider
func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// JWTProvider self-signs HMAC tokens for service-to-service calls. Tokens
// are cached and re-signed shortly before expiry.
type JWTProvider struct {
	secret   []byte
	issuer   string
	subject  string
	audience string
	ttl      time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
}

// JWTOption configures the JWT provider
type JWTOption func(*JWTProvider)

// WithIssuer sets the iss claim
func WithIssuer(issuer string) JWTOption {
	return func(p *JWTProvider) { p.issuer = issuer }
}

// WithSubject sets the sub claim
func WithSubject(subject string) JWTOption {
	return func(p *JWTProvider) { p.subject = subject }
}

// WithAudience sets the aud claim
func WithAudience(audience string) JWTOption {
	return func(p *JWTProvider) { p.audience = audience }
}

// WithTokenTTL sets the token lifetime
func WithTokenTTL(ttl time.Duration) JWTOption {
	return func(p *JWTProvider) { p.ttl = ttl }
}

// NewJWTProvider creates a provider signing tokens with the given HMAC secret
func NewJWTProvider(secret []byte, opts ...JWTOption) (*JWTProvider, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("interceptors: jwt secret cannot be empty")
	}
	p := &JWTProvider{
		secret: secret,
		ttl:    15 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Token implements TokenProvider
func (p *JWTProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Re-sign a little before expiry so in-flight requests never carry a
	// token that expires on the wire.
	if p.token != "" && time.Now().Add(30*time.Second).Before(p.expires) {
		return p.token, nil
	}

	now := time.Now()
	expires := now.Add(p.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    p.issuer,
		Subject:   p.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	if p.audience != "" {
		claims.Audience = jwt.ClaimStrings{p.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("interceptors: sign token: %w", err)
	}
	p.token = signed
	p.expires = expires
	return signed, nil
}

// OAuth2Provider adapts an oauth2.TokenSource to TokenProvider. The source
// handles refresh and caching itself.
type OAuth2Provider struct {
	source oauth2.TokenSource
}

// NewOAuth2Provider wraps an oauth2 token source
func NewOAuth2Provider(source oauth2.TokenSource) *OAuth2Provider {
	return &OAuth2Provider{source: source}
}

// Token implements TokenProvider
func (p *OAuth2Provider) Token(ctx context.Context) (string, error) {
	tok, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("interceptors: oauth2 token: %w", err)
	}
	return tok.AccessToken, nil
}

// AuthInterceptor sets an Authorization bearer header on each request. A
// request that already carries Authorization passes through untouched.
type AuthInterceptor struct {
	provider TokenProvider
}

// NewAuthInterceptor creates a new auth interceptor
func NewAuthInterceptor(provider TokenProvider) *AuthInterceptor {
	return &AuthInterceptor{provider: provider}
}

// Intercept implements Interceptor
func (i *AuthInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	if req.Header().Has("Authorization") {
		return next.Handle(ctx, req)
	}

	token, err := i.provider.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("interceptors: acquire token: %w", err)
	}
	return next.Handle(ctx, req.WithHeader("Authorization", "Bearer "+token))
}

// Name implements Interceptor
func (i *AuthInterceptor) Name() string {
	return "AuthInterceptor"
}
