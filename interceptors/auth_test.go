package interceptors

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestAuthInterceptor(t *testing.T) {
	t.Run("sets a bearer header from a static token", func(t *testing.T) {
		transport := &okTransport{}
		auth := NewAuthInterceptor(StaticToken("sekrit"))

		_, err := dispatch(t, Chain(transport, auth), mustRequest(t, "GET", "https://example.com/"))

		require.NoError(t, err)
		assert.Equal(t, "Bearer sekrit", transport.last.Header().Get("Authorization"))
	})

	t.Run("does not replace an existing authorization header", func(t *testing.T) {
		transport := &okTransport{}
		auth := NewAuthInterceptor(StaticToken("sekrit"))
		req := mustRequest(t, "GET", "https://example.com/").WithHeader("Authorization", "Basic abc")

		_, err := dispatch(t, Chain(transport, auth), req)

		require.NoError(t, err)
		assert.Equal(t, "Basic abc", transport.last.Header().Get("Authorization"))
	})

	t.Run("provider failure refuses the dispatch synchronously", func(t *testing.T) {
		transport := &okTransport{}
		failing := TokenProviderFunc(func(ctx context.Context) (string, error) {
			return "", assert.AnError
		})
		auth := NewAuthInterceptor(failing)

		stream, err := Chain(transport, auth).Handle(context.Background(), mustRequest(t, "GET", "https://example.com/"))

		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, stream)
		assert.Nil(t, transport.last)
	})
}

func TestJWTProvider(t *testing.T) {
	t.Run("signs verifiable tokens with the configured claims", func(t *testing.T) {
		secret := []byte("test-secret")
		provider, err := NewJWTProvider(secret,
			WithIssuer("httpwire-test"),
			WithSubject("svc-a"),
			WithAudience("svc-b"),
			WithTokenTTL(time.Minute),
		)
		require.NoError(t, err)

		token, err := provider.Token(context.Background())
		require.NoError(t, err)

		parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(*jwt.RegisteredClaims)
		assert.Equal(t, "httpwire-test", claims.Issuer)
		assert.Equal(t, "svc-a", claims.Subject)
		assert.Contains(t, claims.Audience, "svc-b")
	})

	t.Run("caches tokens until near expiry", func(t *testing.T) {
		provider, err := NewJWTProvider([]byte("test-secret"), WithTokenTTL(time.Hour))
		require.NoError(t, err)

		first, err := provider.Token(context.Background())
		require.NoError(t, err)
		second, err := provider.Token(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("rejects an empty secret", func(t *testing.T) {
		_, err := NewJWTProvider(nil)
		assert.Error(t, err)
	})
}

func TestOAuth2Provider(t *testing.T) {
	t.Run("adapts a token source", func(t *testing.T) {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "oauth-token"})
		provider := NewOAuth2Provider(source)

		token, err := provider.Token(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "oauth-token", token)
	})
}

func TestXSRFInterceptor(t *testing.T) {
	extractor := TokenExtractorFunc(func(ctx context.Context) (string, error) {
		return "xsrf-value", nil
	})

	newXSRF := func(t *testing.T, extractor TokenExtractor) *XSRFInterceptor {
		t.Helper()
		xsrf, err := NewXSRFInterceptor(extractor, "https://example.com")
		require.NoError(t, err)
		return xsrf
	}

	t.Run("adds the token to mutating same-origin requests", func(t *testing.T) {
		transport := &okTransport{}
		_, err := dispatch(t, Chain(transport, newXSRF(t, extractor)), mustRequest(t, "POST", "https://example.com/items"))

		require.NoError(t, err)
		assert.Equal(t, "xsrf-value", transport.last.Header().Get(XSRFHeader))
	})

	t.Run("never sends the token to a foreign host", func(t *testing.T) {
		for _, target := range []string{
			"https://attacker.example.net/collect",
			"http://example.com/items",
			"https://evil.example.com/items",
		} {
			transport := &okTransport{}
			_, err := dispatch(t, Chain(transport, newXSRF(t, extractor)), mustRequest(t, "POST", target))

			require.NoError(t, err)
			assert.False(t, transport.last.Header().Has(XSRFHeader), target)
		}
	})

	t.Run("origin matching ignores case", func(t *testing.T) {
		transport := &okTransport{}
		_, err := dispatch(t, Chain(transport, newXSRF(t, extractor)), mustRequest(t, "POST", "https://EXAMPLE.com/items"))

		require.NoError(t, err)
		assert.Equal(t, "xsrf-value", transport.last.Header().Get(XSRFHeader))
	})

	t.Run("rejects a relative origin", func(t *testing.T) {
		_, err := NewXSRFInterceptor(extractor, "/just/a/path")
		require.Error(t, err)
	})

	t.Run("skips GET and HEAD", func(t *testing.T) {
		for _, method := range []string{"GET", "HEAD"} {
			transport := &okTransport{}
			_, err := dispatch(t, Chain(transport, newXSRF(t, extractor)), mustRequest(t, method, "https://example.com/"))

			require.NoError(t, err)
			assert.False(t, transport.last.Header().Has(XSRFHeader), method)
		}
	})

	t.Run("passes through when no token is available", func(t *testing.T) {
		empty := TokenExtractorFunc(func(ctx context.Context) (string, error) {
			return "", nil
		})
		transport := &okTransport{}
		_, err := dispatch(t, Chain(transport, newXSRF(t, empty)), mustRequest(t, "POST", "https://example.com/"))

		require.NoError(t, err)
		assert.False(t, transport.last.Header().Has(XSRFHeader))
	})

	t.Run("keeps an existing token header", func(t *testing.T) {
		transport := &okTransport{}
		req := mustRequest(t, "POST", "https://example.com/").WithHeader(XSRFHeader, "caller-token")
		_, err := dispatch(t, Chain(transport, newXSRF(t, extractor)), req)

		require.NoError(t, err)
		assert.Equal(t, "caller-token", transport.last.Header().Get(XSRFHeader))
	})
}
