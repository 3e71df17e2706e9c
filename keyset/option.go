package keyset

import (
	"errors"
	"net/http"
	"time"
)

// Option configures the KeySet.
// Returns error for validation failures.
type Option func(*KeySet) error

// WithHTTPClient sets the HTTP client used to fetch the JWKS.
//
// Default: http.DefaultClient
func WithHTTPClient(client *http.Client) Option {
	return func(k *KeySet) error {
		if client == nil {
			return ErrHTTPClientNil
		}
		k.client = client
		return nil
	}
}

// WithJWKSEndpoint overrides the well-known JWKS URL derived from the user
// pool. Useful for tests and for Cognito-compatible private deployments.
func WithJWKSEndpoint(uri string) Option {
	return func(k *KeySet) error {
		if uri == "" {
			return ErrJWKSEndpointEmpty
		}
		k.jwksURI = uri
		return nil
	}
}

// WithMinRefreshInterval sets the minimum time between two snapshot refreshes
// triggered by unknown key ids. Explicit Prefetch calls are not subject to it.
//
// Default: 1 minute
func WithMinRefreshInterval(interval time.Duration) Option {
	return func(k *KeySet) error {
		if interval <= 0 {
			return ErrRefreshIntervalInvalid
		}
		k.minRefreshInterval = interval
		return nil
	}
}

// WithLazyPrefetch skips the eager JWKS fetch during New. The first lookup
// fetches instead, so an unreachable pool surfaces at request time rather
// than at construction.
func WithLazyPrefetch() Option {
	return func(k *KeySet) error {
		k.lazy = true
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrHTTPClientNil          = errors.New("http client cannot be nil")
	ErrJWKSEndpointEmpty      = errors.New("jwks endpoint cannot be empty")
	ErrRefreshIntervalInvalid = errors.New("min refresh interval must be greater than zero")
)
