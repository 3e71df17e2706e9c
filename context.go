package cognitomiddleware

import (
	"context"
	"errors"
	"fmt"
)

// contextKey is an unexported type for context keys to prevent collisions.
// Using an unexported type ensures that only this package can create context
// keys, eliminating the risk of collisions with other packages.
type contextKey int

const (
	claimsKey contextKey = iota
)

// ErrClaimsNotFound is returned by GetClaims when the request context holds
// no claims, usually because the middleware did not run or the request was
// let through on a skip path.
var ErrClaimsNotFound = errors.New("no claims found in context")

// SetClaims stores claims in the context.
// The middleware calls this after verification; adapters for other
// transports can use it the same way.
func SetClaims(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims retrieves claims from the context with type safety using
// generics. T must be the type stored by the configured ClaimsDecoder,
// or jwt.MapClaims when no decoder is configured.
//
// Example usage:
//
//	claims, err := cognitomiddleware.GetClaims[jwt.MapClaims](r.Context())
//	if err != nil {
//	    return err
//	}
//	// Use claims...
func GetClaims[T any](ctx context.Context) (T, error) {
	var zero T

	val := ctx.Value(claimsKey)
	if val == nil {
		return zero, ErrClaimsNotFound
	}

	claims, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("claims in context have type %T, not the requested type", val)
	}

	return claims, nil
}

// MustGetClaims retrieves claims from the context or panics.
// Use only when you are certain claims exist, for example in handlers that
// are only ever reached through the middleware.
func MustGetClaims[T any](ctx context.Context) T {
	claims, err := GetClaims[T](ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	return ctx.Value(claimsKey) != nil
}
