package validator

import (
	"errors"
	"time"

	"github.com/RoamLabs/go-cognito-middleware/keyset"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithKeySet injects an existing pool key set instead of constructing one,
// so a single key set can back several validators (for example one for ID
// tokens and one for access tokens). The region and user pool id passed to
// New are ignored when a key set is injected.
func WithKeySet(keys *keyset.KeySet) Option {
	return func(v *Validator) error {
		if keys == nil {
			return ErrKeySetNil
		}
		v.keys = keys
		return nil
	}
}

// WithKeySetOptions forwards options to the key set constructed by New.
// Incompatible with WithKeySet.
func WithKeySetOptions(opts ...keyset.Option) Option {
	return func(v *Validator) error {
		v.keySetOpts = append(v.keySetOpts, opts...)
		return nil
	}
}

// WithAllowedClockSkew sets the tolerance applied to time based claims, so
// slightly skewed clocks between Cognito and this process do not reject
// otherwise valid tokens.
//
// Default: 0 (no tolerance)
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return ErrNegativeClockSkew
		}
		v.clockSkew = skew
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrUnsupportedTokenType  = errors.New("unsupported token type")
	ErrClientIDEmpty         = errors.New("client id cannot be empty")
	ErrKeySetNil             = errors.New("key set cannot be nil")
	ErrKeySetOptionsConflict = errors.New("key set options cannot be combined with an injected key set")
	ErrNegativeClockSkew     = errors.New("clock skew cannot be negative")
)
