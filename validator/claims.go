package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrIncompatibleClaims is returned by DecodeClaims when a verified claim set
// does not fit the requested type. It signals a mismatch between the
// application's claim contract and what the pool issues, which is a server
// side problem rather than a token problem.
var ErrIncompatibleClaims = errors.New("claims do not match the expected shape")

// CustomClaims can be implemented by claim types to run extra checks after
// decoding, for example that a required custom attribute is present.
type CustomClaims interface {
	Validate(context.Context) error
}

// RegisteredClaims carries the claim values shared by both Cognito token
// types. Embed it in the claims struct passed to DecodeClaims.
type RegisteredClaims struct {
	Issuer    string           `json:"iss,omitempty"`
	Subject   string           `json:"sub,omitempty"`
	Audience  jwt.ClaimStrings `json:"aud,omitempty"`
	Expiry    int64            `json:"exp,omitempty"`
	NotBefore int64            `json:"nbf,omitempty"`
	IssuedAt  int64            `json:"iat,omitempty"`
	ID        string           `json:"jti,omitempty"`
	TokenUse  string           `json:"token_use,omitempty"`
}

// DecodeClaims converts a verified claim set into the caller's claims type.
// If the type (or a pointer to it) implements CustomClaims, its Validate
// hook runs after decoding. Decoding consumes only already verified claim
// sets; it never touches an unverified token.
func DecodeClaims[T any](ctx context.Context, claims jwt.MapClaims) (T, error) {
	var decoded T

	payload, err := json.Marshal(claims)
	if err != nil {
		return decoded, fmt.Errorf("%w: %v", ErrIncompatibleClaims, err)
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return decoded, fmt.Errorf("%w: %v", ErrIncompatibleClaims, err)
	}

	custom, ok := any(decoded).(CustomClaims)
	if !ok {
		custom, ok = any(&decoded).(CustomClaims)
	}
	if ok {
		if err := custom.Validate(ctx); err != nil {
			return decoded, fmt.Errorf("%w: %v", ErrIncompatibleClaims, err)
		}
	}

	return decoded, nil
}
