// Package validator verifies JWTs issued by an AWS Cognito user pool.
package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/RoamLabs/go-cognito-middleware/keyset"
)

// TokenType selects which claim rules a Validator applies. The values equal
// the token_use claim Cognito stamps into its tokens.
type TokenType string

const (
	// TokenTypeID verifies Cognito identity tokens. Their audience claim
	// must contain the app client id.
	TokenTypeID TokenType = "id"

	// TokenTypeAccess verifies Cognito access tokens. Access tokens carry
	// no audience; their client_id claim must match the app client id.
	TokenTypeAccess TokenType = "access"
)

// Cognito signs all user pool tokens with RS256.
const signingAlgorithm = "RS256"

// Validator verifies raw Cognito JWTs of one token type for one app client.
// It is immutable after New and safe for concurrent use.
type Validator struct {
	keys       *keyset.KeySet
	tokenType  TokenType
	clientID   string
	clockSkew  time.Duration
	parserOpts []jwt.ParserOption

	// Temporary fields used during construction
	keySetOpts []keyset.Option
}

// New builds a Validator for one token type of one app client. Unless a key
// set is injected with WithKeySet, the pool's key set is constructed here,
// which eagerly fetches the JWKS: a pool whose keys cannot be established
// fails construction instead of failing requests later.
func New(ctx context.Context, tokenType TokenType, clientID, region, userPoolID string, opts ...Option) (*Validator, error) {
	v := &Validator{
		tokenType: tokenType,
		clientID:  clientID,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid validator option: %w", err)
		}
	}

	if tokenType != TokenTypeID && tokenType != TokenTypeAccess {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTokenType, tokenType)
	}
	if clientID == "" {
		return nil, ErrClientIDEmpty
	}
	if v.keys != nil && len(v.keySetOpts) > 0 {
		return nil, ErrKeySetOptionsConflict
	}

	if v.keys == nil {
		keys, err := keyset.New(ctx, region, userPoolID, v.keySetOpts...)
		if err != nil {
			return nil, fmt.Errorf("could not establish the pool key set: %w", err)
		}
		v.keys = keys
	}
	v.keySetOpts = nil

	v.parserOpts = v.buildParserOptions()

	return v, nil
}

// KeySet returns the pool key set backing this validator, so further
// validators (for example one per token type) can share it.
func (v *Validator) KeySet() *keyset.KeySet {
	return v.keys
}

// VerifyToken checks a raw compact JWT against the pool keys and the claim
// rules of the configured token type. There are three outcomes:
//
//   - (claims, nil): the token verified; claims is the full claim set.
//   - (nil, nil): the token failed verification. No detail is reported and
//     callers should reject the request without explanation.
//   - (nil, err): the verification machinery itself failed, for example the
//     pool JWKS could not be fetched. Nothing is known about the token.
func (v *Validator) VerifyToken(ctx context.Context, rawToken string) (jwt.MapClaims, error) {
	if err := checkTokenShape(rawToken); err != nil {
		return nil, nil
	}

	var resolveErr error
	keyFunc := func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("token header carries no key id")
		}

		key, err := v.keys.ResolveKey(ctx, kid)
		if err != nil {
			// An unknown key id means the token cannot be attributed to
			// the pool; anything else means we could not tell and must
			// not blame the token for it.
			if !errors.Is(err, keyset.ErrUnknownKeyID) {
				resolveErr = err
			}
			return nil, err
		}
		return key, nil
	}

	token, err := jwt.ParseWithClaims(rawToken, jwt.MapClaims{}, keyFunc, v.parserOpts...)
	if err != nil {
		if resolveErr != nil {
			return nil, fmt.Errorf("could not resolve the signing key: %w", resolveErr)
		}
		return nil, nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !v.claimsMatchCategory(claims) {
		return nil, nil
	}

	return claims, nil
}

// buildParserOptions freezes the claim rules for the configured token type.
func (v *Validator) buildParserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.keys.Issuer()),
		jwt.WithLeeway(v.clockSkew),
	}

	if v.tokenType == TokenTypeID {
		opts = append(opts, jwt.WithAudience(v.clientID))
	}

	return opts
}

// claimsMatchCategory applies the checks the parser options cannot express:
// the token_use stamp and, for access tokens, the client binding.
func (v *Validator) claimsMatchCategory(claims jwt.MapClaims) bool {
	use, _ := claims["token_use"].(string)
	if use != string(v.tokenType) {
		return false
	}

	if v.tokenType == TokenTypeAccess {
		clientID, _ := claims["client_id"].(string)
		if clientID != v.clientID {
			return false
		}
	}

	return true
}
