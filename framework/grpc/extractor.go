package cognitogrpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/metadata"
)

// TokenExtractor is a function that takes an incoming RPC context as input
// and returns either a token or an error. An error should only be returned
// if an attempt to specify a token was found, but the information was
// somehow incorrectly formed. In the case where a token is simply not
// present, this should not be treated as an error. An empty string should
// be returned in that case.
type TokenExtractor func(ctx context.Context) (string, error)

// authorizationKey is the metadata key carrying the credential. gRPC
// normalizes incoming metadata keys to lowercase.
const authorizationKey = "authorization"

const bearerScheme = "Bearer "

// MetadataTokenExtractor extracts a bearer token from the "authorization"
// metadata key. It applies the same rules as the HTTP header extractor: a
// single value, printable ASCII, a case sensitive "Bearer " scheme and a
// non-empty token after it.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil // No metadata in the request
	}

	values := md.Get(authorizationKey)
	if len(values) == 0 {
		return "", nil // No credential in the request
	}
	if len(values) > 1 {
		return "", errors.New("multiple authorization metadata values are not allowed")
	}

	value := values[0]
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return "", errors.New("authorization metadata contains invalid characters")
		}
	}

	if !strings.HasPrefix(value, bearerScheme) {
		return "", errors.New("authorization metadata format must be Bearer {token}")
	}

	token := strings.TrimSpace(value[len(bearerScheme):])
	if token == "" {
		return "", errors.New("authorization metadata carries no token")
	}

	return token, nil
}
