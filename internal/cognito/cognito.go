package cognito

import (
	"errors"
	"fmt"
	"strings"
)

// Endpoints holds the derived URLs for a Cognito user pool.
type Endpoints struct {
	Issuer  string
	JWKSURI string
}

// EndpointsForUserPool derives the token issuer and JWKS endpoints for the
// passed in region and user pool id. Cognito publishes both at fixed,
// deterministic locations, so no discovery round trip is needed.
func EndpointsForUserPool(region, userPoolID string) (*Endpoints, error) {
	region = strings.TrimSpace(region)
	userPoolID = strings.TrimSpace(userPoolID)

	if region == "" {
		return nil, errors.New("region cannot be empty")
	}
	if userPoolID == "" {
		return nil, errors.New("user pool id cannot be empty")
	}
	if strings.ContainsAny(region, "/?#") || strings.ContainsAny(userPoolID, "/?#") {
		return nil, fmt.Errorf("invalid characters in region %q or user pool id %q", region, userPoolID)
	}

	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)

	return &Endpoints{
		Issuer:  issuer,
		JWKSURI: issuer + "/.well-known/jwks.json",
	}, nil
}
