package validator

import (
	"errors"
	"strings"
)

const (
	// maxTokenLength caps how much input the parser will ever see. Cognito
	// tokens run a few KB; anything near this limit is garbage.
	maxTokenLength = 1 << 20

	// tokenSegmentDots is the dot count of a compact JWS
	// (header.payload.signature). Cognito issues nothing else.
	tokenSegmentDots = 2
)

// checkTokenShape rejects structurally absurd input before any key lookup or
// cryptographic work happens.
func checkTokenShape(rawToken string) error {
	if rawToken == "" {
		return errors.New("token is empty")
	}
	if len(rawToken) > maxTokenLength {
		return errors.New("token exceeds the maximum accepted size")
	}
	if strings.Count(rawToken, ".") != tokenSegmentDots {
		return errors.New("token is not a compact JWS")
	}

	return nil
}
