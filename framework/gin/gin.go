// Package cognitogin provides a Gin middleware around the Cognito bearer
// token gate. It accepts the same verifier and options as the root package,
// so the response mapping and claim handling are identical to wrapping a
// plain http.Handler.
package cognitogin

import (
	"net/http"

	cognitomiddleware "github.com/RoamLabs/go-cognito-middleware"
	"github.com/gin-gonic/gin"
)

// New constructs a gin.HandlerFunc that verifies the bearer token on every
// request before the rest of the chain runs.
//
// On success the claims are stored on the request context, so downstream
// handlers read them with the root package accessors:
//
//	claims, err := cognitomiddleware.GetClaims[jwt.MapClaims](c.Request.Context())
//
// On failure the configured ErrorHandler writes the response and the chain
// is aborted. The default mapping is the same as for plain HTTP: 400 for a
// missing or malformed credential, 401 with an empty body for a rejected
// token, 503 when verification could not run.
func New(verifier cognitomiddleware.TokenValidator, opts ...cognitomiddleware.Option) (gin.HandlerFunc, error) {
	middleware, err := cognitomiddleware.New(verifier, opts...)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		encounteredError := true
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			encounteredError = false
			// CheckJWT clones the request to attach the claims, so the gin
			// context has to pick up the clone before the chain continues.
			c.Request = r
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)

		if encounteredError {
			c.Abort()
		}
	}, nil
}
