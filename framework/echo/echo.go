// Package cognitoecho provides an Echo middleware around the Cognito bearer
// token gate. It accepts the same verifier and options as the root package
// but surfaces failures as *echo.HTTPError, so the application's
// HTTPErrorHandler renders every response.
package cognitoecho

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	cognitomiddleware "github.com/RoamLabs/go-cognito-middleware"
)

// failureKey carries the per-request failure slot through the request
// context, from the middleware func into the error handler it installs.
type failureKey struct{}

type failure struct {
	err error
}

// New constructs an echo.MiddlewareFunc that verifies the bearer token on
// every request before the rest of the chain runs.
//
// On success the claims are stored on the request context, so downstream
// handlers read them with the root package accessors:
//
//	claims, err := cognitomiddleware.GetClaims[jwt.MapClaims](c.Request().Context())
//
// On failure the middleware returns an *echo.HTTPError carrying the same
// status mapping as the default HTTP handler: 400 for a missing or
// malformed credential, 401 for a rejected token, 503 when verification
// could not run. The gate error is attached as the HTTPError's Internal
// error. Because failures travel through Echo's error path, the adapter
// replaces any ErrorHandler passed in opts; customize responses through
// the Echo instance's HTTPErrorHandler instead.
func New(verifier cognitomiddleware.TokenValidator, opts ...cognitomiddleware.Option) (echo.MiddlewareFunc, error) {
	opts = append(opts, cognitomiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		if slot, ok := r.Context().Value(failureKey{}).(*failure); ok {
			slot.err = err
		}
	}))

	middleware, err := cognitomiddleware.New(verifier, opts...)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			slot := &failure{}
			r := c.Request()
			r = r.WithContext(context.WithValue(r.Context(), failureKey{}, slot))

			var nextErr error
			var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
				// CheckJWT clones the request to attach the claims, so the
				// echo context has to pick up the clone before the chain
				// continues.
				c.SetRequest(r)
				nextErr = next(c)
			}

			middleware.CheckJWT(handler).ServeHTTP(c.Response(), r)

			if slot.err != nil {
				return toHTTPError(slot.err)
			}
			return nextErr
		}
	}, nil
}

// toHTTPError converts a gate error into the *echo.HTTPError matching the
// default HTTP response mapping.
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, cognitomiddleware.ErrJWTMissing):
		return echo.NewHTTPError(http.StatusBadRequest, "Missing 'Authorization' header").SetInternal(err)
	case errors.Is(err, cognitomiddleware.ErrJWTMalformed):
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed token").SetInternal(err)
	case errors.Is(err, cognitomiddleware.ErrJWTInvalid):
		return echo.NewHTTPError(http.StatusUnauthorized).SetInternal(err)
	case errors.Is(err, cognitomiddleware.ErrVerifierUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Token verification unavailable").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Something went wrong").SetInternal(err)
	}
}
