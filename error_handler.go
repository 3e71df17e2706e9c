package cognitomiddleware

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrJWTMissing is returned when the request carries no credential
	// at all.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTMalformed is returned when a credential was presented but
	// could not be read as a bearer token.
	ErrJWTMalformed = errors.New("jwt malformed")

	// ErrJWTInvalid is returned when a bearer token failed verification.
	// It deliberately carries no detail about why.
	ErrJWTInvalid = errors.New("jwt invalid")

	// ErrVerifierUnavailable is returned when the verification machinery
	// itself failed, for example because the pool JWKS could not be
	// fetched. Nothing is known about the token in that case.
	ErrVerifierUnavailable = errors.New("token verification unavailable")
)

// ErrorHandler is a handler which is called when an error occurs in the
// JWTMiddleware. Among some general errors, this handler also determines the
// response of the JWTMiddleware for every way a request can fail the gate.
// The err can be checked against ErrJWTMissing, ErrJWTMalformed,
// ErrJWTInvalid and ErrVerifierUnavailable with errors.Is. The default
// handler returns 400 for a missing or malformed credential, 401 with an
// empty body for a token that failed verification, 503 when verification
// could not run, and 500 for all other errors. If you implement your own
// ErrorHandler you MUST take these error types into consideration, as not
// responding to them properly could result in the JWTMiddleware not
// functioning as intended.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation for the
// JWTMiddleware. If an error handler is not provided via the
// WithErrorHandler option this will be used.
//
// A rejected token (401) gets an empty body: the client learns that its
// token did not pass and nothing else.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrJWTMissing):
		http.Error(w, "Missing 'Authorization' header", http.StatusBadRequest)
	case errors.Is(err, ErrJWTMalformed):
		http.Error(w, "Malformed token", http.StatusBadRequest)
	case errors.Is(err, ErrJWTInvalid):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, ErrVerifierUnavailable):
		http.Error(w, "Token verification unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
	}
}

// malformedError handles wrapping an extraction error with the concrete
// error ErrJWTMalformed. We do not expose this publicly because the
// interface methods of Is and Unwrap should give the user all they need.
type malformedError struct {
	details error
}

// Is allows the error to support equality to ErrJWTMalformed.
func (e malformedError) Is(target error) bool {
	return target == ErrJWTMalformed
}

// Error returns a string representation of the error.
func (e malformedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrJWTMalformed, e.details)
}

// Unwrap allows the error to support equality to the
// underlying error and not just ErrJWTMalformed.
func (e malformedError) Unwrap() error {
	return e.details
}

// unavailableError handles wrapping a verifier infrastructure error with the
// concrete error ErrVerifierUnavailable.
type unavailableError struct {
	details error
}

// Is allows the error to support equality to ErrVerifierUnavailable.
func (e unavailableError) Is(target error) bool {
	return target == ErrVerifierUnavailable
}

// Error returns a string representation of the error.
func (e unavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrVerifierUnavailable, e.details)
}

// Unwrap allows the error to support equality to the
// underlying error and not just ErrVerifierUnavailable.
func (e unavailableError) Unwrap() error {
	return e.details
}
