package cognitogrpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cognitomiddleware "github.com/RoamLabs/go-cognito-middleware"
)

// ErrorHandler converts a gate error into the status error the RPC fails
// with. The err can be checked against cognitomiddleware.ErrJWTMissing,
// ErrJWTMalformed, ErrJWTInvalid and ErrVerifierUnavailable with errors.Is.
// If you implement your own ErrorHandler you MUST take these error types
// into consideration, as not responding to them properly could result in
// the Interceptor not functioning as intended.
type ErrorHandler func(err error) error

// DefaultErrorHandler is the default error handler implementation for the
// Interceptor. If an error handler is not provided via the WithErrorHandler
// option this will be used.
//
// The mapping mirrors the default HTTP responses: InvalidArgument for a
// missing or malformed credential, Unauthenticated for a rejected token,
// Unavailable when verification could not run and Internal for everything
// else. A rejected token gets a message that reveals nothing about why.
func DefaultErrorHandler(err error) error {
	switch {
	case errors.Is(err, cognitomiddleware.ErrJWTMissing):
		return status.Error(codes.InvalidArgument, "missing credentials")
	case errors.Is(err, cognitomiddleware.ErrJWTMalformed):
		return status.Error(codes.InvalidArgument, "malformed credentials")
	case errors.Is(err, cognitomiddleware.ErrJWTInvalid):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, cognitomiddleware.ErrVerifierUnavailable):
		return status.Error(codes.Unavailable, "token verification unavailable")
	default:
		return status.Error(codes.Internal, "something went wrong")
	}
}
