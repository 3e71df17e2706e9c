package cognitogrpc

import (
	"errors"

	cognitomiddleware "github.com/RoamLabs/go-cognito-middleware"
)

// Option is how options for the Interceptor are set up.
// Options return errors to enable validation during construction.
type Option func(*Interceptor) error

// WithClaimsDecoder sets the decoder applied to verified claims before they
// are stored on the handler context. cognitomiddleware.DecodeInto builds
// one for a struct type.
//
// Default: none (the raw jwt.MapClaims is stored)
func WithClaimsDecoder(d cognitomiddleware.ClaimsDecoder) Option {
	return func(i *Interceptor) error {
		if d == nil {
			return ErrClaimsDecoderNil
		}
		i.claimsDecoder = d
		return nil
	}
}

// WithCredentialsOptional sets whether credentials are optional.
// If set to true, an RPC without any token continues to the handler
// without claims on its context.
//
// Default: false (credentials required)
func WithCredentialsOptional(value bool) Option {
	return func(i *Interceptor) error {
		i.credentialsOptional = value
		return nil
	}
}

// WithTokenExtractor sets the function to extract the token from the
// incoming RPC context.
//
// Default: MetadataTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(i *Interceptor) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		i.tokenExtractor = e
		return nil
	}
}

// WithErrorHandler sets the handler converting gate errors into status
// errors. See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(i *Interceptor) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		i.errorHandler = h
		return nil
	}
}

// WithExcludedMethods excludes full method names from token verification,
// in the form "/package.Service/Method". Health checks are the usual
// candidates:
//
//	cognitogrpc.WithExcludedMethods("/grpc.health.v1.Health/Check")
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		if len(methods) == 0 {
			return ErrExcludedMethodsEmpty
		}
		for _, method := range methods {
			i.excludedMethods[method] = struct{}{}
		}
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor. Logging never
// alters how an RPC is handled.
//
// Default: none (silent)
func WithLogger(logger cognitomiddleware.Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return ErrLoggerNil
		}
		i.logger = logger
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrVerifierNil          = errors.New("verifier cannot be nil")
	ErrClaimsDecoderNil     = errors.New("claimsDecoder cannot be nil")
	ErrTokenExtractorNil    = errors.New("tokenExtractor cannot be nil")
	ErrErrorHandlerNil      = errors.New("errorHandler cannot be nil")
	ErrExcludedMethodsEmpty = errors.New("excluded methods list cannot be empty")
	ErrLoggerNil            = errors.New("logger cannot be nil")
)
