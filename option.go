package cognitomiddleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/RoamLabs/go-cognito-middleware/validator"
)

// Option is how options for the JWTMiddleware are set up.
// Options return errors to enable validation during construction.
type Option func(*JWTMiddleware) error

// ClaimsDecoder converts a verified claim set into the value stored in the
// request context. A decoding failure is treated as a server-side bug, not
// a client fault: the middleware responds 500, never 401.
type ClaimsDecoder func(ctx context.Context, claims jwt.MapClaims) (any, error)

// DecodeInto returns a ClaimsDecoder that decodes verified claims into T
// using validator.DecodeClaims. Retrieve the decoded value downstream with
// GetClaims[T].
//
// Example:
//
//	type apiClaims struct {
//	    Subject string `json:"sub"`
//	    Scope   string `json:"scope"`
//	}
//
//	middleware, err := cognitomiddleware.New(jwtVerifier,
//	    cognitomiddleware.WithClaimsDecoder(cognitomiddleware.DecodeInto[apiClaims]()),
//	)
func DecodeInto[T any]() ClaimsDecoder {
	return func(ctx context.Context, claims jwt.MapClaims) (any, error) {
		return validator.DecodeClaims[T](ctx, claims)
	}
}

// WithClaimsDecoder sets the decoder applied to verified claims before they
// are stored in the request context.
//
// Default: none (the raw jwt.MapClaims is stored)
func WithClaimsDecoder(d ClaimsDecoder) Option {
	return func(m *JWTMiddleware) error {
		if d == nil {
			return ErrClaimsDecoderNil
		}
		m.claimsDecoder = d
		return nil
	}
}

// WithCredentialsOptional sets whether credentials are optional.
// If set to true, a request without any token continues to the handler
// without claims in its context.
//
// Default: false (credentials required)
func WithCredentialsOptional(value bool) Option {
	return func(m *JWTMiddleware) error {
		m.credentialsOptional = value
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests should have their
// token verified.
//
// Default: true (OPTIONS requests are verified)
func WithValidateOnOptions(value bool) Option {
	return func(m *JWTMiddleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler called when a request fails the gate.
// See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *JWTMiddleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function to extract the token from the request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *JWTMiddleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithExclusionURLs configures URL patterns to exclude from token
// verification. URLs can be full URLs or just paths.
func WithExclusionURLs(exclusions []string) Option {
	return func(m *JWTMiddleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionURLsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithExclusionURLHandler sets a predicate deciding per request whether
// verification is skipped, for exclusion rules WithExclusionURLs cannot
// express.
func WithExclusionURLHandler(h ExclusionURLHandler) Option {
	return func(m *JWTMiddleware) error {
		if h == nil {
			return ErrExclusionURLHandlerNil
		}
		m.exclusionURLHandler = h
		return nil
	}
}

// WithLogger sets an optional logger for the middleware. Logging never
// alters how a request is handled.
//
// Adapters for logrus, zap and zerolog are provided; see NewLogrusLogger,
// NewZapLogger and NewZerologLogger.
//
// Default: none (silent)
func WithLogger(logger Logger) Option {
	return func(m *JWTMiddleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink. The middleware counts every request by
// outcome and observes verification latency.
//
// Default: NoopMetrics
func WithMetrics(metrics Metrics) Option {
	return func(m *JWTMiddleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer that wraps every request in a span.
//
// Default: NoopTracer
func WithTracer(tracer Tracer) Option {
	return func(m *JWTMiddleware) error {
		if tracer == nil {
			return ErrTracerNil
		}
		m.tracer = tracer
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrVerifierNil            = errors.New("verifier cannot be nil")
	ErrClaimsDecoderNil       = errors.New("claimsDecoder cannot be nil")
	ErrErrorHandlerNil        = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil      = errors.New("tokenExtractor cannot be nil")
	ErrExclusionURLsEmpty     = errors.New("exclusion URLs list cannot be empty")
	ErrExclusionURLHandlerNil = errors.New("exclusion URL handler cannot be nil")
	ErrLoggerNil              = errors.New("logger cannot be nil")
	ErrMetricsNil             = errors.New("metrics cannot be nil")
	ErrTracerNil              = errors.New("tracer cannot be nil")
)
