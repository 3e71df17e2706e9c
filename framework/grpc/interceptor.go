// Package cognitogrpc provides gRPC server interceptors around the Cognito
// bearer token gate. The token travels in the "authorization" metadata key
// and failures come back as gRPC status errors instead of HTTP responses.
package cognitogrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	cognitomiddleware "github.com/RoamLabs/go-cognito-middleware"
)

// Interceptor guards gRPC handlers with Cognito bearer token verification.
// It is immutable after New and one instance serves any number of
// concurrent RPCs.
type Interceptor struct {
	verifier            cognitomiddleware.TokenValidator
	claimsDecoder       cognitomiddleware.ClaimsDecoder
	tokenExtractor      TokenExtractor
	errorHandler        ErrorHandler
	credentialsOptional bool
	excludedMethods     map[string]struct{}
	logger              cognitomiddleware.Logger
}

// New constructs a new Interceptor around a verifier, usually a
// *validator.Validator.
func New(verifier cognitomiddleware.TokenValidator, opts ...Option) (*Interceptor, error) {
	if verifier == nil {
		return nil, ErrVerifierNil
	}

	i := &Interceptor{
		verifier:        verifier,
		excludedMethods: make(map[string]struct{}),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if i.tokenExtractor == nil {
		i.tokenExtractor = MetadataTokenExtractor
	}
	if i.errorHandler == nil {
		i.errorHandler = DefaultErrorHandler
	}

	return i, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that runs the
// gate before the handler. On success the claims are stored on the handler
// context, so handlers read them with the root package accessors:
//
//	claims, err := cognitomiddleware.GetClaims[jwt.MapClaims](ctx)
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.excluded(info.FullMethod) {
			return handler(ctx, req)
		}

		ctx, err := i.authorize(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that runs
// the gate before the handler. On success the claims are stored on the
// stream context.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excluded(info.FullMethod) {
			return handler(srv, ss)
		}

		ctx, err := i.authorize(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

func (i *Interceptor) excluded(method string) bool {
	_, ok := i.excludedMethods[method]
	if ok && i.logger != nil {
		i.logger.Debugf("skipping token verification for excluded method %s", method)
	}
	return ok
}

// authorize runs the gate for one RPC. It returns the context the handler
// should run with, or the status error to fail the RPC with.
func (i *Interceptor) authorize(ctx context.Context, method string) (context.Context, error) {
	token, err := i.tokenExtractor(ctx)
	if err != nil {
		// This is not ErrJWTMissing because an error here means that a
		// credential was presented and could not be read, _not_ that the
		// credential was missing.
		if i.logger != nil {
			i.logger.Warnf("failed to extract token on %s: %v", method, err)
		}
		return ctx, i.errorHandler(fmt.Errorf("%w: %s", cognitomiddleware.ErrJWTMalformed, err))
	}

	if token == "" {
		if i.credentialsOptional {
			if i.logger != nil {
				i.logger.Debugf("no credentials provided, continuing without claims (credentials optional)")
			}
			return ctx, nil
		}

		return ctx, i.errorHandler(cognitomiddleware.ErrJWTMissing)
	}

	claims, err := i.verifier.VerifyToken(ctx, token)
	if err != nil {
		// The verifier could not do its job. The token may well be fine,
		// so this is never reported as a client fault.
		if i.logger != nil {
			i.logger.Errorf("token verification could not run on %s: %v", method, err)
		}
		return ctx, i.errorHandler(fmt.Errorf("%w: %s", cognitomiddleware.ErrVerifierUnavailable, err))
	}

	if claims == nil {
		if i.logger != nil {
			i.logger.Warnf("rejected token on %s", method)
		}
		return ctx, i.errorHandler(cognitomiddleware.ErrJWTInvalid)
	}

	decoded := any(claims)
	if i.claimsDecoder != nil {
		decoded, err = i.claimsDecoder(ctx, claims)
		if err != nil {
			if i.logger != nil {
				i.logger.Errorf("verified claims do not fit the configured shape: %v", err)
			}
			return ctx, i.errorHandler(fmt.Errorf("could not decode the verified claims: %w", err))
		}
	}

	return cognitomiddleware.SetClaims(ctx, decoded), nil
}

// wrappedServerStream overrides the stream context with the one carrying
// the verified claims.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
