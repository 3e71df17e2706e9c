package cognitomiddleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTMiddleware guards HTTP handlers with Cognito bearer token verification.
// It is immutable after New and one instance serves any number of
// concurrent requests.
type JWTMiddleware struct {
	verifier            TokenValidator
	claimsDecoder       ClaimsDecoder
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	credentialsOptional bool
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
	metrics             Metrics
	tracer              Tracer
}

// TokenValidator is the verification contract the middleware drives. It is
// satisfied by *validator.Validator.
//
// VerifyToken has three outcomes: (claims, nil) means the token verified;
// (nil, nil) means the token was rejected and no detail about why is
// available; (nil, err) means verification itself could not run and nothing
// is known about the token. The middleware maps these to 2xx, 401 and 503.
type TokenValidator interface {
	VerifyToken(ctx context.Context, rawToken string) (jwt.MapClaims, error)
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should be excluded from token verification.
type ExclusionURLHandler func(r *http.Request) bool

// Outcome labels recorded per request on the checks counter.
const (
	outcomeVerified    = "verified"
	outcomeMissing     = "missing"
	outcomeMalformed   = "malformed"
	outcomeRejected    = "rejected"
	outcomeUnavailable = "unavailable"
	outcomeClaimsError = "claims_error"
	outcomeSkipped     = "skipped"
)

const (
	checksMetric        = "cognito_jwt_checks_total"
	verifySecondsMetric = "cognito_jwt_verify_seconds"
)

// New constructs a new JWTMiddleware instance around a verifier, usually a
// *validator.Validator.
//
// Example:
//
//	jwtVerifier, err := validator.New(ctx,
//	    validator.TokenTypeAccess, clientID, region, userPoolID)
//	if err != nil {
//	    log.Fatalf("failed to create verifier: %v", err)
//	}
//
//	middleware, err := cognitomiddleware.New(jwtVerifier)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
func New(verifier TokenValidator, opts ...Option) (*JWTMiddleware, error) {
	if verifier == nil {
		return nil, ErrVerifierNil
	}

	m := &JWTMiddleware{
		verifier: verifier,
		// Set secure defaults before applying options
		validateOnOptions:   true,  // Verify OPTIONS by default
		credentialsOptional: false, // Credentials required by default
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	m.applyDefaults()

	return m, nil
}

// applyDefaults fills the optional collaborators not set by options.
func (m *JWTMiddleware) applyDefaults() {
	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = AuthHeaderTokenExtractor
	}
	if m.metrics == nil {
		m.metrics = &NoopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = &NoopTracer{}
	}
}

// CheckJWT is the main JWTMiddleware function which performs the main logic.
// It is passed a http.Handler which will be called only if the request
// carries a verified token or matches a configured skip path.
func (m *JWTMiddleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.StartSpan(r.Context(), "cognitomiddleware.CheckJWT")
		defer span.Finish()
		r = r.WithContext(ctx)

		// If there's an exclusion handler and the URL matches, skip
		// verification entirely.
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debugf("skipping token verification for excluded URL %s %s", r.Method, r.URL.Path)
			}
			m.recordOutcome(span, outcomeSkipped)
			next.ServeHTTP(w, r)
			return
		}

		// If we don't verify on OPTIONS and this is OPTIONS
		// then continue onto next without verifying.
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			if m.logger != nil {
				m.logger.Debugf("skipping token verification for OPTIONS request")
			}
			m.recordOutcome(span, outcomeSkipped)
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			// This is not ErrJWTMissing because an error here means that a
			// credential was presented and could not be read, _not_ that the
			// credential was missing.
			if m.logger != nil {
				m.logger.Warnf("failed to extract token from request: %v", err)
			}
			m.recordOutcome(span, outcomeMalformed)
			m.errorHandler(w, r, &malformedError{details: err})
			return
		}

		if token == "" {
			if m.credentialsOptional {
				if m.logger != nil {
					m.logger.Debugf("no credentials provided, continuing without claims (credentials optional)")
				}
				m.recordOutcome(span, outcomeSkipped)
				next.ServeHTTP(w, r)
				return
			}

			m.recordOutcome(span, outcomeMissing)
			m.errorHandler(w, r, ErrJWTMissing)
			return
		}

		start := time.Now()
		claims, err := m.verifier.VerifyToken(r.Context(), token)
		m.metrics.ObserveHistogram(verifySecondsMetric, time.Since(start).Seconds(), nil)

		if err != nil {
			// The verifier could not do its job. The token may well be
			// fine, so this is never reported as a client fault.
			if m.logger != nil {
				m.logger.Errorf("token verification could not run: %v", err)
			}
			m.recordOutcome(span, outcomeUnavailable)
			m.errorHandler(w, r, &unavailableError{details: err})
			return
		}

		if claims == nil {
			if m.logger != nil {
				m.logger.Warnf("rejected token on %s %s", r.Method, r.URL.Path)
			}
			m.recordOutcome(span, outcomeRejected)
			m.errorHandler(w, r, ErrJWTInvalid)
			return
		}

		decoded := any(claims)
		if m.claimsDecoder != nil {
			decoded, err = m.claimsDecoder(r.Context(), claims)
			if err != nil {
				// The token verified; failing to decode its claims into
				// the configured shape is a bug on our side of the wire.
				if m.logger != nil {
					m.logger.Errorf("verified claims do not fit the configured shape: %v", err)
				}
				m.recordOutcome(span, outcomeClaimsError)
				m.errorHandler(w, r, fmt.Errorf("could not decode the verified claims: %w", err))
				return
			}
		}

		if m.logger != nil {
			m.logger.Debugf("token verified, setting claims in request context")
		}
		m.recordOutcome(span, outcomeVerified)

		r = r.Clone(SetClaims(r.Context(), decoded))
		next.ServeHTTP(w, r)
	})
}

func (m *JWTMiddleware) recordOutcome(span Span, outcome string) {
	m.metrics.IncCounter(checksMetric, map[string]string{"outcome": outcome})
	span.SetTag("outcome", outcome)
}
