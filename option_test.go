package cognitomiddleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoamLabs/go-cognito-middleware/validator"
)

func Test_New_OptionsValidation(t *testing.T) {
	okVerifier := verifierFunc(func(context.Context, string) (jwt.MapClaims, error) {
		return jwt.MapClaims{"sub": "user-1"}, nil
	})

	t.Run("it rejects a nil verifier", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrVerifierNil)
	})

	t.Run("it rejects nil collaborators", func(t *testing.T) {
		testCases := []struct {
			name    string
			option  Option
			wantErr error
		}{
			{name: "claims decoder", option: WithClaimsDecoder(nil), wantErr: ErrClaimsDecoderNil},
			{name: "error handler", option: WithErrorHandler(nil), wantErr: ErrErrorHandlerNil},
			{name: "token extractor", option: WithTokenExtractor(nil), wantErr: ErrTokenExtractorNil},
			{name: "exclusion URL list", option: WithExclusionURLs(nil), wantErr: ErrExclusionURLsEmpty},
			{name: "exclusion URL handler", option: WithExclusionURLHandler(nil), wantErr: ErrExclusionURLHandlerNil},
			{name: "logger", option: WithLogger(nil), wantErr: ErrLoggerNil},
			{name: "metrics", option: WithMetrics(nil), wantErr: ErrMetricsNil},
			{name: "tracer", option: WithTracer(nil), wantErr: ErrTracerNil},
		}

		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				_, err := New(okVerifier, testCase.option)
				require.Error(t, err)
				assert.ErrorIs(t, err, testCase.wantErr)
				assert.Contains(t, err.Error(), "invalid option")
			})
		}
	})

	t.Run("it applies defaults", func(t *testing.T) {
		m, err := New(okVerifier)
		require.NoError(t, err)

		assert.NotNil(t, m.errorHandler)
		assert.NotNil(t, m.tokenExtractor)
		assert.IsType(t, &NoopMetrics{}, m.metrics)
		assert.IsType(t, &NoopTracer{}, m.tracer)
		assert.True(t, m.validateOnOptions)
		assert.False(t, m.credentialsOptional)
		assert.Nil(t, m.logger)
		assert.Nil(t, m.claimsDecoder)
	})

	t.Run("it keeps configured collaborators", func(t *testing.T) {
		metrics := newRecordingMetrics()
		tracer := &recordingTracer{}
		logger := &DefaultLogger{}

		m, err := New(okVerifier,
			WithCredentialsOptional(true),
			WithValidateOnOptions(false),
			WithLogger(logger),
			WithMetrics(metrics),
			WithTracer(tracer),
		)
		require.NoError(t, err)

		assert.True(t, m.credentialsOptional)
		assert.False(t, m.validateOnOptions)
		assert.Same(t, logger, m.logger)
		assert.Same(t, metrics, m.metrics)
		assert.Same(t, tracer, m.tracer)
	})
}

func Test_WithExclusionURLs(t *testing.T) {
	m := &JWTMiddleware{}
	require.NoError(t, WithExclusionURLs([]string{"/health", "/metrics"})(m))

	testCases := []struct {
		path string
		want bool
	}{
		{path: "/health", want: true},
		{path: "/metrics", want: true},
		{path: "/api/orders", want: false},
		{path: "/health/live", want: false},
	}

	for _, testCase := range testCases {
		request, err := http.NewRequest(http.MethodGet, "http://api.example.com"+testCase.path, nil)
		require.NoError(t, err)

		assert.Equal(t, testCase.want, m.exclusionURLHandler(request), "path %s", testCase.path)
	}
}

func Test_DecodeInto(t *testing.T) {
	decoder := DecodeInto[accountClaims]()

	decoded, err := decoder(context.Background(), jwt.MapClaims{
		"sub":       "user-1",
		"token_use": "access",
	})
	require.NoError(t, err)
	assert.Equal(t, accountClaims{Subject: "user-1", TokenUse: "access"}, decoded)

	_, err = decoder(context.Background(), jwt.MapClaims{"sub": 42})
	assert.ErrorIs(t, err, validator.ErrIncompatibleClaims)
}
