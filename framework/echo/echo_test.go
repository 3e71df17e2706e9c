package cognitoecho

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cognitomiddleware "github.com/RoamLabs/go-cognito-middleware"
)

type verifierFunc func(ctx context.Context, rawToken string) (jwt.MapClaims, error)

func (f verifierFunc) VerifyToken(ctx context.Context, rawToken string) (jwt.MapClaims, error) {
	return f(ctx, rawToken)
}

func newStubVerifier(userClaims jwt.MapClaims) verifierFunc {
	return func(_ context.Context, rawToken string) (jwt.MapClaims, error) {
		switch rawToken {
		case "token-ok":
			return userClaims, nil
		case "token-infra":
			return nil, errors.New("jwks endpoint gone")
		default:
			return nil, nil
		}
	}
}

func Test_New(t *testing.T) {
	userClaims := jwt.MapClaims{"sub": "user-1", "token_use": "access"}

	testCases := []struct {
		name         string
		options      []cognitomiddleware.Option
		path         string
		authHeader   string
		wantStatus   int
		wantMessage  any
		wantInternal error
		wantClaims   bool
		wantChainRun bool
	}{
		{
			name:         "it lets a verified request through with claims",
			path:         "/",
			authHeader:   "Bearer token-ok",
			wantClaims:   true,
			wantChainRun: true,
		},
		{
			name:         "it rejects a request without credentials",
			path:         "/",
			wantStatus:   http.StatusBadRequest,
			wantMessage:  "Missing 'Authorization' header",
			wantInternal: cognitomiddleware.ErrJWTMissing,
		},
		{
			name:         "it rejects a request with a malformed header",
			path:         "/",
			authHeader:   "Bear token-ok",
			wantStatus:   http.StatusBadRequest,
			wantMessage:  "Malformed token",
			wantInternal: cognitomiddleware.ErrJWTMalformed,
		},
		{
			name:         "it rejects an unverified token",
			path:         "/",
			authHeader:   "Bearer token-bad",
			wantStatus:   http.StatusUnauthorized,
			wantMessage:  http.StatusText(http.StatusUnauthorized),
			wantInternal: cognitomiddleware.ErrJWTInvalid,
		},
		{
			name:         "it returns 503 when verification cannot run",
			path:         "/",
			authHeader:   "Bearer token-infra",
			wantStatus:   http.StatusServiceUnavailable,
			wantMessage:  "Token verification unavailable",
			wantInternal: cognitomiddleware.ErrVerifierUnavailable,
		},
		{
			name: "it returns 500 when the claims decoder fails",
			options: []cognitomiddleware.Option{
				cognitomiddleware.WithClaimsDecoder(func(context.Context, jwt.MapClaims) (any, error) {
					return nil, errors.New("bad shape")
				}),
			},
			path:        "/",
			authHeader:  "Bearer token-ok",
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Something went wrong",
		},
		{
			name: "it continues without claims when credentials are optional",
			options: []cognitomiddleware.Option{
				cognitomiddleware.WithCredentialsOptional(true),
			},
			path:         "/",
			wantChainRun: true,
		},
		{
			name: "it skips verification for an excluded URL",
			options: []cognitomiddleware.Option{
				cognitomiddleware.WithExclusionURLs([]string{"/health"}),
			},
			path:         "/health",
			wantChainRun: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			middleware, err := New(newStubVerifier(userClaims), testCase.options...)
			require.NoError(t, err)

			chainRan := false
			var gotClaims jwt.MapClaims
			var gotClaimsErr error
			next := func(c echo.Context) error {
				chainRan = true
				gotClaims, gotClaimsErr = cognitomiddleware.GetClaims[jwt.MapClaims](c.Request().Context())
				return c.NoContent(http.StatusOK)
			}

			e := echo.New()
			request := httptest.NewRequest(http.MethodGet, testCase.path, nil)
			if testCase.authHeader != "" {
				request.Header.Set("Authorization", testCase.authHeader)
			}
			recorder := httptest.NewRecorder()
			c := e.NewContext(request, recorder)

			err = middleware(next)(c)

			assert.Equal(t, testCase.wantChainRun, chainRan)

			if testCase.wantStatus == 0 {
				require.NoError(t, err)
			} else {
				var httpErr *echo.HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, testCase.wantStatus, httpErr.Code)
				assert.Equal(t, testCase.wantMessage, httpErr.Message)
				if testCase.wantInternal != nil {
					assert.ErrorIs(t, httpErr.Internal, testCase.wantInternal)
				}
			}

			if testCase.wantClaims {
				require.NoError(t, gotClaimsErr)
				if !cmp.Equal(userClaims, gotClaims) {
					t.Fatal(cmp.Diff(userClaims, gotClaims))
				}
			} else if testCase.wantChainRun {
				assert.ErrorIs(t, gotClaimsErr, cognitomiddleware.ErrClaimsNotFound)
			}
		})
	}
}

func Test_New_NextErrorPropagates(t *testing.T) {
	middleware, err := New(newStubVerifier(jwt.MapClaims{"sub": "user-1"}))
	require.NoError(t, err)

	wantErr := echo.NewHTTPError(http.StatusTeapot, "short and stout")
	next := func(c echo.Context) error {
		return wantErr
	}

	e := echo.New()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer token-ok")
	c := e.NewContext(request, httptest.NewRecorder())

	err = middleware(next)(c)

	assert.Same(t, wantErr, err)
}

func Test_New_NilVerifier(t *testing.T) {
	middleware, err := New(nil)

	assert.Nil(t, middleware)
	assert.ErrorIs(t, err, cognitomiddleware.ErrVerifierNil)
}

func Test_New_RendersThroughEchoErrorHandler(t *testing.T) {
	middleware, err := New(newStubVerifier(jwt.MapClaims{"sub": "user-1"}))
	require.NoError(t, err)

	e := echo.New()
	e.Use(middleware)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Authenticated."})
	})

	testCases := []struct {
		name       string
		authHeader string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "verified",
			authHeader: "Bearer token-ok",
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Authenticated."}` + "\n",
		},
		{
			name:       "missing",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"message":"Missing 'Authorization' header"}` + "\n",
		},
		{
			name:       "rejected",
			authHeader: "Bearer token-bad",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"Unauthorized"}` + "\n",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if testCase.authHeader != "" {
				request.Header.Set("Authorization", testCase.authHeader)
			}
			recorder := httptest.NewRecorder()

			e.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.wantStatus, recorder.Code)

			body, err := io.ReadAll(recorder.Body)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantBody, string(body))
		})
	}
}
