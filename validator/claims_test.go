package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileClaims struct {
	Subject  string   `json:"sub"`
	Email    string   `json:"email"`
	Username string   `json:"cognito:username"`
	TokenUse string   `json:"token_use"`
	Groups   []string `json:"cognito:groups"`
}

type adminClaims struct {
	Groups []string `json:"cognito:groups"`
}

func (c adminClaims) Validate(_ context.Context) error {
	for _, group := range c.Groups {
		if group == "admins" {
			return nil
		}
	}

	return errors.New("user is not an admin")
}

type contactClaims struct {
	Email string `json:"email"`
}

func (c *contactClaims) Validate(_ context.Context) error {
	if c.Email == "" {
		return errors.New("email claim is required")
	}

	return nil
}

func TestDecodeClaims(t *testing.T) {
	ctx := context.Background()

	claims := jwt.MapClaims{
		"sub":              "5b0a2a10-4f79-4b62-8c3a-bb3f84d0c16a",
		"email":            "jane.doe@example.com",
		"cognito:username": "jane.doe",
		"cognito:groups":   []string{"admins", "editors"},
		"token_use":        "id",
	}

	t.Run("it decodes claims into a typed struct", func(t *testing.T) {
		profile, err := DecodeClaims[profileClaims](ctx, claims)
		require.NoError(t, err)

		assert.Equal(t, "5b0a2a10-4f79-4b62-8c3a-bb3f84d0c16a", profile.Subject)
		assert.Equal(t, "jane.doe@example.com", profile.Email)
		assert.Equal(t, "jane.doe", profile.Username)
		assert.Equal(t, "id", profile.TokenUse)
		assert.Equal(t, []string{"admins", "editors"}, profile.Groups)
	})

	t.Run("it decodes the registered claim set", func(t *testing.T) {
		registered, err := DecodeClaims[RegisteredClaims](ctx, jwt.MapClaims{
			"iss":       "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_testPool",
			"aud":       "6jqgmtdhp3rjbv88q2n9mdmuv8",
			"sub":       "5b0a2a10-4f79-4b62-8c3a-bb3f84d0c16a",
			"token_use": "id",
			"exp":       1756120000,
		})
		require.NoError(t, err)

		assert.Equal(t, "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_testPool", registered.Issuer)
		assert.Equal(t, jwt.ClaimStrings{"6jqgmtdhp3rjbv88q2n9mdmuv8"}, registered.Audience)
		assert.Equal(t, int64(1756120000), registered.Expiry)
		assert.Equal(t, "id", registered.TokenUse)
	})

	t.Run("it decodes into a claims map", func(t *testing.T) {
		decoded, err := DecodeClaims[jwt.MapClaims](ctx, claims)
		require.NoError(t, err)

		assert.Equal(t, "jane.doe@example.com", decoded["email"])
	})

	t.Run("it rejects claims that do not fit the target shape", func(t *testing.T) {
		_, err := DecodeClaims[profileClaims](ctx, jwt.MapClaims{"email": 42})
		assert.ErrorIs(t, err, ErrIncompatibleClaims)
	})

	t.Run("it rejects claims that cannot be serialized", func(t *testing.T) {
		_, err := DecodeClaims[profileClaims](ctx, jwt.MapClaims{"bad": make(chan int)})
		assert.ErrorIs(t, err, ErrIncompatibleClaims)
	})

	t.Run("it runs the Validate hook", func(t *testing.T) {
		decoded, err := DecodeClaims[adminClaims](ctx, claims)
		require.NoError(t, err)
		assert.Equal(t, []string{"admins", "editors"}, decoded.Groups)

		_, err = DecodeClaims[adminClaims](ctx, jwt.MapClaims{"cognito:groups": []string{"editors"}})
		assert.ErrorIs(t, err, ErrIncompatibleClaims)
		assert.Contains(t, err.Error(), "user is not an admin")
	})

	t.Run("it runs a Validate hook declared on a pointer receiver", func(t *testing.T) {
		decoded, err := DecodeClaims[contactClaims](ctx, claims)
		require.NoError(t, err)
		assert.Equal(t, "jane.doe@example.com", decoded.Email)

		_, err = DecodeClaims[contactClaims](ctx, jwt.MapClaims{"token_use": "id"})
		assert.ErrorIs(t, err, ErrIncompatibleClaims)
	})
}
