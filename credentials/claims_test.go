package credentials_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/wakelni-client/credentials"
	"github.com/jrsteele09/wakelni-client/internal/backendfake"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestAccessExpiry(t *testing.T) {
	t.Run("reads exp without verifying", func(t *testing.T) {
		expiresAt := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		exp, err := credentials.AccessExpiry(backendfake.SignToken("1", "a", expiresAt))
		require.NoError(t, err)
		require.True(t, expiresAt.Equal(exp))
	})

	t.Run("expired tokens still decode", func(t *testing.T) {
		expiresAt := time.Now().Add(-time.Hour).Truncate(time.Second)
		exp, err := credentials.AccessExpiry(backendfake.SignToken("1", "a", expiresAt))
		require.NoError(t, err)
		require.True(t, expiresAt.Equal(exp))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := credentials.AccessExpiry("")
		require.ErrorIs(t, err, apperrors.ErrNotLoggedIn)
	})

	t.Run("not a jwt", func(t *testing.T) {
		_, err := credentials.AccessExpiry("opaque-token")
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("no exp claim", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("k"))
		require.NoError(t, err)
		_, err = credentials.AccessExpiry(raw)
		require.ErrorIs(t, err, apperrors.ErrMissingExpiry)
	})
}
