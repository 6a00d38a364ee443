package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/pkg/errors"
)

// AccessExpiry decodes the exp claim of a JWT access token without verifying its
// signature. The client never holds the signing key; the value is for display and
// diagnostics only.
func AccessExpiry(rawToken string) (time.Time, error) {
	if rawToken == "" {
		return time.Time{}, apperrors.ErrNotLoggedIn
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return time.Time{}, errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	if exp == nil {
		return time.Time{}, apperrors.ErrMissingExpiry
	}
	return exp.Time, nil
}
