package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Profile is the cached user attributes stored next to the credentials. They are
// display data only and never used for authorization.
type Profile struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (p Profile) values() map[string]string {
	return map[string]string{
		UsernameKey:  p.Username,
		EmailKey:     p.Email,
		RoleKey:      p.Role,
		FirstNameKey: p.FirstName,
		LastNameKey:  p.LastName,
	}
}

// Login is everything persisted after a successful sign-in.
type Login struct {
	AccessToken  string
	RefreshToken string
	Profile      Profile
}

// Session is a read-only view of the persisted store.
type Session struct {
	AccessToken  string
	RefreshToken string
	Profile
}

// LoggedIn reports whether any credential is present.
func (s *Session) LoggedIn() bool {
	return s.AccessToken != "" || s.RefreshToken != ""
}

// Token returns the session as an oauth2 token. Expiry is taken from the access
// token's exp claim and left zero when it cannot be decoded.
func (s *Session) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, err := AccessExpiry(s.AccessToken); err == nil {
		tok.Expiry = exp
	}
	return tok
}

// AccessExpiresIn returns the time left on the access token relative to now.
func (s *Session) AccessExpiresIn(now time.Time) (time.Duration, error) {
	exp, err := AccessExpiry(s.AccessToken)
	if err != nil {
		return 0, err
	}
	return exp.Sub(now), nil
}

// SaveLogin replaces both credentials and the profile. Empty profile fields remove any
// value cached by a previous login.
func SaveLogin(ctx context.Context, store Store, login Login) error {
	if strings.TrimSpace(login.AccessToken) == "" || strings.TrimSpace(login.RefreshToken) == "" {
		return pkgerrors.Wrap(apperrors.ErrInvalidToken, "[SaveLogin] both access and refresh tokens are required")
	}

	values := map[string]string{
		AccessTokenKey:  login.AccessToken,
		RefreshTokenKey: login.RefreshToken,
	}
	var stale []string
	for k, v := range login.Profile.values() {
		if v == "" {
			stale = append(stale, k)
			continue
		}
		values[k] = v
	}

	if batch, ok := store.(BatchStore); ok {
		return pkgerrors.Wrap(batch.Replace(ctx, values, stale...), "[SaveLogin] Replace")
	}

	for _, k := range stale {
		if err := store.Remove(ctx, k); err != nil {
			return pkgerrors.Wrapf(err, "[SaveLogin] Remove %s", k)
		}
	}
	for k, v := range values {
		if err := store.Set(ctx, k, v); err != nil {
			return pkgerrors.Wrapf(err, "[SaveLogin] Set %s", k)
		}
	}
	return nil
}

// Clear removes every session key. It visits all keys even when some removals fail
// and returns the joined errors.
func Clear(ctx context.Context, store Store) error {
	if batch, ok := store.(BatchStore); ok {
		return batch.RemoveAll(ctx, SessionKeys()...)
	}
	var errs []error
	for _, k := range SessionKeys() {
		if err := store.Remove(ctx, k); err != nil {
			errs = append(errs, pkgerrors.Wrapf(err, "[Clear] Remove %s", k))
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the value for key, with ok false when it is absent.
func Lookup(ctx context.Context, store Store, key string) (value string, ok bool, err error) {
	value, err = store.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, value != "", nil
}

// Load reads every session key. Absent keys are left empty.
func Load(ctx context.Context, store Store) (*Session, error) {
	read := func(key string) (string, error) {
		v, _, err := Lookup(ctx, store, key)
		if err != nil {
			return "", pkgerrors.Wrapf(err, "[Load] %s", key)
		}
		return v, nil
	}

	s := &Session{}
	targets := map[string]*string{
		AccessTokenKey:  &s.AccessToken,
		RefreshTokenKey: &s.RefreshToken,
		UsernameKey:     &s.Username,
		EmailKey:        &s.Email,
		RoleKey:         &s.Role,
		FirstNameKey:    &s.FirstName,
		LastNameKey:     &s.LastName,
	}
	for key, dst := range targets {
		v, err := read(key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	return s, nil
}
