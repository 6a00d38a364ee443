package credentials_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/wakelni-client/credentials"
	"github.com/jrsteele09/wakelni-client/credentials/storefake"
	"github.com/jrsteele09/wakelni-client/internal/backendfake"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/stretchr/testify/require"
)

// plainStore hides the batch methods of FakeStore so the per-key fallbacks run.
type plainStore struct {
	inner *storefake.FakeStore
}

func (p plainStore) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, key)
}

func (p plainStore) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, key, value)
}

func (p plainStore) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, key)
}

func sampleLogin() credentials.Login {
	return credentials.Login{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Profile: credentials.Profile{
			Username:  "chef_amine",
			Email:     "amine@wakelni.dz",
			Role:      "CUISINIER",
			FirstName: "Amine",
			LastName:  "B",
		},
	}
}

func TestSaveLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("writes every key in one batch", func(t *testing.T) {
		store := storefake.NewFakeStore()
		require.NoError(t, credentials.SaveLogin(ctx, store, sampleLogin()))

		require.Equal(t, map[string]string{
			credentials.AccessTokenKey:  "access-1",
			credentials.RefreshTokenKey: "refresh-1",
			credentials.UsernameKey:     "chef_amine",
			credentials.EmailKey:        "amine@wakelni.dz",
			credentials.RoleKey:         "CUISINIER",
			credentials.FirstNameKey:    "Amine",
			credentials.LastNameKey:     "B",
		}, store.Snapshot())
		require.Equal(t, 1, store.Writes())
	})

	t.Run("drops profile fields missing from the new login", func(t *testing.T) {
		store := storefake.NewFakeStore()
		require.NoError(t, credentials.SaveLogin(ctx, store, sampleLogin()))

		next := sampleLogin()
		next.Profile.FirstName = ""
		next.Profile.LastName = ""
		writes := store.Writes()
		require.NoError(t, credentials.SaveLogin(ctx, store, next))
		require.Equal(t, writes+1, store.Writes())

		snapshot := store.Snapshot()
		require.NotContains(t, snapshot, credentials.FirstNameKey)
		require.NotContains(t, snapshot, credentials.LastNameKey)
		require.Equal(t, "chef_amine", snapshot[credentials.UsernameKey])
	})

	t.Run("falls back to single-key writes", func(t *testing.T) {
		inner := storefake.NewFakeStore()
		require.NoError(t, credentials.SaveLogin(ctx, plainStore{inner}, sampleLogin()))
		require.Len(t, inner.Snapshot(), len(credentials.SessionKeys()))
	})

	t.Run("requires both tokens", func(t *testing.T) {
		store := storefake.NewFakeStore()
		login := sampleLogin()
		login.RefreshToken = " "
		err := credentials.SaveLogin(ctx, store, login)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
		require.Empty(t, store.Snapshot())
	})
}

func TestClear(t *testing.T) {
	ctx := context.Background()

	for name, wrap := range map[string]func(*storefake.FakeStore) credentials.Store{
		"batch":  func(s *storefake.FakeStore) credentials.Store { return s },
		"single": func(s *storefake.FakeStore) credentials.Store { return plainStore{s} },
	} {
		t.Run(name, func(t *testing.T) {
			inner := storefake.NewFakeStoreWith(map[string]string{"theme": "dark"})
			store := wrap(inner)
			require.NoError(t, credentials.SaveLogin(ctx, store, sampleLogin()))

			require.NoError(t, credentials.Clear(ctx, store))
			require.NoError(t, credentials.Clear(ctx, store))

			require.Equal(t, map[string]string{"theme": "dark"}, inner.Snapshot())
		})
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	store := storefake.NewFakeStoreWith(map[string]string{
		credentials.AccessTokenKey:  "access-1",
		credentials.RefreshTokenKey: "",
	})

	v, ok, err := credentials.Lookup(ctx, store, credentials.AccessTokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access-1", v)

	_, ok, err = credentials.Lookup(ctx, store, credentials.RefreshTokenKey)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = credentials.Lookup(ctx, store, credentials.EmailKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		session, err := credentials.Load(ctx, storefake.NewFakeStore())
		require.NoError(t, err)
		require.False(t, session.LoggedIn())
	})

	t.Run("full session", func(t *testing.T) {
		expiresAt := time.Now().Add(5 * time.Minute).Truncate(time.Second)
		login := sampleLogin()
		login.AccessToken = backendfake.SignToken("7", "jti-1", expiresAt)

		store := storefake.NewFakeStore()
		require.NoError(t, credentials.SaveLogin(ctx, store, login))

		session, err := credentials.Load(ctx, store)
		require.NoError(t, err)
		require.True(t, session.LoggedIn())
		require.Equal(t, login.Profile, session.Profile)

		token := session.Token()
		require.Equal(t, "Bearer", token.TokenType)
		require.Equal(t, "refresh-1", token.RefreshToken)
		require.True(t, expiresAt.Equal(token.Expiry))

		left, err := session.AccessExpiresIn(expiresAt.Add(-time.Minute))
		require.NoError(t, err)
		require.Equal(t, time.Minute, left)
	})
}
