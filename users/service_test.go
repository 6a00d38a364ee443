package users_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/wakelni-client/apiclient"
	"github.com/jrsteele09/wakelni-client/credentials"
	"github.com/jrsteele09/wakelni-client/credentials/storefake"
	"github.com/jrsteele09/wakelni-client/internal/backendfake"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/jrsteele09/wakelni-client/internal/utils"
	"github.com/jrsteele09/wakelni-client/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccess   = "access-from-login"
	testRefresh  = "refresh-from-login"
	testEmail    = "sawsen.k@gmail.com"
	testPassword = "motdepasse"
)

type testFixture struct {
	backend *backendfake.Backend
	store   *storefake.FakeStore
	client  *apiclient.Client
	service *users.Service
	ended   []apiclient.TerminationReason
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		backend: backendfake.New(t),
		store:   storefake.NewFakeStore(),
	}
	client, err := apiclient.New(f.backend.URL(), f.store, apiclient.WithSessionTerminated(func(reason apiclient.TerminationReason) {
		f.ended = append(f.ended, reason)
	}))
	require.NoError(t, err)
	f.client = client

	f.service, err = users.NewService(client, f.store)
	require.NoError(t, err)

	f.backend.HandlePublic(http.MethodPost, "/api/users/login/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		assert.NoError(t, backendfake.DecodeJSON(r, &req))
		if req["identifier"] != testEmail || req["password"] != testPassword {
			backendfake.WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Identifiants invalides."})
			return
		}
		f.backend.AllowAccess(testAccess)
		f.backend.AllowRefresh(testRefresh)
		backendfake.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"access":  testAccess,
			"refresh": testRefresh,
			"user": map[string]interface{}{
				"id":         4,
				"username":   "sawsen",
				"email":      testEmail,
				"first_name": "Sawsen",
				"last_name":  "",
				"role":       "CLIENT",
			},
		})
	})
	return f
}

func TestNewService_Validation(t *testing.T) {
	_, err := users.NewService(nil, storefake.NewFakeStore())
	require.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	f := setupTestFixture(t)
	f.store = storefake.NewFakeStoreWith(map[string]string{credentials.LastNameKey: "stale"})
	client, err := apiclient.New(f.backend.URL(), f.store)
	require.NoError(t, err)
	service, err := users.NewService(client, f.store)
	require.NoError(t, err)

	user, err := service.Login(context.Background(), "  "+testEmail+" ", testPassword)
	require.NoError(t, err)
	require.Equal(t, users.RoleClient, user.Role)
	require.True(t, user.IsClient())
	require.False(t, user.IsCook())
	require.Equal(t, int64(4), user.ID)
	require.Equal(t, "Sawsen", user.DisplayName())

	require.Equal(t, map[string]string{
		credentials.AccessTokenKey:  testAccess,
		credentials.RefreshTokenKey: testRefresh,
		credentials.UsernameKey:     "sawsen",
		credentials.EmailKey:        testEmail,
		credentials.RoleKey:         "CLIENT",
		credentials.FirstNameKey:    "Sawsen",
	}, f.store.Snapshot())

	req, ok := f.backend.LastRequest(http.MethodPost, "/api/users/login/")
	require.True(t, ok)
	require.Empty(t, req.Header.Get("Authorization"))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Login(context.Background(), testEmail, "wrong-password")
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
	require.False(t, apiclient.IsSessionExpired(err))
	require.Empty(t, f.store.Snapshot())
	require.Equal(t, 0, f.backend.RefreshCalls())
	require.Empty(t, f.ended)
}

func TestLogin_MissingFields(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Login(context.Background(), " ", testPassword)
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	require.Empty(t, f.backend.Requests("", ""))
}

func TestLogin_ResponseWithoutTokens(t *testing.T) {
	f := setupTestFixture(t)
	backend := backendfake.New(t)
	backend.HandlePublic(http.MethodPost, "/api/users/login/", backendfake.JSON(http.StatusOK, map[string]string{"access": "only-access"}))
	client, err := apiclient.New(backend.URL(), f.store)
	require.NoError(t, err)
	service, err := users.NewService(client, f.store)
	require.NoError(t, err)

	_, err = service.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, apperrors.ErrMissingResponse)
	require.Empty(t, f.store.Snapshot())
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.HandlePublic(http.MethodPost, "/api/users/register/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		assert.NoError(t, backendfake.DecodeJSON(r, &req))
		delete(req, "password")
		req["id"] = 9
		backendfake.WriteJSON(w, http.StatusCreated, req)
	})

	t.Run("defaults to client", func(t *testing.T) {
		user, err := f.service.Register(context.Background(), users.RegisterRequest{
			Username: "amine",
			Email:    "amine@wakelni.dz",
			Password: "secret1",
		})
		require.NoError(t, err)
		require.Equal(t, users.RoleClient, user.Role)
		require.Equal(t, int64(9), user.ID)

		req, ok := f.backend.LastRequest(http.MethodPost, "/api/users/register/")
		require.True(t, ok)
		require.JSONEq(t, `{"username":"amine","email":"amine@wakelni.dz","password":"secret1","role":"CLIENT"}`, string(req.Body))
		require.Empty(t, f.store.Snapshot())
	})

	t.Run("rejects weak password locally", func(t *testing.T) {
		before := len(f.backend.Requests("", ""))
		_, err := f.service.Register(context.Background(), users.RegisterRequest{
			Username: "amine",
			Email:    "amine@wakelni.dz",
			Password: "123",
		})
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		require.Len(t, f.backend.Requests("", ""), before)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := f.service.Register(context.Background(), users.RegisterRequest{
			Username: "amine",
			Email:    "amine@wakelni.dz",
			Password: "secret1",
			Role:     "CHEF",
		})
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})
}

func TestMeAndUpdate(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	profile := map[string]interface{}{
		"id": 4, "username": "sawsen", "email": testEmail, "first_name": "Sawsen", "role": "CLIENT",
		"adresse_principale": "12 rue Didouche Mourad", "note_moyenne": nil,
	}
	f.backend.Handle(http.MethodGet, "/api/users/me/", backendfake.JSON(http.StatusOK, profile))
	f.backend.Handle(http.MethodPatch, "/api/users/me/", func(w http.ResponseWriter, r *http.Request) {
		var patch map[string]interface{}
		assert.NoError(t, backendfake.DecodeJSON(r, &patch))
		for k, v := range patch {
			profile[k] = v
		}
		backendfake.WriteJSON(w, http.StatusOK, profile)
	})

	me, err := f.service.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "12 rue Didouche Mourad", me.MainAddress)
	require.Nil(t, me.AverageRating)

	updated, err := f.service.UpdateMe(context.Background(), users.ProfileUpdate{
		FirstName: utils.Ptr("Sawsen"),
		LastName:  utils.Ptr("Khelifi"),
	})
	require.NoError(t, err)
	require.Equal(t, "Khelifi", updated.LastName)

	req, ok := f.backend.LastRequest(http.MethodPatch, "/api/users/me/")
	require.True(t, ok)
	require.JSONEq(t, `{"first_name":"Sawsen","last_name":"Khelifi"}`, string(req.Body))

	cached, err := f.store.Get(context.Background(), credentials.LastNameKey)
	require.NoError(t, err)
	require.Equal(t, "Khelifi", cached)
}

func TestDeactivate(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	f.backend.Handle(http.MethodPost, "/api/users/deactivate/", backendfake.JSON(http.StatusOK, map[string]string{"detail": "Compte désactivé."}))

	require.NoError(t, f.service.Deactivate(context.Background()))

	req, ok := f.backend.LastRequest(http.MethodPost, "/api/users/deactivate/")
	require.True(t, ok)
	require.JSONEq(t, `{}`, string(req.Body))
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	session, err := f.service.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, testAccess, session.AccessToken)

	f.service.Logout(context.Background())
	f.service.Logout(context.Background())

	require.Empty(t, f.store.Snapshot())
	require.Equal(t, []apiclient.TerminationReason{apiclient.ReasonSignedOut, apiclient.ReasonSignedOut}, f.ended)

	_, err = f.service.Current(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNotLoggedIn)
}

func TestSessionExpiresAfterLogin(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	f.backend.Handle(http.MethodGet, "/api/users/me/", backendfake.JSON(http.StatusOK, map[string]string{}))

	f.backend.ExpireAccess(testAccess)
	f.backend.FailRefresh(http.StatusUnauthorized, `{"detail":"Token is blacklisted","code":"token_not_valid"}`)

	_, err = f.service.Me(context.Background())
	require.True(t, apiclient.IsSessionExpired(err))
	require.Empty(t, f.store.Snapshot())
	require.Equal(t, []apiclient.TerminationReason{apiclient.ReasonRenewalRejected}, f.ended)
}
