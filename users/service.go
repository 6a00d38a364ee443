package users

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/wakelni-client/apiclient"
	"github.com/jrsteele09/wakelni-client/credentials"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/pkg/errors"
)

const (
	loginPath      = "/api/users/login/"
	registerPath   = "/api/users/register/"
	mePath         = "/api/users/me/"
	deactivatePath = "/api/users/deactivate/"
)

// SessionClient is the part of apiclient.Client the account operations need.
type SessionClient interface {
	apiclient.Requester
	EndSession(ctx context.Context)
}

var _ SessionClient = (*apiclient.Client)(nil)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user"`
}

// Service signs users in and out and manages the signed-in profile.
type Service struct {
	client SessionClient
	store  credentials.Store
}

func NewService(client SessionClient, store credentials.Store) (*Service, error) {
	if client == nil {
		return nil, errors.New("[users.NewService] client is required")
	}
	if store == nil {
		return nil, errors.New("[users.NewService] store is required")
	}
	return &Service{client: client, store: store}, nil
}

// Login authenticates with an email or username and persists the issued credentials
// and cached profile.
func (s *Service) Login(ctx context.Context, identifier, password string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "[Service.Login] identifier and password are required")
	}

	var resp loginResponse
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   loginPath,
		Body:   loginRequest{Identifier: identifier, Password: password},
		NoAuth: true,
	}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login]")
	}
	if resp.Access == "" || resp.Refresh == "" {
		return nil, errors.Wrap(apperrors.ErrMissingResponse, "[Service.Login] access and refresh tokens")
	}

	user := resp.User
	if user == nil {
		user = &User{}
	}
	err = credentials.SaveLogin(ctx, s.store, credentials.Login{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		Profile:      user.Profile(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login]")
	}
	return user, nil
}

// Register creates an account. It does not sign in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, err.Error())
	}
	if req.Role == "" {
		req.Role = RoleClient
	}

	var user User
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   registerPath,
		Body:   req,
		NoAuth: true,
	}, &user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register]")
	}
	return &user, nil
}

func (s *Service) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: mePath}, &user); err != nil {
		return nil, errors.Wrap(err, "[Service.Me]")
	}
	return &user, nil
}

// UpdateMe patches the signed-in profile and refreshes the cached name fields.
func (s *Service) UpdateMe(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user User
	if err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodPatch, Path: mePath, Body: update}, &user); err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateMe]")
	}

	for key, value := range map[string]string{
		credentials.FirstNameKey: user.FirstName,
		credentials.LastNameKey:  user.LastName,
	} {
		var err error
		if value == "" {
			err = s.store.Remove(ctx, key)
		} else {
			err = s.store.Set(ctx, key, value)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "[Service.UpdateMe] cache %s", key)
		}
	}
	return &user, nil
}

// Deactivate turns off the signed-in cook's account.
func (s *Service) Deactivate(ctx context.Context) error {
	_, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: deactivatePath, Body: struct{}{}})
	return errors.Wrap(err, "[Service.Deactivate]")
}

// Logout clears the local session. No request is sent; the backend keeps no session.
func (s *Service) Logout(ctx context.Context) {
	s.client.EndSession(ctx)
}

// Current returns the persisted session, or ErrNotLoggedIn when there is none.
func (s *Service) Current(ctx context.Context) (*credentials.Session, error) {
	session, err := credentials.Load(ctx, s.store)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Current]")
	}
	if !session.LoggedIn() {
		return nil, apperrors.ErrNotLoggedIn
	}
	return session, nil
}
