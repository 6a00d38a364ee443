package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/wakelni-client/credentials"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const jsonContentType = "application/json"

// Request describes one logical call.
type Request struct {
	Method string
	// Path is appended to the base URL and may carry a query string.
	Path string
	// Body is JSON-encoded, or must be a *Form when Multipart is set. Nil sends no body.
	Body interface{}
	// Multipart suppresses the JSON content type; the form supplies its own.
	Multipart bool
	// NoAuth sends no bearer token and never renews. Used for sign-in and sign-up.
	NoAuth bool
}

// payload is the request body prepared once per logical call.
type payload struct {
	json []byte
	form *Form
}

func (p payload) reader() (io.Reader, string, error) {
	switch {
	case p.form != nil:
		return p.form.encode()
	case p.json != nil:
		return bytes.NewReader(p.json), "", nil
	}
	return nil, "", nil
}

func (r Request) prepare() (payload, error) {
	if strings.TrimSpace(r.Method) == "" {
		return payload{}, errors.Wrap(apperrors.ErrInvalidRequest, "method is required")
	}
	if !strings.HasPrefix(r.Path, "/") {
		return payload{}, errors.Wrapf(apperrors.ErrInvalidRequest, "path %q must start with /", r.Path)
	}

	form, isForm := r.Body.(*Form)
	if r.Multipart {
		if r.Body != nil && !isForm {
			return payload{}, errors.Wrap(apperrors.ErrInvalidRequest, "multipart body must be a *Form")
		}
		return payload{form: form}, nil
	}
	if isForm {
		return payload{}, errors.Wrap(apperrors.ErrInvalidRequest, "*Form body requires Multipart")
	}
	if r.Body == nil {
		return payload{}, nil
	}
	encoded, err := json.Marshal(r.Body)
	if err != nil {
		return payload{}, errors.Wrap(err, "[Request.prepare] Marshal")
	}
	return payload{json: encoded}, nil
}

// Do runs the request pipeline: one attempt, and on a 401 one renewal plus one
// replay. It returns nil for an empty 2xx body, otherwise the raw JSON value.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	body, err := req.prepare()
	if err != nil {
		return nil, err
	}

	requestID := c.newRequestID()
	logger := c.logger.With().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Logger()

	resp, err := c.send(ctx, logger, req, body, requestID)
	if err != nil {
		return nil, err
	}

	if resp.unauthorized() && !req.NoAuth {
		logger.Info().Msg("Access token rejected, renewing")
		if err := c.renew(ctx, logger, requestID); err != nil {
			return nil, err
		}

		resp, err = c.send(ctx, logger, req, body, requestID)
		if err != nil {
			return nil, err
		}
		if resp.unauthorized() {
			return nil, c.teardown(ctx, logger, ReasonReplayUnauthorized)
		}
	}

	return resp.result()
}

// DoJSON runs Do and decodes a non-empty result into out. out may be nil.
func (c *Client) DoJSON(ctx context.Context, req Request, out interface{}) error {
	raw, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "[Client.DoJSON] %s %s decode", req.Method, req.Path)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Patch(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) PostForm(ctx context.Context, path string, form *Form) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: form, Multipart: true})
}

// send performs a single attempt. Headers are rebuilt every time so the access token
// is whatever the store holds at this moment.
func (c *Client) send(ctx context.Context, logger zerolog.Logger, req Request, body payload, requestID string) (response, error) {
	reader, formContentType, err := body.reader()
	if err != nil {
		return response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, reader)
	if err != nil {
		return response{}, errors.Wrap(err, "[Client.send] NewRequest")
	}
	if err := c.setHeaders(ctx, httpReq, req, formContentType, requestID); err != nil {
		return response{}, err
	}

	resp, err := c.do(httpReq)
	if err != nil {
		return response{}, err
	}
	logger.Debug().Int("status", resp.statusCode).Msg("API response")
	return resp, nil
}

func (c *Client) setHeaders(ctx context.Context, httpReq *http.Request, req Request, formContentType, requestID string) error {
	if req.Multipart {
		if formContentType != "" {
			httpReq.Header.Set("Content-Type", formContentType)
		}
	} else {
		httpReq.Header.Set("Content-Type", jsonContentType)
	}
	httpReq.Header.Set("Accept", jsonContentType)
	httpReq.Header.Set(requestIDHeader, requestID)

	if req.NoAuth {
		return nil
	}
	accessToken, ok, err := credentials.Lookup(ctx, c.store, credentials.AccessTokenKey)
	if err != nil {
		return errors.Wrap(err, "[Client.setHeaders] read access token")
	}
	if ok {
		(&oauth2.Token{AccessToken: accessToken}).SetAuthHeader(httpReq)
	}
	return nil
}

func (c *Client) do(httpReq *http.Request) (response, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return response{}, errors.Wrapf(err, "[Client.Do] %s %s transport", httpReq.Method, httpReq.URL.Path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, errors.Wrapf(err, "[Client.Do] %s %s read body", httpReq.Method, httpReq.URL.Path)
	}
	return response{statusCode: resp.StatusCode, body: raw}, nil
}
