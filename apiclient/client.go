package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/wakelni-client/credentials"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshPath is the backend endpoint that exchanges a refresh token for a new
// access token.
const DefaultRefreshPath = "/api/users/token/refresh/"

const requestIDHeader = "X-Request-ID"

// SessionTerminatedFunc is called after the credentials have been cleared. Hosts wire
// it to their own navigation, e.g. showing the sign-in screen.
type SessionTerminatedFunc func(reason TerminationReason)

// Requester is the part of Client used by the endpoint services.
type Requester interface {
	Do(ctx context.Context, req Request) (json.RawMessage, error)
	DoJSON(ctx context.Context, req Request, out interface{}) error
}

var _ Requester = (*Client)(nil)

// Client executes authenticated requests against the Wakelni backend. A first 401
// triggers exactly one token renewal and one replay; any further failure tears the
// session down. Client is safe for concurrent use.
type Client struct {
	baseURL      string
	refreshPath  string
	httpClient   *http.Client
	store        credentials.Store
	logger       zerolog.Logger
	onTerminated SessionTerminatedFunc
	newRequestID func() string

	coalesce bool
	renewals singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.refreshPath = path
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSessionTerminated registers the teardown callback.
func WithSessionTerminated(fn SessionTerminatedFunc) Option {
	return func(c *Client) {
		c.onTerminated = fn
	}
}

// WithRenewalCoalescing makes concurrent renewals that present the same refresh token
// share a single call to the refresh endpoint. Each caller still replays its own
// request. Without it every rejected call renews independently.
func WithRenewalCoalescing() Option {
	return func(c *Client) {
		c.coalesce = true
	}
}

// WithRequestIDFunc overrides the X-Request-ID generator (primarily for testing).
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newRequestID = fn
		}
	}
}

// New creates a Client for the backend at baseURL, reading and writing credentials
// through store.
func New(baseURL string, store credentials.Store, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[apiclient.New] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[apiclient.New] store is required")
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		refreshPath:  DefaultRefreshPath,
		httpClient:   http.DefaultClient,
		store:        store,
		logger:       log.Logger,
		newRequestID: uuid.NewString,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Store returns the credential store the client reads from.
func (c *Client) Store() credentials.Store {
	return c.store
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// EndSession clears all persisted session state and fires the termination callback,
// as an explicit sign-out. It is idempotent and never fails; store errors are logged.
func (c *Client) EndSession(ctx context.Context) {
	c.terminate(ctx, c.logger, ReasonSignedOut)
}

// teardown ends the session and returns the error handed back to the caller.
func (c *Client) teardown(ctx context.Context, logger zerolog.Logger, reason TerminationReason) error {
	c.terminate(ctx, logger, reason)
	return &SessionExpiredError{Reason: reason}
}

func (c *Client) terminate(ctx context.Context, logger zerolog.Logger, reason TerminationReason) {
	// The clear must complete even when the caller's context is already done.
	ctx = context.WithoutCancel(ctx)
	if err := credentials.Clear(ctx, c.store); err != nil {
		logger.Err(err).Str("reason", string(reason)).Msg("Failed to clear credentials during teardown")
	}
	if reason == ReasonSignedOut {
		logger.Info().Msg("Signed out")
	} else {
		logger.Warn().Str("reason", string(reason)).Msg("Session terminated")
	}
	if c.onTerminated != nil {
		c.onTerminated(reason)
	}
}
