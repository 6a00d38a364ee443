package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/wakelni-client/credentials"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// renew replaces the stored access token. A missing or rejected refresh token tears
// the session down; transport and store failures are returned as-is and leave the
// session in place.
func (c *Client) renew(ctx context.Context, logger zerolog.Logger, requestID string) error {
	refreshToken, ok, err := credentials.Lookup(ctx, c.store, credentials.RefreshTokenKey)
	if err != nil {
		return errors.Wrap(err, "[Client.renew] read refresh token")
	}
	if !ok {
		return c.teardown(ctx, logger, ReasonRefreshTokenMissing)
	}

	if c.coalesce {
		// The shared renewal outlives any one caller; each caller stops waiting on its own
		// context instead.
		detached := context.WithoutCancel(ctx)
		renewal := c.renewals.DoChan(refreshToken, func() (interface{}, error) {
			return nil, c.refreshAccess(detached, logger, refreshToken, requestID)
		})
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "[Client.renew] waiting for token renewal")
		case res := <-renewal:
			if res.Shared {
				logger.Debug().Msg("Joined in-flight token renewal")
			}
			return c.renewalOutcome(ctx, logger, res.Err)
		}
	}
	return c.renewalOutcome(ctx, logger, c.refreshAccess(ctx, logger, refreshToken, requestID))
}

func (c *Client) renewalOutcome(ctx context.Context, logger zerolog.Logger, err error) error {
	if err == nil {
		return nil
	}
	var rejected *renewalRejectedError
	if errors.As(err, &rejected) {
		logger.Warn().Int("status", rejected.statusCode).Msg("Token renewal rejected")
		return c.teardown(ctx, logger, rejected.reason)
	}
	return err
}

// refreshAccess calls the refresh endpoint and persists the new access token. Only the
// access token is replaced; the refresh token is left as stored.
func (c *Client) refreshAccess(ctx context.Context, logger zerolog.Logger, refreshToken, requestID string) error {
	encoded, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return errors.Wrap(err, "[Client.refreshAccess] Marshal")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.refreshPath, bytes.NewReader(encoded))
	if err != nil {
		return errors.Wrap(err, "[Client.refreshAccess] NewRequest")
	}
	httpReq.Header.Set("Content-Type", jsonContentType)
	httpReq.Header.Set("Accept", jsonContentType)
	httpReq.Header.Set(requestIDHeader, requestID)

	resp, err := c.do(httpReq)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return &renewalRejectedError{reason: ReasonRenewalRejected, statusCode: resp.statusCode}
	}

	var renewed refreshResponse
	if err := json.Unmarshal(resp.body, &renewed); err != nil || strings.TrimSpace(renewed.Access) == "" {
		return &renewalRejectedError{reason: ReasonRenewalNoAccess, statusCode: resp.statusCode}
	}

	if err := c.store.Set(ctx, credentials.AccessTokenKey, renewed.Access); err != nil {
		return errors.Wrap(err, "[Client.refreshAccess] persist access token")
	}
	logger.Info().Msg("Access token renewed")
	return nil
}
