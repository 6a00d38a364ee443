package config

import (
	"strings"
	"time"
)

const (
	apiURLVar      = "WAKELNI_API_URL"
	refreshPathVar = "WAKELNI_REFRESH_PATH"
	httpTimeoutVar = "WAKELNI_HTTP_TIMEOUT"
	coalesceVar    = "WAKELNI_COALESCE_RENEWALS"
	DefaultAPIURL  = "http://127.0.0.1:8000"
	DefaultRefresh = "/api/users/token/refresh/"
)

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the backend origin without a trailing slash.
func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiURLVar, DefaultAPIURL), "/")
}

func (API) GetRefreshPath() string {
	return GetEnv(refreshPathVar, DefaultRefresh)
}

// GetHTTPTimeout is zero (no timeout) unless configured; callers bound requests with a context.
func (API) GetHTTPTimeout() time.Duration {
	return GetEnvAsDuration(httpTimeoutVar, 0)
}

func (API) GetCoalesceRenewals() bool {
	return GetEnvAsBool(coalesceVar, false)
}
