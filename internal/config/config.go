package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetRefreshPath() string
	GetHTTPTimeout() time.Duration
	GetCoalesceRenewals() bool
}

type StoreConfig interface {
	GetStoreBackend() StoreBackend
	GetStorePath() string
	GetStorePassphrase() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKey() string
}

type mainConfig struct {
	EnvVars
	API
	Store
}

func New() Config {
	return mainConfig{}
}
