package config

import (
	"os"
	"path/filepath"
	"strings"
)

// StoreBackend selects where session credentials are persisted.
type StoreBackend string

const (
	StoreBackendFile   StoreBackend = "file"
	StoreBackendRedis  StoreBackend = "redis"
	StoreBackendMemory StoreBackend = "memory"
)

const (
	storeBackendVar    = "WAKELNI_STORE"
	storePathVar       = "WAKELNI_STORE_PATH"
	storePassphraseVar = "WAKELNI_STORE_PASSPHRASE"
	redisAddrVar       = "REDIS_URL"
	redisPasswordVar   = "REDIS_PASSWORD"
	redisDBVar         = "REDIS_DB"
	redisKeyVar        = "WAKELNI_REDIS_KEY"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreBackend() StoreBackend {
	return ParseStoreBackend(GetEnv(storeBackendVar, string(StoreBackendFile)))
}

// ParseStoreBackend falls back to the file backend for unknown names.
func ParseStoreBackend(name string) StoreBackend {
	switch StoreBackend(strings.ToLower(strings.TrimSpace(name))) {
	case StoreBackendRedis:
		return StoreBackendRedis
	case StoreBackendMemory:
		return StoreBackendMemory
	}
	return StoreBackendFile
}

func (Store) GetStorePath() string {
	return GetEnv(storePathVar, defaultStorePath())
}

// GetStorePassphrase returns an empty string when the file store should be kept in plain JSON.
func (Store) GetStorePassphrase() string {
	return GetEnv(storePassphraseVar, "")
}

func (Store) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "localhost:6379")
}

func (Store) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, "")
}

func (Store) GetRedisDB() int {
	return GetEnvAsInt(redisDBVar, 0)
}

func (Store) GetRedisKey() string {
	return GetEnv(redisKeyVar, "wakelni:session")
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".wakelni", "session.json")
	}
	return filepath.Join(dir, "wakelni", "session.json")
}
