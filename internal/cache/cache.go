// Package cache stores rendered simulation results keyed by a hash of the
// request that produced them.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/loan-simulator/pkg/constants"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Repository is a byte-oriented result cache.
//
//go:generate mockgen -destination=mocks/mock_cache.go -package=mocks -source=cache.go Repository
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Config selects and tunes a cache backend.
type Config struct {
	Backend string `yaml:"backend"`
	Address string `yaml:"address"`
	TTL     string `yaml:"ttl"`
}

// New builds the repository named by cfg.Backend. It returns nil for the
// "none" backend.
func New(cfg Config) (Repository, error) {
	ttl, err := parseTTL(cfg.TTL)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "", constants.CacheBackendMemory:
		return NewMemoryCache(ttl), nil
	case constants.CacheBackendRedis:
		if cfg.Address == "" {
			return nil, fmt.Errorf("redis cache requires an address")
		}
		return NewRedisCache(cfg.Address, ttl), nil
	case constants.CacheBackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

func parseTTL(value string) (time.Duration, error) {
	if value == "" {
		value = constants.DefaultCacheTTL
	}
	ttl, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid cache ttl %q: %w", value, err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("invalid cache ttl %q: must not be negative", value)
	}
	return ttl, nil
}

// Key derives a cache key from a namespace and the canonical request bytes.
func Key(namespace string, payload []byte) string {
	return namespace + ":" + strconv.FormatUint(xxhash.Sum64(payload), 16)
}
