package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a key-value cache with per-entry TTL.
// A zero TTL means the cache default. A negative TTL never expires.
type Cache[V any] interface {
	// Get returns ErrNotFound for missing and expired keys.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Drivers accepted by Config.Driver.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects and tunes the kind cache.
type Config struct {
	Driver     string        `yaml:"driver" env:"CACHE_DRIVER"`
	Prefix     string        `yaml:"prefix" env:"CACHE_PREFIX"`
	TTL        time.Duration `yaml:"ttl" env:"CACHE_TTL"`
	MaxEntries int           `yaml:"max_entries" env:"CACHE_MAX_ENTRIES"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Driver:     DriverMemory,
		Prefix:     "mailroom",
		TTL:        5 * time.Minute,
		MaxEntries: 1000,
	}
}

// Open builds the cache selected by cfg.Driver. The redis driver needs client.
func Open[V any](cfg Config, client redis.UniversalClient) (Cache[V], error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory[V](WithDefaultTTL(cfg.TTL), WithMaxEntries(cfg.MaxEntries)), nil
	case DriverRedis:
		if client == nil {
			return nil, ErrNoClient
		}
		return NewRedis[V](client, WithPrefix(cfg.Prefix), WithRedisTTL(cfg.TTL)), nil
	default:
		return nil, ErrUnknownDriver
	}
}

func encode[V any](v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func decode[V any](data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}
