package mailroom

import (
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mailroom/pkg/backend"
	"github.com/dmitrymomot/mailroom/pkg/sender"
	"github.com/dmitrymomot/mailroom/pkg/storage"
	"github.com/dmitrymomot/mailroom/pkg/store"
)

// Option configures the App.
type Option func(*App)

// WithLogger sets the application logger.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithPool sets the PostgreSQL pool. It enables the durable store, the job
// runtime and the database readiness check.
func WithPool(pool *pgxpool.Pool) Option {
	return func(a *App) {
		if pool != nil {
			a.pool = pool
		}
	}
}

// WithRedis sets the Redis client used by the kind cache and the inbound
// stream consumer.
func WithRedis(client *goredis.Client) Option {
	return func(a *App) {
		if client != nil {
			a.redis = client
		}
	}
}

// WithStore overrides the store. Without it a pool is required.
func WithStore(s store.Store) Option {
	return func(a *App) {
		if s != nil {
			a.store = s
		}
	}
}

// WithImages overrides the image storage built from the configuration.
func WithImages(s storage.Storage) Option {
	return func(a *App) {
		if s != nil {
			a.images = s
		}
	}
}

// WithRegistry sets the prometheus registry metrics are recorded in and
// served from. Defaults to a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) {
		if reg != nil {
			a.registry = reg
		}
	}
}

// WithConsoleOutput sets where the console backend writes messages.
// Defaults to stdout.
func WithConsoleOutput(w io.Writer) Option {
	return func(a *App) {
		if w != nil {
			a.console = w
		}
	}
}

// WithBackend registers an extra delivery backend, or replaces a
// configured one with the same name.
func WithBackend(name string, t backend.Transport, i backend.Interpreter) Option {
	return func(a *App) {
		if name != "" && t != nil {
			a.extraBackends = append(a.extraBackends, namedBackend{name: name, transport: t, interpreter: i})
		}
	}
}

// WithOriginGate overrides the gate built from sender.origin_timeout.
func WithOriginGate(g sender.Gate) Option {
	return func(a *App) {
		if g != nil {
			a.gate = g
		}
	}
}
