package config

import (
	"time"

	"github.com/dmitrymomot/mailroom/pkg/backend/graph"
	"github.com/dmitrymomot/mailroom/pkg/backend/resend"
	"github.com/dmitrymomot/mailroom/pkg/backend/ses"
	"github.com/dmitrymomot/mailroom/pkg/cache"
	"github.com/dmitrymomot/mailroom/pkg/db"
	"github.com/dmitrymomot/mailroom/pkg/inbound"
	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/redis"
	"github.com/dmitrymomot/mailroom/pkg/schedule"
	"github.com/dmitrymomot/mailroom/pkg/storage"
)

// Backend names.
const (
	BackendConsole = "console"
	BackendResend  = "resend"
	BackendSES     = "ses"
	BackendGraph   = "graph"
)

// Config is the whole mailroom configuration.
type Config struct {
	// Spam maps a kind name to the names of the checks run for it.
	Spam map[string][]string `yaml:"spam"`

	Server   ServerConfig   `yaml:"server"`
	Log      logger.Config  `yaml:"log"`
	Database db.Config      `yaml:"database"`
	Redis    redis.Config   `yaml:"redis"`
	Storage  storage.Config `yaml:"storage"`
	Cache    cache.Config   `yaml:"cache"`
	Render   RenderConfig   `yaml:"render"`
	Backends BackendsConfig `yaml:"backends"`
	Sender   SenderConfig   `yaml:"sender"`
	Cleaner  CleanerConfig  `yaml:"cleaner"`
	Inbound  InboundConfig  `yaml:"inbound"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// Language is the fallback language for kinds missing in the requested one.
	Language string `yaml:"language" env:"DEFAULT_LANGUAGE_CODE"`
}

// ServerConfig configures the HTTP server exposing health and metrics.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
}

// RenderConfig configures template rendering.
type RenderConfig struct {
	// Domain is the right-hand side of generated content and message ids.
	Domain string `yaml:"domain" env:"MAIL_DOMAIN"`
	Minify bool   `yaml:"minify" env:"RENDER_MINIFY"`
}

// BackendsConfig lists the delivery backends. Console is always available;
// the others are enabled by their credentials.
type BackendsConfig struct {
	Default     string        `yaml:"default" env:"EMAIL_BACKEND"`
	SendTimeout time.Duration `yaml:"send_timeout" env:"SEND_TIMEOUT"`
	Resend      resend.Config `yaml:"resend"`
	SES         ses.Config    `yaml:"ses"`
	Graph       graph.Config  `yaml:"graph"`
}

// Enabled returns the names of the backends that can be built.
func (b BackendsConfig) Enabled() []string {
	names := []string{BackendConsole}
	if b.Resend.APIKey != "" {
		names = append(names, BackendResend)
	}
	if b.SES.Region != "" {
		names = append(names, BackendSES)
	}
	if b.Graph.TenantID != "" && b.Graph.ClientID != "" && b.Graph.ClientSecret != "" && b.Graph.Sender != "" {
		names = append(names, BackendGraph)
	}
	return names
}

// SenderConfig configures the send loop.
type SenderConfig struct {
	Schedule      string        `yaml:"schedule" env:"SENDER_SCHEDULE"`
	OriginTimeout time.Duration `yaml:"origin_timeout" env:"ORIGIN_CHECK_TIMEOUT"`
}

// CleanerConfig configures the cleanup loop.
type CleanerConfig struct {
	Schedule string `yaml:"schedule" env:"CLEANER_SCHEDULE"`
}

// InboundConfig configures the Redis stream consumer. Requests can also
// arrive as jobs, which needs no configuration.
type InboundConfig struct {
	Stream  inbound.StreamConfig `yaml:"stream"`
	Enabled bool                 `yaml:"enabled" env:"INBOUND_ENABLED"`
}

// MetricsConfig configures the Prometheus sink.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE"`
	Path      string `yaml:"path" env:"METRICS_PATH"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log:      logger.DefaultConfig(),
		Database: db.DefaultConfig(),
		Redis:    redis.DefaultConfig(),
		Storage:  storage.DefaultConfig(),
		Cache:    cache.DefaultConfig(),
		Render:   RenderConfig{Domain: "mailroom.local"},
		Backends: BackendsConfig{
			Default:     BackendConsole,
			SendTimeout: 30 * time.Second,
		},
		Sender: SenderConfig{
			Schedule:      "@every 1m",
			OriginTimeout: 5 * time.Second,
		},
		Cleaner:  CleanerConfig{Schedule: "0 3 * * *"},
		Inbound:  InboundConfig{Stream: inbound.DefaultStreamConfig()},
		Metrics:  MetricsConfig{Namespace: "mailroom", Path: "/metrics"},
		Language: schedule.DefaultLanguage,
	}
}
