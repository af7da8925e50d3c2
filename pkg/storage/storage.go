package storage

import (
	"context"
	"io"
	"time"
)

// Storage keeps template images and resolves them to browsable URLs.
type Storage interface {
	// Put uploads an image under key. The content type is sniffed from the data.
	Put(ctx context.Context, key string, r io.Reader, size int64) (*FileInfo, error)

	// Get retrieves an object. The caller closes the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL when one is configured, a presigned one otherwise.
	URL(ctx context.Context, key string) (string, error)
}

// Drivers accepted by Config.Driver.
const (
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// Config holds object storage settings.
type Config struct {
	Driver    string `yaml:"driver" env:"STORAGE_DRIVER"`
	Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET"`
	AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`

	// Endpoint is a custom S3 endpoint, e.g. MinIO.
	Endpoint string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
	Region   string `yaml:"region" env:"STORAGE_REGION"`

	// PublicURL is a CDN prefix. When empty, URL presigns.
	PublicURL string `yaml:"public_url" env:"STORAGE_PUBLIC_URL"`

	URLExpiry    time.Duration `yaml:"url_expiry" env:"STORAGE_URL_EXPIRY"`
	MaxImageSize int64         `yaml:"max_image_size" env:"STORAGE_MAX_IMAGE_SIZE"`
	PathStyle    bool          `yaml:"path_style" env:"STORAGE_PATH_STYLE"`
}

// FileInfo describes a stored object.
type FileInfo struct {
	Key         string
	ContentType string
	Size        int64
}

// Default configuration values.
const (
	DefaultRegion       = "us-east-1"
	DefaultURLExpiry    = 15 * time.Minute
	DefaultMaxImageSize = 5 << 20
)

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Driver:       DriverS3,
		Region:       DefaultRegion,
		URLExpiry:    DefaultURLExpiry,
		MaxImageSize: DefaultMaxImageSize,
	}
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.URLExpiry <= 0 {
		c.URLExpiry = DefaultURLExpiry
	}
	if c.MaxImageSize <= 0 {
		c.MaxImageSize = DefaultMaxImageSize
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// Open builds the Storage selected by cfg.Driver.
func Open(cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", DriverS3:
		return New(cfg)
	case DriverMemory:
		return NewMemory(WithBaseURL(cfg.PublicURL), WithMaxImageSize(cfg.MaxImageSize)), nil
	default:
		return nil, ErrUnknownDriver
	}
}
