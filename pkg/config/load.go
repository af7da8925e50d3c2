package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/job"
	"github.com/dmitrymomot/mailroom/pkg/spam"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables. ${VAR}
// references in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.ConnectionString == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	if _, err := email.ParseLanguage(c.Language); err != nil {
		errs = append(errs, fmt.Errorf("language: %w", err))
	}
	if !slices.Contains(c.Backends.Enabled(), c.Backends.Default) {
		errs = append(errs, fmt.Errorf("default backend %q is not configured", c.Backends.Default))
	}
	if err := job.ValidateSchedule(c.Sender.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("sender schedule: %w", err))
	}
	if err := job.ValidateSchedule(c.Cleaner.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("cleaner schedule: %w", err))
	}
	if _, err := spam.FromConfig(c.Spam); err != nil {
		errs = append(errs, fmt.Errorf("spam: %w", err))
	}
	if c.Inbound.Enabled && c.Redis.URL == "" {
		errs = append(errs, errors.New("inbound stream needs a redis url"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalid}, errs...)...)
	}
	return nil
}
