// Package config loads the application configuration from file and
// environment, applies tagged defaults and validates the result.
package config

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/kochabx/authguard/log"
)

// Config manages application configuration.
type Config struct {
	mu       sync.RWMutex
	viper    *viper.Viper
	validate *validator.Validate
	target   any
	loader   Loader
	watch    bool
}

// Option configures a Config.
type Option func(*Config)

// WithViper sets a custom viper instance.
func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

// WithValidator sets a custom validator.
func WithValidator(v *validator.Validate) Option {
	return func(c *Config) {
		c.validate = v
	}
}

// WithLoader sets the configuration loader.
func WithLoader(loader Loader) Option {
	return func(c *Config) {
		c.loader = loader
	}
}

// WithWatch enables or disables automatic configuration watching.
func WithWatch(enable bool) Option {
	return func(c *Config) {
		c.watch = enable
	}
}

// New creates a Config for the given target. Without an explicit loader a
// FileLoader for "config.yaml" in the working directory is used.
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.New(),
		target:   target,
		watch:    true,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		c.loader = NewFileLoader("config.yaml", []string{"."}, c.viper, c.validate)
	}

	return c
}

// Load reads the configuration using the configured loader.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loader.Load(c.target)
}

// Reload reloads the configuration from the loader.
func (c *Config) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loader.Load(c.target)
}

// Watch sets up automatic configuration watching if enabled.
func (c *Config) Watch() error {
	if !c.watch {
		return nil
	}
	return c.loader.Watch(func() {
		log.Info().Msg("config change detected")

		if err := c.Reload(); err != nil {
			log.Error().Err(err).Msg("failed to reload config after change")
			return
		}

		log.Info().Msg("config reloaded successfully")
	})
}

// GetViper returns the underlying viper instance.
func (c *Config) GetViper() *viper.Viper {
	return c.viper
}
