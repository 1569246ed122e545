// Package config reads the arcade settings from the environment.
//
// Every variable is prefixed with ARCADE_, e.g. ARCADE_LOG_LEVEL or
// ARCADE_REDIS_URL. A .env file in the working directory is loaded first
// when present; variables already set in the environment win.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/aretw0/arcade/pkg/persistence/middleware"
)

// Prefix is prepended to every environment variable name.
const Prefix = "ARCADE"

// Config holds the process-wide settings.
type Config struct {
	LogLevel string `split_words:"true" default:"info"`

	// DataPath points at a vgsales CSV. Empty uses the embedded sample.
	DataPath string `split_words:"true"`
	// CatalogDir is the Badger directory of an imported catalog. It takes
	// precedence over DataPath when set.
	CatalogDir string `split_words:"true"`
	// OntologyPath points at a JSON or YAML ontology. Empty uses the embedded one.
	OntologyPath string `split_words:"true"`

	Unknown           string  `default:"something"`
	MaxMisses         int     `split_words:"true" default:"3"`
	CaptureWords      int     `split_words:"true" default:"8"`
	RecommendAttempts int     `split_words:"true" default:"100"`
	MinSales          float64 `split_words:"true" default:"1"`

	// SessionKey is a base64 AES-256 key. When set, sessions are encrypted at rest.
	SessionKey string `split_words:"true"`
	// SessionFallbackKeys are older keys still accepted for reading.
	SessionFallbackKeys []string `split_words:"true"`

	Redis Redis
	HTTP  HTTP
}

// Redis configures the optional Redis session store.
type Redis struct {
	URL          string        `split_words:"true"`
	Prefix       string        `split_words:"true" default:"arcade:"`
	TTL          time.Duration `default:"24h"`
	ReadTimeout  time.Duration `split_words:"true" default:"3s"`
	WriteTimeout time.Duration `split_words:"true" default:"3s"`
	DialTimeout  time.Duration `split_words:"true" default:"5s"`
}

// HTTP configures the API server.
type HTTP struct {
	Port int `default:"8080"`
}

// Load reads the optional env files and then the environment.
// With no files given, ".env" is tried.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxMisses < 1 {
		errs = append(errs, fmt.Errorf("max misses must be positive, got %d", c.MaxMisses))
	}
	if c.CaptureWords < 0 {
		errs = append(errs, fmt.Errorf("capture words must not be negative, got %d", c.CaptureWords))
	}
	if c.RecommendAttempts < 1 {
		errs = append(errs, fmt.Errorf("recommend attempts must be positive, got %d", c.RecommendAttempts))
	}
	if c.MinSales < 0 {
		errs = append(errs, fmt.Errorf("min sales must not be negative, got %v", c.MinSales))
	}
	if c.SessionKey != "" {
		if _, _, err := c.EncryptionKeys(); err != nil {
			errs = append(errs, err)
		}
	} else if len(c.SessionFallbackKeys) > 0 {
		errs = append(errs, errors.New("session fallback keys require a session key"))
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http port out of range: %d", c.HTTP.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// EncryptionKeys decodes the session keys. It returns a nil active key when
// encryption is off.
func (c *Config) EncryptionKeys() (active []byte, fallback [][]byte, err error) {
	if c.SessionKey == "" {
		return nil, nil, nil
	}
	if active, err = middleware.ParseKey(c.SessionKey); err != nil {
		return nil, nil, fmt.Errorf("session key: %w", err)
	}
	for i, k := range c.SessionFallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("session fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

// Enabled reports whether a Redis URL was configured.
func (r Redis) Enabled() bool {
	return r.URL != ""
}

// NewClient connects to Redis and pings it.
func (r Redis) NewClient(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.ReadTimeout = r.ReadTimeout
	opts.WriteTimeout = r.WriteTimeout
	opts.DialTimeout = r.DialTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}
