package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Registry RegistryConfig
	Prefetch PrefetchConfig
	Origin   OriginConfig
}

type ServerConfig struct {
	Port        int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout time.Duration `envconfig:"API_READ_TIMEOUT" default:"15s"`
	// WriteTimeout stays 0 (no limit): live streams hold the response open
	// for as long as the client keeps playing.
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"0"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
	PublicBaseURL   string        `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
}

type RegistryConfig struct {
	TTL        time.Duration `envconfig:"REGISTRY_TTL" default:"6h"`
	MaxEntries int           `envconfig:"REGISTRY_MAX_ENTRIES" default:"512"`
}

type PrefetchConfig struct {
	TTL         time.Duration `envconfig:"PREFETCH_TTL" default:"1h"`
	MaxEntries  int           `envconfig:"PREFETCH_MAX_ENTRIES" default:"64"`
	ChunkSize   int64         `envconfig:"PREFETCH_CHUNK_SIZE" default:"2097152"`
	WarmTimeout time.Duration `envconfig:"PREFETCH_WARM_TIMEOUT" default:"20s"`
}

type OriginConfig struct {
	APIBaseURL          string        `envconfig:"ORIGIN_API_URL"`
	TrustedSuffixes     []string      `envconfig:"ORIGIN_TRUSTED_SUFFIXES"`
	RequestTimeout      time.Duration `envconfig:"ORIGIN_REQUEST_TIMEOUT" default:"15s"`
	StreamHeaderTimeout time.Duration `envconfig:"ORIGIN_STREAM_HEADER_TIMEOUT" default:"15s"`
	MaxRedirects        int           `envconfig:"ORIGIN_MAX_REDIRECTS" default:"3"`
	TokenTTL            time.Duration `envconfig:"ORIGIN_TOKEN_TTL" default:"12h"`
	AllowInsecure       bool          `envconfig:"ORIGIN_ALLOW_INSECURE" default:"false"`
	DefaultVideoWidth   int           `envconfig:"DEFAULT_VIDEO_WIDTH" default:"1280"`
	DefaultVideoHeight  int           `envconfig:"DEFAULT_VIDEO_HEIGHT" default:"720"`
}

// minChunkSize keeps the warm buffer large enough to cover a player's
// opening probe reads.
const minChunkSize = 64 * 1024

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("API_PORT must be between 1 and 65535"))
	}
	if u, err := url.Parse(c.Server.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL"))
	}

	if c.Registry.TTL <= 0 {
		errs = append(errs, fmt.Errorf("REGISTRY_TTL must be positive"))
	}
	if c.Registry.MaxEntries < 1 {
		errs = append(errs, fmt.Errorf("REGISTRY_MAX_ENTRIES must be at least 1"))
	}

	if c.Prefetch.TTL <= 0 {
		errs = append(errs, fmt.Errorf("PREFETCH_TTL must be positive"))
	}
	if c.Prefetch.MaxEntries < 1 {
		errs = append(errs, fmt.Errorf("PREFETCH_MAX_ENTRIES must be at least 1"))
	}
	if c.Prefetch.ChunkSize < minChunkSize {
		errs = append(errs, fmt.Errorf("PREFETCH_CHUNK_SIZE must be at least %d bytes", minChunkSize))
	}
	if c.Prefetch.WarmTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PREFETCH_WARM_TIMEOUT must be positive"))
	}

	if c.Origin.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("ORIGIN_API_URL is required"))
	} else if u, err := url.Parse(c.Origin.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("ORIGIN_API_URL must be an absolute URL"))
	}
	if len(c.Origin.TrustedSuffixes) == 0 {
		errs = append(errs, fmt.Errorf("ORIGIN_TRUSTED_SUFFIXES is required"))
	}
	if c.Origin.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("ORIGIN_MAX_REDIRECTS cannot be negative"))
	}
	if c.Origin.DefaultVideoWidth < 1 || c.Origin.DefaultVideoHeight < 1 {
		errs = append(errs, fmt.Errorf("DEFAULT_VIDEO_WIDTH and DEFAULT_VIDEO_HEIGHT must be positive"))
	}

	return errors.Join(errs...)
}
