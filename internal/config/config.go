// Package config provides configuration loading for reductiond.
//
// Configuration comes from an optional YAML file overridden by environment
// variables, then defaults fill anything left unset. See Load for details.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"
)

// Config holds the complete reductiond configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	System        SystemConfig        `koanf:"system"`
	Auth          AuthConfig          `koanf:"auth"`
	RateLimit     RateLimitConfig     `koanf:"ratelimit"`
	Events        EventsConfig        `koanf:"events"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	BodyLimit       string   `koanf:"body_limit"` // echo size string, e.g. "1M"
	CORSOrigins     []string `koanf:"cors_origins"`
}

// SystemConfig holds the deployment settings reported by the system health
// endpoint.
type SystemConfig struct {
	Mode          string `koanf:"mode"`
	VecDim        int    `koanf:"vec_dim"`
	CacheSegments int    `koanf:"cache_segments"`
	MaxActive     int    `koanf:"max_active"`
}

// AuthConfig holds API key authentication settings.
// An empty APIKey disables authentication.
type AuthConfig struct {
	APIKey Secret `koanf:"api_key"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled     bool     `koanf:"enabled"`
	Window      Duration `koanf:"window"`
	MaxRequests int      `koanf:"max_requests"`
}

// EventsConfig holds reduction event publishing settings.
// An empty NATSURL disables publishing.
type EventsConfig struct {
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ObservabilityConfig holds logging and OpenTelemetry settings.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	ServiceName     string  `koanf:"service_name"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol"` // "grpc" or "http/protobuf"
	Insecure        bool    `koanf:"insecure"`
	SampleRate      float64 `koanf:"sample_rate"`
	LogLevel        string  `koanf:"log_level"`
	LogFormat       string  `koanf:"log_format"`
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Body limit is not a size such as "512K" or "1M"
//   - Rate limiting is enabled without a positive window and request budget
//   - Telemetry is enabled without a service name or endpoint
//   - The log format is not json or console
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}

	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if _, err := bytes.Parse(c.Server.BodyLimit); err != nil {
		return fmt.Errorf("invalid body limit %q: %w", c.Server.BodyLimit, err)
	}

	if c.System.VecDim < 0 || c.System.CacheSegments < 0 || c.System.MaxActive < 0 {
		return errors.New("system sizes cannot be negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Window.Duration() <= 0 {
			return errors.New("rate limit window must be positive when rate limiting is enabled")
		}
		if c.RateLimit.MaxRequests < 1 {
			return fmt.Errorf("rate limit max requests must be >= 1, got %d", c.RateLimit.MaxRequests)
		}
	}

	if c.Observability.EnableTelemetry {
		if c.Observability.ServiceName == "" {
			return errors.New("service name required when telemetry is enabled")
		}
		if c.Observability.Endpoint == "" {
			return errors.New("telemetry endpoint required when telemetry is enabled")
		}
	}

	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1, got %v", c.Observability.SampleRate)
	}

	switch c.Observability.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be 'json' or 'console', got %q", c.Observability.LogFormat)
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = "1M"
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	cfg.System.Mode = strings.ToLower(cfg.System.Mode)
	if cfg.System.Mode == "" {
		cfg.System.Mode = "standard"
	}
	if cfg.System.VecDim == 0 {
		cfg.System.VecDim = 1536
	}
	if cfg.System.CacheSegments == 0 {
		cfg.System.CacheSegments = 4
	}
	if cfg.System.MaxActive == 0 {
		cfg.System.MaxActive = 64
	}

	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = Duration(time.Minute)
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 100
	}

	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "reductiond.events"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "reductiond"
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = "grpc"
	}
	if cfg.Observability.SampleRate == 0 {
		cfg.Observability.SampleRate = 1.0
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.LogFormat == "" {
		cfg.Observability.LogFormat = "json"
	}
}

// splitList flattens comma separated entries, which is how list values
// arrive from environment variables.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
