package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "1M", cfg.Server.BodyLimit)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)

	assert.Equal(t, "standard", cfg.System.Mode)
	assert.Equal(t, 1536, cfg.System.VecDim)
	assert.Equal(t, 4, cfg.System.CacheSegments)
	assert.Equal(t, 64, cfg.System.MaxActive)

	assert.False(t, cfg.Auth.APIKey.IsSet())
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window.Duration())
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)

	assert.Empty(t, cfg.Events.NATSURL)
	assert.Equal(t, "reductiond.events", cfg.Events.SubjectPrefix)

	assert.False(t, cfg.Observability.EnableTelemetry)
	assert.Equal(t, "reductiond", cfg.Observability.ServiceName)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	assert.Equal(t, 1.0, cfg.Observability.SampleRate)

	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"zero shutdown", func(c *Config) { c.Server.ShutdownTimeout = 0 }, "shutdown timeout"},
		{"unparsable body limit", func(c *Config) { c.Server.BodyLimit = "lots" }, "invalid body limit"},
		{"empty body limit", func(c *Config) { c.Server.BodyLimit = "" }, "invalid body limit"},
		{"body limit with unit suffix", func(c *Config) { c.Server.BodyLimit = "512KB" }, ""},
		{"negative system size", func(c *Config) { c.System.VecDim = -1 }, "cannot be negative"},
		{"rate limit without budget", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.MaxRequests = 0
		}, "max requests"},
		{"rate limit without window", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.Window = 0
		}, "window must be positive"},
		{"telemetry without service", func(c *Config) {
			c.Observability.EnableTelemetry = true
			c.Observability.ServiceName = ""
		}, "service name required"},
		{"bad sample rate", func(c *Config) { c.Observability.SampleRate = 2 }, "sample rate"},
		{"bad log format", func(c *Config) { c.Observability.LogFormat = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyDefaults_ModeAndOrigins(t *testing.T) {
	cfg := &Config{
		System: SystemConfig{Mode: "HYBRID"},
		Server: ServerConfig{CORSOrigins: []string{"http://a.test, http://b.test"}},
	}
	applyDefaults(cfg)

	assert.Equal(t, "hybrid", cfg.System.Mode)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.Addr())
}

func TestSecret(t *testing.T) {
	s := Secret("hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())
	assert.NotContains(t, strings.ToLower(s.GoString()), "hunter2")

	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(b))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())

	var parsed Secret
	require.NoError(t, parsed.UnmarshalText([]byte("raw")))
	assert.Equal(t, "raw", parsed.Value())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("30s")))
	assert.Equal(t, 30*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))

	text, err := Duration(time.Minute).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m0s", string(text))
}
