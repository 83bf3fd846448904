package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Database.User = "ipclaim"
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "server port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "unknown server mode",
			mutate:  func(c *Config) { c.Server.Mode = "production" },
			wantErr: "server.mode",
		},
		{
			name:    "missing database user",
			mutate:  func(c *Config) { c.Database.User = "" },
			wantErr: "database.user",
		},
		{
			name:    "missing redis addr",
			mutate:  func(c *Config) { c.Redis.Addr = "" },
			wantErr: "redis.addr",
		},
		{
			name:    "empty kafka brokers",
			mutate:  func(c *Config) { c.Kafka.Brokers = nil },
			wantErr: "kafka.brokers",
		},
		{
			name:    "missing annotator base url",
			mutate:  func(c *Config) { c.Annotator.BaseURL = "" },
			wantErr: "annotator.base_url",
		},
		{
			name:    "non-positive chunk size",
			mutate:  func(c *Config) { c.Extraction.MaxChunkSize = -1 },
			wantErr: "extraction.max_chunk_size",
		},
		{
			name:    "unknown chunker length mode",
			mutate:  func(c *Config) { c.Chunker.LengthMode = "words" },
			wantErr: "chunker.length_mode",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
