package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvTimeout, "")
	t.Setenv(EnvLogLevel, "")

	// Empty variables count as unset.
	cfg, err := NewConfig(NewViper())
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, ServiceName, cfg.ServerName)
	assert.False(t, cfg.HasCredential())
}

func TestNewConfigFromEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "test-key")
	t.Setenv(EnvEndpoint, "http://127.0.0.1:8080/v1/extract")
	t.Setenv(EnvTimeout, "5s")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := NewConfig(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.True(t, cfg.HasCredential())
	assert.Equal(t, "http://127.0.0.1:8080/v1/extract", cfg.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewConfigTimeout(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "120", want: 120 * time.Second},
		{raw: " 30 ", want: 30 * time.Second},
		{raw: "1.5", want: 1500 * time.Millisecond},
		{raw: "90s", want: 90 * time.Second},
		{raw: "2m", want: 2 * time.Minute},
		{raw: "500ms", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv(EnvTimeout, tt.raw)

			cfg, err := NewConfig(NewViper())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Timeout)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "missing credential is valid", mutate: func(c *Config) { c.APIKey = "" }},
		{name: "relative endpoint", mutate: func(c *Config) { c.Endpoint = "/v1/extract" }, wantErr: true},
		{name: "empty endpoint", mutate: func(c *Config) { c.Endpoint = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
		{name: "sub-second timeout", mutate: func(c *Config) { c.Timeout = 120 * time.Nanosecond }, wantErr: true},
		{name: "one second timeout", mutate: func(c *Config) { c.Timeout = time.Second }},
		{name: "missing server name", mutate: func(c *Config) { c.ServerName = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
