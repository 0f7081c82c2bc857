package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment keys
const (
	EnvAPIKey   = "ZYTE_API_KEY"
	EnvEndpoint = "ZYTE_API_URL"
	EnvTimeout  = "ZYTE_TIMEOUT"
	EnvLogLevel = "LOG_LEVEL"
)

// Defaults
const (
	DefaultEndpoint = "https://api.zyte.com/v1/extract"
	DefaultTimeout  = 120 * time.Second
	DefaultLogLevel = "INFO"

	ServiceName    = "zyte-fetch-page-content"
	ServiceVersion = "1.0.0"
)

// Config is the immutable process configuration, read once at startup and
// injected into the components that need it.
type Config struct {
	// APIKey may be empty: every tool call then reports a config error.
	APIKey        string
	Endpoint      string        `validate:"required,url"`
	Timeout       time.Duration `validate:"gte=1s"`
	LogLevel      string
	ServerName    string `validate:"required"`
	ServerVersion string `validate:"required"`
}

// HasCredential reports whether an API key is configured
func (c Config) HasCredential() bool {
	return c.APIKey != ""
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Endpoint:      DefaultEndpoint,
		Timeout:       DefaultTimeout,
		LogLevel:      DefaultLogLevel,
		ServerName:    ServiceName,
		ServerVersion: ServiceVersion,
	}
}

// NewViper returns a viper instance bound to the process environment
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(EnvAPIKey, "")
	v.SetDefault(EnvEndpoint, DefaultEndpoint)
	v.SetDefault(EnvTimeout, DefaultTimeout)
	v.SetDefault(EnvLogLevel, DefaultLogLevel)

	return v
}

// NewConfig reads and validates the configuration from v
func NewConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		APIKey:        v.GetString(EnvAPIKey),
		Endpoint:      strings.TrimSpace(v.GetString(EnvEndpoint)),
		Timeout:       timeoutFrom(v),
		LogLevel:      v.GetString(EnvLogLevel),
		ServerName:    ServiceName,
		ServerVersion: ServiceVersion,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// timeoutFrom reads ZYTE_TIMEOUT. A bare number is a count of seconds;
// anything else must be a Go duration string such as "90s".
func timeoutFrom(v *viper.Viper) time.Duration {
	raw := strings.TrimSpace(v.GetString(EnvTimeout))
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return v.GetDuration(EnvTimeout)
}

// Validate checks field constraints. A missing API key is not an error.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
