// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	// Server configuration
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	Model       string `mapstructure:"model"`
	Resolution  int    `mapstructure:"resolution"`
	Redis       string `mapstructure:"redis"`

	// CacheTTL bounds how long inpainting results stay cached
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Feature flags
	UseMockInference bool `mapstructure:"use_mock_inference"`
	// SerializeInference funnels engine calls through a mutex, for
	// inference runtimes that are not re-entrant
	SerializeInference bool `mapstructure:"serialize_inference"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("model", "migan_256.onnx")
	v.SetDefault("resolution", 256)
	v.SetDefault("redis", "localhost:6379")
	v.SetDefault("cache_ttl", "24h")
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("use_mock_inference", false)
	v.SetDefault("serialize_inference", false)
}

// Load loads configuration from environment variables and an optional config
// file. Priority (highest to lowest): env vars > config file > defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix("MIGAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also read OTEL standard env vars
	if otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); otelEndpoint != "" {
		v.Set("otel_endpoint", otelEndpoint)
		v.Set("otel_enabled", true)
	}

	// Bind specific environment variables
	v.BindEnv("port", "MIGAN_PORT")
	v.BindEnv("metrics_port", "MIGAN_METRICS_PORT")
	v.BindEnv("model", "MIGAN_MODEL")
	v.BindEnv("resolution", "MIGAN_RESOLUTION")
	v.BindEnv("redis", "MIGAN_REDIS")
	v.BindEnv("cache_ttl", "MIGAN_CACHE_TTL")
	v.BindEnv("otel_enabled", "MIGAN_OTEL_ENABLED")
	v.BindEnv("otel_endpoint", "MIGAN_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("use_mock_inference", "MIGAN_USE_MOCK")
	v.BindEnv("serialize_inference", "MIGAN_SERIALIZE_INFERENCE")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/migan-inpaint/")
	v.AddConfigPath("$HOME/.migan-inpaint")

	// Read config file if present (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; ignore
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithConfigFile loads configuration from a specific config file
func LoadWithConfigFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix("MIGAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read specific config file
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics_port must be different")
	}
	// The resolution is fixed per model artifact, never auto-detected;
	// 256 and 512 are the shipped configurations.
	if c.Resolution != 256 && c.Resolution != 512 {
		return fmt.Errorf("unsupported resolution %d (supported: 256, 512)", c.Resolution)
	}
	if c.Model == "" && !c.UseMockInference {
		return fmt.Errorf("model path is required when not using mock inference")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	return nil
}
