// Package config loads server configuration with three layers of priority:
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse; yaml.v3 has
// no native support for duration strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full server configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
	Redis   RedisConfig   `yaml:"redis"`
	Gateway GatewayConfig `yaml:"gateway"`
	Auth    AuthConfig    `yaml:"auth"`
}

type HTTPConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// GatewayConfig configures the payment gateway collaborator. Secret is the
// shared HMAC key the callback signature is verified against.
type GatewayConfig struct {
	BaseURL  string   `yaml:"base_url"`
	KeyID    string   `yaml:"key_id"`
	Secret   string   `yaml:"secret"`
	Currency string   `yaml:"currency"`
	Timeout  Duration `yaml:"timeout"`
}

type AuthConfig struct {
	TokenTTL Duration `yaml:"token_ttl"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		SQLite:  SQLiteConfig{Path: "./data/storefront.db"},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Gateway: GatewayConfig{Currency: "INR", Timeout: Duration(5 * time.Second)},
		Auth:    AuthConfig{TokenTTL: Duration(24 * time.Hour)},
	}
}

// Load builds the configuration: Default, overlaid by the YAML file at path
// (skipped when path is empty), overlaid by environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.SQLite.Path = getEnv("SQLITE_PATH", cfg.SQLite.Path)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Gateway.BaseURL = getEnv("GATEWAY_BASE_URL", cfg.Gateway.BaseURL)
	cfg.Gateway.KeyID = getEnv("GATEWAY_KEY_ID", cfg.Gateway.KeyID)
	cfg.Gateway.Secret = getEnv("GATEWAY_SECRET", cfg.Gateway.Secret)
	cfg.Gateway.Currency = getEnv("GATEWAY_CURRENCY", cfg.Gateway.Currency)

	if cfg.Gateway.Secret == "" {
		return Config{}, fmt.Errorf("config: gateway secret is required (GATEWAY_SECRET)")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
