// Package config loads and validates the ShadowAgent service configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"shadowagent/core"
)

// minJWTSecretLength is the minimum byte length accepted for the token
// signing key. HS256 with a short key is trivially brute-forceable.
const minJWTSecretLength = 32

// Config holds all configuration for the ShadowAgent service
type Config struct {
	API struct {
		Port           int      `mapstructure:"port"`
		TLS            bool     `mapstructure:"tls"`
		CertFile       string   `mapstructure:"cert_file"`
		KeyFile        string   `mapstructure:"key_file"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"api"`

	Auth struct {
		JWTSecret   string        `mapstructure:"jwt_secret"`
		TokenExpiry time.Duration `mapstructure:"token_expiry"`
	} `mapstructure:"auth"`

	Storage struct {
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"storage"`
}

// setDefaults registers default values for all configuration keys
func setDefaults() {
	viper.SetDefault("api.port", 8000)
	viper.SetDefault("api.tls", false)
	viper.SetDefault("api.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("auth.token_expiry", core.TokenExpiry)

	viper.SetDefault("storage.sqlite_path", "./data/shadowagent.db")
}

// loadFromEnv binds environment variable overrides. The signing key is
// expected to come from the environment in any real deployment.
func loadFromEnv() {
	viper.SetEnvPrefix("SHADOWAGENT")
	_ = viper.BindEnv("api.port", "SHADOWAGENT_API_PORT")
	_ = viper.BindEnv("auth.jwt_secret", "SHADOWAGENT_JWT_SECRET")
	_ = viper.BindEnv("auth.token_expiry", "SHADOWAGENT_TOKEN_EXPIRY")
	_ = viper.BindEnv("storage.sqlite_path", "SHADOWAGENT_SQLITE_PATH")
}

// LoadConfig reads configuration from config.yaml (if present), the
// environment, and defaults, then validates it.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()
	loadFromEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, will use defaults and env vars
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks invariants the rest of the process relies on. The signing
// key and token lifetime are read-only after startup, so failing here is the
// only chance to reject them.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set SHADOWAGENT_JWT_SECRET)")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes, got %d", minJWTSecretLength, len(c.Auth.JWTSecret))
	}
	if c.Auth.TokenExpiry <= 0 {
		return fmt.Errorf("auth.token_expiry must be positive, got %s", c.Auth.TokenExpiry)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be in 1-65535, got %d", c.API.Port)
	}
	if c.API.TLS && (c.API.CertFile == "" || c.API.KeyFile == "") {
		return fmt.Errorf("api.cert_file and api.key_file are required when api.tls is enabled")
	}
	return nil
}
