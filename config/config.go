// Package config loads rentd settings from defaults, an optional config file
// and RENT_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Reporting ReportingConfig `mapstructure:"reporting"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ReportingConfig selects the reporting currency and the company whose
// rate curves convert into it.
type ReportingConfig struct {
	Currency  string `mapstructure:"currency"`
	CompanyID int64  `mapstructure:"company_id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and env. Env var overrides use prefix
// RENT_, with "." replaced by "_" (RENT_SERVER_PORT, RENT_DATABASE_PATH, ...).
// RENT_CONFIG points at an explicit config file; otherwise ./rent.{toml,yaml,json}
// is read when present.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "./rent.db")
	v.SetDefault("reporting.currency", "USD")
	v.SetDefault("reporting.company_id", 1)
	v.SetDefault("log.level", "info")

	if cfgPath := os.Getenv("RENT_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("rent")
	}

	v.SetEnvPrefix("RENT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Reporting.Currency == "" {
		return fmt.Errorf("reporting.currency is required")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
