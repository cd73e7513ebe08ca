// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

// Package config loads manifestd's process configuration from file,
// environment and defaults, layered through viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level manifestd configuration.
type Config struct {
	Lattice LatticeConfig `mapstructure:"lattice"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LatticeConfig identifies the default account/lattice scope this node
// handles requests for.
type LatticeConfig struct {
	AccountID string `mapstructure:"account_id"`
	LatticeID string `mapstructure:"lattice_id"`
}

// StoreBackend selects the ModelStore/StatusReader implementation.
type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendRedis  StoreBackend = "redis"
)

// StoreConfig configures the ModelStore/StatusReader backend.
type StoreConfig struct {
	Backend StoreBackend `mapstructure:"backend"`
	Redis   RedisConfig  `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings for the Redis-backed store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig configures the zap-backed logr logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig configures the Prometheus metrics endpoint used only for
// scraping; it is not an HTTP API surface for this core.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads configuration from configPath (if non-empty), environment
// variables, and defaults, in that order of increasing precedence for
// explicit values and decreasing precedence for defaults.
func Load(configPath string) (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("WADM")

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("lattice.lattice_id", "default")
	viper.SetDefault("store.backend", "memory")
	viper.SetDefault("store.redis.addr", "localhost:6379")
	viper.SetDefault("store.redis.db", 0)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.addr", ":9090")
}

// Validate checks invariants of a loaded Config.
func (c *Config) Validate() error {
	if c.Lattice.LatticeID == "" {
		return fmt.Errorf("lattice.lattice_id must not be empty")
	}
	switch c.Store.Backend {
	case StoreBackendMemory, StoreBackendRedis:
	default:
		return fmt.Errorf("invalid store.backend: %s (must be 'memory' or 'redis')", c.Store.Backend)
	}
	if c.Store.Backend == StoreBackendRedis && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr is required when store.backend is 'redis'")
	}
	return nil
}
