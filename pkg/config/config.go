// Package config loads application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates the configuration of every subsystem.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Jobs     JobsConfig
	Notify   NotifyConfig
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Name string
	Env  string
}

// IsProduction reports whether the app runs in production mode.
func (a AppConfig) IsProduction() bool { return a.Env == "production" }

// IsTest reports whether the app runs in test mode. Background processing
// stays inert in test mode and must be driven manually.
func (a AppConfig) IsTest() bool { return a.Env == "test" }

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "maix"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		Jobs:     loadJobsConfig(),
		Notify:   loadNotifyConfig(),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
