package config

import "fmt"

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns the host:port pair for the Redis client.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvInt("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}
