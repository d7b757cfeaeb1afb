package config

import "time"

// JobsConfig configures the in-memory notification job queue.
type JobsConfig struct {
	TickInterval       time.Duration
	MaxConcurrent      int
	RetryDelay         time.Duration
	DefaultMaxAttempts int
	CleanupAge         time.Duration
	CleanupInterval    time.Duration
}

func loadJobsConfig() JobsConfig {
	return JobsConfig{
		TickInterval:       getEnvDuration("JOBS_TICK_INTERVAL", 5*time.Second),
		MaxConcurrent:      getEnvInt("JOBS_MAX_CONCURRENT", 5),
		RetryDelay:         getEnvDuration("JOBS_RETRY_DELAY", 30*time.Second),
		DefaultMaxAttempts: getEnvInt("JOBS_DEFAULT_MAX_ATTEMPTS", 3),
		CleanupAge:         getEnvDuration("JOBS_CLEANUP_AGE", 24*time.Hour),
		CleanupInterval:    getEnvDuration("JOBS_CLEANUP_INTERVAL", time.Hour),
	}
}
