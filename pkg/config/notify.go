package config

import "time"

// NotifyConfig configures notification delivery.
type NotifyConfig struct {
	EmailProvider string
	EmailEnabled  bool
	FromAddress   string
	FromName      string
	AWSRegion     string
	SendTimeout   time.Duration
}

func loadNotifyConfig() NotifyConfig {
	return NotifyConfig{
		EmailProvider: getEnv("NOTIFY_EMAIL_PROVIDER", "console"),
		EmailEnabled:  getEnvBool("NOTIFY_EMAIL_ENABLED", true),
		FromAddress:   getEnv("NOTIFY_FROM_ADDRESS", "noreply@maix.org"),
		FromName:      getEnv("NOTIFY_FROM_NAME", "MAIX"),
		AWSRegion:     getEnv("NOTIFY_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
		SendTimeout:   getEnvDuration("NOTIFY_SEND_TIMEOUT", 10*time.Second),
	}
}
