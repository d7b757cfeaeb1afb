package logx

import (
	"fmt"
	"time"
)

// Formatter renders a log entry into bytes ready to be written.
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry represents a single log entry
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Timestamp time.Time
	Caller    string
}

// Fields is a map of structured data attached to an entry
type Fields map[string]interface{}

// formatTimestamp formats the timestamp based on the configured layout
func formatTimestamp(t time.Time, format string) string {
	switch format {
	case "unix":
		return fmt.Sprintf("%d", t.Unix())
	case "unixmilli":
		return fmt.Sprintf("%d", t.UnixMilli())
	default:
		return t.Format(format)
	}
}
