package logx

import (
	"encoding/json"
	"time"
)

// JSONFormatter formats logs as one JSON object per line
type JSONFormatter struct {
	config *Config
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]interface{})

	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	switch f.config.TimeFormat {
	case "unix":
		data["timestamp"] = entry.Timestamp.Unix()
	case "unixmilli":
		data["timestamp"] = entry.Timestamp.UnixMilli()
	default:
		data["timestamp"] = entry.Timestamp.Format(time.RFC3339Nano)
	}

	if f.config.EnableCaller && entry.Caller != "" {
		data["caller"] = entry.Caller
	}

	for k, v := range entry.Fields {
		data[k] = v
	}

	if entry.Error != nil {
		data["error"] = entry.Error.Error()
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return append(bytes, '\n'), nil
}
