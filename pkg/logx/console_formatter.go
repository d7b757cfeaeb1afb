package logx

import (
	"fmt"
	"strings"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorWhite = "\033[97m"

	colorBoldRed    = "\033[1;31m"
	colorBoldYellow = "\033[1;33m"
	colorBoldCyan   = "\033[1;36m"
	colorBoldGreen  = "\033[1;32m"
)

// ConsoleFormatter formats logs for human-readable console output
type ConsoleFormatter struct {
	config *Config
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(config *Config) *ConsoleFormatter {
	return &ConsoleFormatter{config: config}
}

// Format formats a log entry for console output
func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	timestamp := formatTimestamp(entry.Timestamp, f.config.TimeFormat)
	f.colored(&b, colorGray, timestamp)
	b.WriteString(" ")

	b.WriteString(f.formatLevel(entry.Level))
	b.WriteString(" ")

	if f.config.EnableCaller && entry.Caller != "" {
		f.colored(&b, colorGray, "["+entry.Caller+"]")
		b.WriteString(" ")
	}

	f.colored(&b, colorWhite, entry.Message)

	if len(entry.Fields) > 0 {
		var kvs []string
		for k, v := range entry.Fields {
			kvs = append(kvs, fmt.Sprintf("%s=%v", k, v))
		}
		b.WriteString(" ")
		f.colored(&b, colorCyan, strings.Join(kvs, " "))
	}

	if entry.Error != nil {
		b.WriteString("\n")
		f.colored(&b, colorRed, "  error: "+entry.Error.Error())
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

func (f *ConsoleFormatter) colored(b *strings.Builder, color, s string) {
	if f.config.EnableColors {
		b.WriteString(color)
		b.WriteString(s)
		b.WriteString(colorReset)
		return
	}
	b.WriteString(s)
}

// formatLevel formats the level tag with its color
func (f *ConsoleFormatter) formatLevel(level Level) string {
	if !f.config.EnableColors {
		return fmt.Sprintf("[%s]", level.String())
	}

	switch level {
	case LevelDebug:
		return fmt.Sprintf("%s[DEBUG]%s", colorBoldCyan, colorReset)
	case LevelInfo:
		return fmt.Sprintf("%s[INFO ]%s", colorBoldGreen, colorReset)
	case LevelWarn:
		return fmt.Sprintf("%s[WARN ]%s", colorBoldYellow, colorReset)
	case LevelError, LevelFatal:
		return fmt.Sprintf("%s[%s]%s", colorBoldRed, level.String(), colorReset)
	default:
		return fmt.Sprintf("[%s]", level.String())
	}
}
