package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(format Format, level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{
		Level:        level,
		Format:       format,
		EnableColors: false,
		TimeFormat:   "unixmilli",
		Output:       &buf,
	})
	return logger, &buf
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger(FormatConsole, LevelWarn)

	logger.WithField("k", "v").Info("should be dropped")
	assert.Empty(t, buf.String())

	logger.WithField("k", "v").Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
	assert.Contains(t, buf.String(), "k=v")
}

func TestJSONFormat(t *testing.T) {
	logger, buf := newBufferedLogger(FormatJSON, LevelDebug)

	logger.WithFields(Fields{"jobId": "job_1", "attempts": 2}).Debug("processing")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "processing", entry["message"])
	assert.Equal(t, "job_1", entry["jobId"])
	assert.EqualValues(t, 2, entry["attempts"])
}

func TestWithErrorField(t *testing.T) {
	logger, buf := newBufferedLogger(FormatJSON, LevelInfo)

	logger.WithError(assert.AnError).Error("delivery failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, assert.AnError.Error(), entry["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}
