package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaults(t *testing.T) {
	l := NewLogger(Options{})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Options{Level: "debug", Format: "JSON", Out: &buf})
	require.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("season", "sum").Debug("simulation phase")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "simulation phase", entry["msg"])
	assert.Equal(t, "sum", entry["season"])
}

func TestNewLoggerUnknownLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Options{Level: "loud", Out: &buf})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.Contains(t, buf.String(), "unknown log level")
}
