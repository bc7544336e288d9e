package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := New(WarningLevel, buffer)

	logger.Debug("hidden")
	logger.Infof("hidden %d", 1)
	logger.Warn("shown warn")
	logger.Errorf("shown %s", "error")
	require.NoError(t, logger.Flush())

	out := buffer.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "shown error")
	assert.Equal(t, WarningLevel, logger.LogLevel())
}

func TestMultipleOutputs(t *testing.T) {
	first := new(bytes.Buffer)
	second := new(bytes.Buffer)
	logger := New(InfoLevel, first, second)

	logger.Info("fan out")
	require.NoError(t, logger.Flush())

	assert.True(t, strings.Contains(first.String(), "fan out"))
	assert.True(t, strings.Contains(second.String(), "fan out"))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "WARNING", WarningLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
	assert.Equal(t, "FATAL", FatalLevel.String())
	assert.Equal(t, "", InvalidLevel.String())
}

func TestDiscardLogger(t *testing.T) {
	DiscardLogger.Debug("nothing")
	DiscardLogger.Infof("nothing %d", 1)
	require.NoError(t, DiscardLogger.Flush())
	assert.Equal(t, InvalidLevel, DiscardLogger.LogLevel())
}
