package shared

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(&buf, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "room", "abc")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "room=abc")

	_, err = SetupLogger(&buf, "loud")
	assert.Error(t, err)
}

func TestSetupStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupStructuredLogger(&buf, "info")
	require.NoError(t, err)
	logger.Info("room opened", "room", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "room opened", line["msg"])
	assert.Equal(t, "abc", line["room"])
}

func TestOpenLogFile(t *testing.T) {
	w, closeFn, err := OpenLogFile("")
	require.NoError(t, err)
	assert.NotNil(t, w)
	assert.NoError(t, closeFn())

	path := filepath.Join(t.TempDir(), "server.log")
	w, closeFn, err = OpenLogFile(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.NoError(t, closeFn())
	assert.FileExists(t, path)
}
