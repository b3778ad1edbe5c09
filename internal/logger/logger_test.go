package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelWarn, &buf)

	log.Info("SYSTEM", "hidden")
	log.Warn("SYSTEM", "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[SYSTEM]")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelDebug, &buf)

	log.LogKafka("PUBLISH", "price-quoted", "sent")
	log.LogPricing("QUOTE", "q-1", "nightly=120.00")

	out := buf.String()
	assert.Contains(t, out, "PUBLISH [price-quoted] sent")
	assert.Contains(t, out, "QUOTE q-1 nightly=120.00")
}

func TestFatalCallsExit(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelInfo, &buf)
	code := -1
	log.exit = func(c int) { code = c }

	log.Fatal("SERVER", "boom")

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "boom")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestSetFileMirrorsOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelInfo, &buf)
	path := filepath.Join(t.TempDir(), "service.log")

	require.NoError(t, log.SetFile(path))
	log.Info("CONFIG", "mirrored")
	require.NoError(t, log.SetFile(""))
	log.Info("CONFIG", "stdout only")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO  [CONFIG] mirrored")
	assert.NotContains(t, string(data), "stdout only")
	assert.Contains(t, buf.String(), "stdout only")

	assert.Error(t, log.SetFile(filepath.Join(t.TempDir(), "missing", "service.log")))
}
