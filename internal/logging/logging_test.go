package logging

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/esc50-go/internal/conf"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("TRACE"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("whatever"))
}

func TestInitConsoleAndFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "esc50.log")
	settings := &conf.Settings{
		Debug: true,
		Log:   conf.LogSettings{Level: "info", File: logFile, MaxSize: 1, MaxBackups: 1, MaxAge: 1},
	}

	var console bytes.Buffer
	closeFn, err := InitWithWriter(settings, &console)
	require.NoError(t, err)

	ForService("dataset").Debug("class directory created", "dir", "100 - Dog")
	Trace(Logger(), "not shown at debug level")

	require.NoError(t, closeFn())

	assert.Contains(t, console.String(), "service=dataset")
	assert.Contains(t, console.String(), "level=DEBUG")
	assert.NotContains(t, console.String(), "not shown")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"dataset"`)
	assert.Contains(t, string(data), `"dir":"100 - Dog"`)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(t.Context(), LevelFatal))
}

func TestFatalLogsAndExits(t *testing.T) {
	if os.Getenv("ESC50_TEST_FATAL") == "1" {
		Fatal("command failed", "error", "boom")
		return
	}

	// Fatal exits the process, so run it in a child test binary
	cmd := exec.Command(os.Args[0], "-test.run=^TestFatalLogsAndExits$")
	cmd.Env = append(os.Environ(), "ESC50_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, stderr.String(), "level=FATAL")
	assert.Contains(t, stderr.String(), `msg="command failed"`)
	assert.Contains(t, stderr.String(), "error=boom")
}
