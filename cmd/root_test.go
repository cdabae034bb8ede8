package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/model"
)

// execute runs the root command with args and an empty config file
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("log:\n  level: error\n"), 0o644))

	root := RootCommand(&conf.Settings{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", configFile}, args...))

	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestConfigDumpPrecedence(t *testing.T) {
	t.Setenv("ESC50_DATA_FORMAT", "flac")
	modelPath := filepath.Join(t.TempDir(), "esc50.json")

	out, err := execute(t, "-m", modelPath, "--epochs", "42", "config", "dump")
	require.NoError(t, err)

	assert.Contains(t, out, "path: "+modelPath)
	assert.Contains(t, out, "epochs: 42")
	assert.Contains(t, out, "format: flac")
	assert.Contains(t, out, "baseindex: 100")
}

func TestConfigDumpToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "saved", "config.yaml")

	out, err := execute(t, "config", "dump", "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "catalog: esc50.csv")
}

func TestInvalidSettingsFailBeforeRunning(t *testing.T) {
	_, err := execute(t, "--epochs", "0", "config", "dump")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "epochs must be positive")
}

func TestLabelsCommand(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, model.WriteArtifact(modelPath, &model.Artifact{Format: "esc50-softmax-v1", Model: json.RawMessage(`{}`)}))

	_, err := execute(t, "-m", modelPath, "labels")
	require.Error(t, err, "model without labels")

	require.NoError(t, model.SetAttr(modelPath, model.LabelsAttr, `["100 - Dog","105 - Cat"]`))
	out, err := execute(t, "-m", modelPath, "labels")
	require.NoError(t, err)
	assert.Equal(t, "  0  100 - Dog\n  1  105 - Cat\n", out)

	out, err = execute(t, "-m", modelPath, "labels", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "Format : esc50-softmax-v1")
}

func TestPredictWithoutModel(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "-m", filepath.Join(dir, "missing.json"), "predict", filepath.Join(dir, "clip.wav"))
	require.Error(t, err)
}

func TestPredictRequiresClip(t *testing.T) {
	_, err := execute(t, "predict")
	require.Error(t, err)
}

func TestVersionSkipsConfiguration(t *testing.T) {
	// an unreadable config would fail any other command
	root := RootCommand(&conf.Settings{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "version"})

	require.NoError(t, root.ExecuteContext(t.Context()))
	assert.Contains(t, out.String(), "esc50 ")
}
