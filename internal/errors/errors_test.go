package errors

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	ClearErrorHooks()

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuildInheritsWrappedCategory(t *testing.T) {
	ClearErrorHooks()

	inner := New(fmt.Errorf("ffmpeg exited")).
		Component("myaudio").
		Category(CategoryTranscode).
		Build()
	outer := New(fmt.Errorf("normalize clip: %w", inner)).Build()

	assert.Equal(t, CategoryTranscode, outer.Category)
	assert.Equal(t, "myaudio", outer.Component)
	assert.True(t, IsCategory(outer, CategoryTranscode))
	assert.ErrorIs(t, outer, inner)
}

func TestDetectCategoryFromMessage(t *testing.T) {
	ClearErrorHooks()

	_, statErr := os.Stat("/definitely/not/here.wav")
	require.Error(t, statErr)

	ee := New(statErr).Build()
	assert.Equal(t, CategoryFileIO, ee.Category)
}

func TestFileContext(t *testing.T) {
	ClearErrorHooks()

	ee := New(fmt.Errorf("boom")).FileContext("/tmp/a/1-100032-A-0.WAV").Build()
	ctx := ee.GetContext()

	assert.Equal(t, "/tmp/a/1-100032-A-0.WAV", ctx["file_path"])
	assert.Equal(t, "wav", ctx["file_extension"])

	// GetContext returns a copy
	ctx["file_path"] = "changed"
	assert.Equal(t, "/tmp/a/1-100032-A-0.WAV", ee.GetContext()["file_path"])
}

func TestErrorHooks(t *testing.T) {
	ClearErrorHooks()
	t.Cleanup(ClearErrorHooks)

	var seen []ErrorCategory
	AddErrorHook(func(ee *EnhancedError) {
		seen = append(seen, ee.Category)
	})
	AddErrorHook(nil)

	New(fmt.Errorf("a")).Category(CategoryTraining).Build()
	ValidationError("b")

	assert.Equal(t, []ErrorCategory{CategoryTraining, CategoryValidation}, seen)
}

func TestLogAttrs(t *testing.T) {
	ClearErrorHooks()

	ee := New(fmt.Errorf("x")).Component("catalog").Category(CategoryCatalog).Context("line", 3).Build()
	attrs := ee.LogAttrs()

	require.Len(t, attrs, 8)
	assert.Equal(t, "component", attrs[2])
	assert.Equal(t, "catalog", attrs[3])
	assert.Contains(t, attrs, "line")
}
