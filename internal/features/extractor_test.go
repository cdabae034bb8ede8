package features

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/logging"
	"github.com/tphakala/esc50-go/internal/myaudio"
)

func tone(freq float64, n, rate int) myaudio.Samples {
	data := make([]float64, n)
	for i := range data {
		data[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return myaudio.Samples{Data: data, SampleRate: rate}
}

func noise(n, rate int) myaudio.Samples {
	data := make([]float64, n)
	seed := uint32(1)
	for i := range data {
		seed = seed*1664525 + 1013904223
		data[i] = float64(seed)/float64(math.MaxUint32)*2 - 1
	}
	return myaudio.Samples{Data: data, SampleRate: rate}
}

func testExtractor(workers int) *SpectralExtractor {
	return &SpectralExtractor{FrameSize: 512, HopSize: 256, Bands: 16, Workers: workers, Logger: logging.Discard()}
}

// writeDataDir creates class directories with generated WAV clips
func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	clips := map[string][]myaudio.Samples{
		"105 - Cat": {tone(3000, 8000, 16000), tone(2500, 8000, 16000)},
		"100 - Dog": {tone(300, 8000, 16000), tone(350, 8000, 16000), tone(400, 6000, 16000)},
	}
	for class, list := range clips {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, class), 0o755))
		for i, s := range list {
			path := filepath.Join(dir, class, string(rune('a'+i))+".wav")
			require.NoError(t, myaudio.WriteWAV(path, s))
		}
	}
	// ignored entries
	require.NoError(t, os.WriteFile(filepath.Join(dir, "100 - Dog", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "100 - Dog", "z.ogg.temp"), []byte("x"), 0o644))
	return dir
}

func TestAnalyzerVector(t *testing.T) {
	a := newAnalyzer(1024, 512, 20)

	low, err := a.Vector(tone(200, 16000, 16000))
	require.NoError(t, err)
	require.Len(t, low, Dimension(20))

	high, err := a.Vector(tone(5000, 16000, 16000))
	require.NoError(t, err)

	// mean spectral centroid is the third descriptor, stored at index 4
	assert.Greater(t, high[4], low[4])
	// mean zero crossing rate at index 2
	assert.Greater(t, high[2], low[2])

	white, err := a.Vector(noise(16000, 16000))
	require.NoError(t, err)
	// flatness is higher for noise than for a pure tone
	assert.Greater(t, white[10], low[10])

	for _, v := range append(append(low, high...), white...) {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestAnalyzerShortAndEmpty(t *testing.T) {
	a := newAnalyzer(1024, 512, 8)

	vec, err := a.Vector(tone(440, 100, 8000))
	require.NoError(t, err)
	assert.Len(t, vec, Dimension(8))

	_, err = a.Vector(myaudio.Samples{SampleRate: 8000})
	require.Error(t, err)
	_, err = a.Vector(myaudio.Samples{Data: []float64{1}, SampleRate: 0})
	require.Error(t, err)
}

func TestBandEdgesCoverDistinctBins(t *testing.T) {
	edges := bandEdges(40, 1025, 44100.0/2048, 22050)
	require.Len(t, edges, 41)
	assert.GreaterOrEqual(t, edges[0], 1)
	for i := 1; i < len(edges); i++ {
		assert.Greater(t, edges[i], edges[i-1])
	}
	assert.LessOrEqual(t, edges[40], 1025)
}

func TestExtractIsDeterministic(t *testing.T) {
	dir := writeDataDir(t)

	f1, l1, err := testExtractor(1).Extract(t.Context(), dir)
	require.NoError(t, err)
	f4, l4, err := testExtractor(4).Extract(t.Context(), dir)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0, 1, 1}, l1, "class 0 is the first sorted directory")
	assert.Equal(t, l1, l4)
	assert.Equal(t, f1, f4)
	require.Len(t, f1, 5)
	for _, row := range f1 {
		assert.Len(t, row, Dimension(16))
	}
}

func TestExtractFailures(t *testing.T) {
	dir := writeDataDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "105 - Cat", "c.wav"), []byte("garbage"), 0o644))

	_, _, err := testExtractor(2).Extract(t.Context(), dir)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFeatureExtraction))

	_, _, err = testExtractor(1).Extract(t.Context(), t.TempDir())
	require.Error(t, err, "no clips")

	bad := testExtractor(1)
	bad.FrameSize = 1000
	_, _, err = bad.Extract(t.Context(), dir)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestExtractCancelled(t *testing.T) {
	dir := writeDataDir(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, _, err := testExtractor(2).Extract(ctx, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
