package pipeline

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/esc50-go/internal/catalog"
	"github.com/tphakala/esc50-go/internal/classifier"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/features"
	"github.com/tphakala/esc50-go/internal/inference"
	"github.com/tphakala/esc50-go/internal/logging"
	"github.com/tphakala/esc50-go/internal/model"
	"github.com/tphakala/esc50-go/internal/myaudio"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func tone(freq float64) myaudio.Samples {
	data := make([]float64, 4000)
	for i := range data {
		data[i] = 0.4 * math.Sin(2*math.Pi*freq*float64(i)/8000)
	}
	return myaudio.Samples{Data: data, SampleRate: 8000}
}

// testSettings creates an ESC-50 tree with two dog and two cat clips
func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	root := t.TempDir()
	esc50 := filepath.Join(root, "ESC-50")
	require.NoError(t, os.MkdirAll(filepath.Join(esc50, "audio"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(esc50, "meta"), 0o755))

	lines := []string{
		"filename,fold,target,category,esc10,src_file,take",
		"1-100032-A-0.wav,1,0,dog,True,100032,A",
		"1-110389-A-0.wav,1,0,dog,True,110389,A",
		"this line is malformed",
		"1-47819-A-5.wav,1,5,cat,False,47819,A",
		"1-47819-B-5.wav,1,5,cat,False,47819,B",
	}
	require.NoError(t, os.WriteFile(filepath.Join(esc50, "meta", catalog.DefaultFileName),
		[]byte(strings.Join(lines, "\n")+"\n"), 0o644))

	clips := map[string]float64{
		"1-100032-A-0.wav": 300,
		"1-110389-A-0.wav": 320,
		"1-47819-A-5.wav":  2400,
		"1-47819-B-5.wav":  2600,
	}
	for name, freq := range clips {
		require.NoError(t, myaudio.WriteWAV(filepath.Join(esc50, "audio", name), tone(freq)))
	}

	return &conf.Settings{
		Dataset: conf.DatasetSettings{Path: esc50, AudioDir: "audio", MetaDir: "meta", Catalog: catalog.DefaultFileName, BaseIndex: 100},
		Data:    conf.DataSettings{Path: filepath.Join(root, "data"), Format: "wav"},
		Features: conf.FeatureSettings{
			Path:      filepath.Join(root, "feat.npy"),
			LabelPath: filepath.Join(root, "label.npy"),
			Workers:   2,
			FrameSize: 256,
			HopSize:   128,
			Bands:     8,
		},
		Model:   conf.ModelSettings{Path: filepath.Join(root, "model.json"), Epochs: 150, LearningRate: 0.5, LogInterval: 50},
		Metrics: conf.MetricsSettings{File: filepath.Join(root, "metrics", "esc50.prom")},
	}
}

func newTestPipeline(t *testing.T, settings *conf.Settings) *Pipeline {
	t.Helper()
	p, err := New(settings)
	require.NoError(t, err)

	// no ffmpeg in tests
	p.Transcoder = myaudio.WAVTranscoder{}
	p.Logger = logging.Discard()
	p.Extractor.(*features.SpectralExtractor).Logger = logging.Discard()
	p.Trainer.(*classifier.Trainer).Logger = logging.Discard()
	return p
}

func TestRunEndToEnd(t *testing.T) {
	settings := testSettings(t)
	p := newTestPipeline(t, settings)

	summary, err := p.Run(t.Context())
	require.NoError(t, err)
	require.NoError(t, p.Finish())

	assert.Equal(t, 5, summary.Dataset.Records)
	assert.Equal(t, 1, summary.Dataset.Malformed)
	assert.Equal(t, 4, summary.Dataset.Transcoded)
	assert.Equal(t, 4, summary.Samples)
	assert.True(t, summary.Trained)
	assert.Equal(t, []string{"100 - Dog", "105 - Cat"}, summary.Labels)
	assert.NotEmpty(t, summary.RunID)

	for _, f := range []string{
		filepath.Join(settings.Data.Path, "100 - Dog", "1-100032-A-0.wav"),
		filepath.Join(settings.Data.Path, "105 - Cat", "1-47819-B-5.wav"),
		settings.Features.Path,
		settings.Features.LabelPath,
		settings.Model.Path,
		settings.Metrics.File,
	} {
		assert.FileExists(t, f)
	}

	prom, err := os.ReadFile(settings.Metrics.File)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `esc50_feature_cache_total{result="miss"} 1`)
	assert.Contains(t, string(prom), "esc50_training_epochs_total 150")

	// the saved model classifies a training clip by name
	predictor, err := inference.Load(classifier.Loader{}, settings.Model.Path)
	require.NoError(t, err)
	vec, err := p.Extractor.(*features.SpectralExtractor).ExtractFile(t.Context(),
		filepath.Join(settings.Data.Path, "105 - Cat", "1-47819-A-5.wav"))
	require.NoError(t, err)
	top, err := predictor.Top(vec, 1)
	require.NoError(t, err)
	assert.Equal(t, "105 - Cat", top[0].Label)
}

func TestSecondRunReusesEverything(t *testing.T) {
	settings := testSettings(t)

	first := newTestPipeline(t, settings)
	_, err := first.Run(t.Context())
	require.NoError(t, err)
	require.NoError(t, first.Finish())

	featBefore, err := os.ReadFile(settings.Features.Path)
	require.NoError(t, err)

	// a new class directory appears between runs
	require.NoError(t, os.MkdirAll(filepath.Join(settings.Data.Path, "101 - Rooster"), 0o755))

	second := newTestPipeline(t, settings)
	summary, err := second.Run(t.Context())
	require.NoError(t, err)
	require.NoError(t, second.Finish())

	assert.Equal(t, 0, summary.Dataset.Transcoded)
	assert.Equal(t, 4, summary.Dataset.Existing)
	assert.False(t, summary.Trained)

	featAfter, err := os.ReadFile(settings.Features.Path)
	require.NoError(t, err)
	assert.Equal(t, featBefore, featAfter)

	// cached model, but the label stamp follows the current directory listing
	labels, err := model.LoadLabels(settings.Model.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"100 - Dog", "101 - Rooster", "105 - Cat"}, labels)
}

func TestRunStopsOnMissingCatalog(t *testing.T) {
	settings := testSettings(t)
	require.NoError(t, os.Remove(filepath.Join(settings.MetaPath(), catalog.DefaultFileName)))

	p := newTestPipeline(t, settings)
	summary, err := p.Run(t.Context())
	require.Error(t, err)
	require.NoError(t, p.Finish())

	assert.Zero(t, summary.FeatureTime)
	assert.NoFileExists(t, settings.Features.Path)
	assert.NoFileExists(t, settings.Model.Path)
}

func TestRunCancelled(t *testing.T) {
	settings := testSettings(t)
	p := newTestPipeline(t, settings)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, p.Finish())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	err := PrintSummary(&buf, &Summary{
		ProcessTime:  1500 * time.Millisecond,
		FeatureTime:  2 * time.Second,
		TrainingTime: 250 * time.Microsecond,
	})
	require.NoError(t, err)

	assert.Equal(t, "Summary\n"+
		"=======\n"+
		"ESC-50 Process Time :  1.5\n"+
		"Feature Extraction  :  2\n"+
		"Training Time       :  0.00025\n", buf.String())
}
