// Package pipeline runs the dataset, feature and model phases in order.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tphakala/esc50-go/internal/catalog"
	"github.com/tphakala/esc50-go/internal/classifier"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/dataset"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/features"
	"github.com/tphakala/esc50-go/internal/logging"
	"github.com/tphakala/esc50-go/internal/model"
	"github.com/tphakala/esc50-go/internal/myaudio"
	"github.com/tphakala/esc50-go/internal/observability"
	"github.com/tphakala/esc50-go/internal/observability/metrics"
	"github.com/tphakala/esc50-go/internal/progress"
)

// Phase names used in logs and the phase duration metric.
const (
	PhaseProcess  = "process"
	PhaseFeatures = "features"
	PhaseTraining = "training"
)

// Pipeline wires the collaborators of one run. New fills in the defaults;
// tests and callers may replace any collaborator before running.
type Pipeline struct {
	Settings *conf.Settings

	Transcoder myaudio.Transcoder
	Extractor  features.Extractor
	Trainer    model.Trainer
	Loader     model.Loader

	Metrics  *observability.Metrics
	Progress *progress.Progress
	Logger   *slog.Logger
	RunID    string
}

// Summary reports the timing and outcome of a run.
type Summary struct {
	RunID        string
	ProcessTime  time.Duration
	FeatureTime  time.Duration
	TrainingTime time.Duration

	Dataset dataset.Stats
	Samples int      // feature matrix rows
	Trained bool     // false when a cached model was reused
	Labels  []string // class list stamped on the model
}

// New creates a pipeline with the default collaborators for settings.
func New(settings *conf.Settings) (*Pipeline, error) {
	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	p := &Pipeline{
		Settings:   settings,
		Transcoder: myaudio.NewTranscoder(&settings.Audio, settings.Data.Format),
		Loader:     classifier.Loader{},
		Metrics:    m,
		Progress:   progress.New(settings.Progress, os.Stderr),
		Logger:     logging.ForService("pipeline").With("run_id", runID),
		RunID:      runID,
	}

	extractor := features.NewSpectralExtractor(&settings.Features)
	extractor.Progress = p.Progress
	extractor.Logger = logging.ForService("features").With("run_id", runID)
	p.Extractor = extractor

	trainer := classifier.NewTrainer(&settings.Model)
	trainer.Metrics = m.Pipeline
	trainer.Logger = logging.ForService("classifier").With("run_id", runID)
	p.Trainer = trainer

	return p, nil
}

// ObserveErrors counts every built error in the pipeline metrics. Hooks are
// process wide, so call it once from the command that owns the pipeline.
func (p *Pipeline) ObserveErrors() {
	if p.Metrics != nil {
		errors.AddErrorHook(p.Metrics.ErrorHook())
	}
}

// Prepare normalizes the ESC-50 catalog into the per-class data directory.
func (p *Pipeline) Prepare(ctx context.Context) (dataset.Stats, error) {
	s := p.Settings
	if err := os.MkdirAll(s.Data.Path, 0o755); err != nil {
		return dataset.Stats{}, errors.FileError(err, s.Data.Path)
	}

	reader, err := catalog.Open(s.MetaPath(), s.Dataset.Catalog)
	if err != nil {
		return dataset.Stats{}, err
	}
	defer reader.Close()

	n := &dataset.Normalizer{
		BaseIndex:  s.Dataset.BaseIndex,
		AudioDir:   s.AudioPath(),
		OutputDir:  s.Data.Path,
		Format:     s.Data.Format,
		Transcoder: p.Transcoder,
		Metrics:    p.recorder(),
		Progress:   p.Progress.Bar("Normalizing dataset", 0),
		Logger:     logging.ForService("dataset").With("run_id", p.RunID),
	}

	p.Logger.Info("normalizing dataset", "catalog", reader.Path(), "output", s.Data.Path)
	return n.Normalize(ctx, reader.Records())
}

// Features returns the cached feature matrix and labels, extracting them
// from the data directory when the cache is incomplete.
func (p *Pipeline) Features(ctx context.Context) (features.Matrix, []int, error) {
	s := p.Settings
	store := features.NewStore(s.Features.Path, s.Features.LabelPath, p.Extractor)
	store.Metrics = p.recorder()
	store.Logger = logging.ForService("features").With("run_id", p.RunID)
	return store.Load(ctx, s.Data.Path)
}

// Train loads or trains the model and stamps the current class list on it.
func (p *Pipeline) Train(ctx context.Context, feats features.Matrix, labels []int) (*model.Result, error) {
	s := p.Settings
	store := &model.Store{
		Path:    s.Model.Path,
		Epochs:  s.Model.Epochs,
		Trainer: p.Trainer,
		Loader:  p.Loader,
		Logger:  logging.ForService("model").With("run_id", p.RunID),
	}
	return store.Get(ctx, feats, labels, s.Data.Path)
}

// Run executes the three phases in order and times each one. A failing
// phase stops the run; the durations measured so far are still returned.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: p.RunID}
	p.Logger.Info("pipeline started",
		"esc50", p.Settings.Dataset.Path,
		"data", p.Settings.Data.Path,
		"model", p.Settings.Model.Path)

	var err error
	summary.ProcessTime, err = p.timed(PhaseProcess, func() error {
		stats, err := p.Prepare(ctx)
		summary.Dataset = stats
		return err
	})
	if err != nil {
		return summary, err
	}

	var feats features.Matrix
	var labels []int
	summary.FeatureTime, err = p.timed(PhaseFeatures, func() error {
		var err error
		feats, labels, err = p.Features(ctx)
		return err
	})
	if err != nil {
		return summary, err
	}
	summary.Samples = len(feats)

	summary.TrainingTime, err = p.timed(PhaseTraining, func() error {
		res, err := p.Train(ctx, feats, labels)
		if err != nil {
			return err
		}
		summary.Trained = res.Trained
		summary.Labels = res.Labels
		return nil
	})
	if err != nil {
		return summary, err
	}

	p.Logger.Info("pipeline finished",
		"process_time", summary.ProcessTime,
		"feature_time", summary.FeatureTime,
		"training_time", summary.TrainingTime)
	return summary, nil
}

// Finish waits for progress bars to complete and writes the metrics file
// when one is configured.
func (p *Pipeline) Finish() error {
	p.Progress.Wait()

	if p.Metrics == nil || p.Settings.Metrics.File == "" {
		return nil
	}
	if err := p.Metrics.WriteToFile(p.Settings.Metrics.File); err != nil {
		return err
	}
	p.Logger.Debug("metrics written", "file", p.Settings.Metrics.File)
	return nil
}

// timed runs fn and records its duration under phase
func (p *Pipeline) timed(phase string, fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	p.recorder().RecordDuration(phase, elapsed.Seconds())
	if err != nil {
		p.Logger.Error("phase failed", "phase", phase, "elapsed", elapsed, "error", err)
	} else {
		p.Logger.Debug("phase completed", "phase", phase, "elapsed", elapsed)
	}
	return elapsed, err
}

func (p *Pipeline) recorder() metrics.Recorder {
	if p.Metrics == nil {
		return metrics.NopRecorder{}
	}
	return p.Metrics.Pipeline
}

// PrintSummary writes the phase timings in seconds.
func PrintSummary(w io.Writer, s *Summary) error {
	_, err := fmt.Fprintf(w,
		"Summary\n=======\nESC-50 Process Time :  %s\nFeature Extraction  :  %s\nTraining Time       :  %s\n",
		seconds(s.ProcessTime), seconds(s.FeatureTime), seconds(s.TrainingTime))
	return err
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
