// Package features extracts clip feature vectors and caches the feature
// matrix and label vector on disk.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/dataset"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/logging"
	"github.com/tphakala/esc50-go/internal/myaudio"
	"github.com/tphakala/esc50-go/internal/progress"
	"golang.org/x/sync/errgroup"
)

// Matrix holds one feature vector per clip.
type Matrix [][]float64

// Extractor turns a per-class directory tree into aligned features and
// class indices. Class i is the i-th entry of dataset.ClassDirectories.
type Extractor interface {
	Extract(ctx context.Context, dataDir string) (Matrix, []int, error)
}

// SpectralExtractor summarises each clip with frame-level spectral statistics.
type SpectralExtractor struct {
	FrameSize int
	HopSize   int
	Bands     int
	Workers   int

	Progress *progress.Progress // optional
	Logger   *slog.Logger       // optional
}

// NewSpectralExtractor creates an extractor from feature settings.
func NewSpectralExtractor(settings *conf.FeatureSettings) *SpectralExtractor {
	return &SpectralExtractor{
		FrameSize: settings.FrameSize,
		HopSize:   settings.HopSize,
		Bands:     settings.Bands,
		Workers:   settings.ExtractionWorkers(),
	}
}

// clipJob is one clip to extract, in output order
type clipJob struct {
	path  string
	class int
}

// Extract walks the class directories of dataDir and extracts every
// supported clip. Rows follow class order and then clip name order,
// independent of the worker count. Any clip failure fails the extraction.
func (e *SpectralExtractor) Extract(ctx context.Context, dataDir string) (Matrix, []int, error) {
	if err := e.validate(); err != nil {
		return nil, nil, err
	}
	logger := e.logger()

	jobs, classes, err := listClips(dataDir)
	if err != nil {
		return nil, nil, err
	}
	if len(jobs) == 0 {
		return nil, nil, errors.New(fmt.Errorf("no audio clips found in %s", dataDir)).
			Component("features").
			Category(errors.CategoryFeatureExtraction).
			Context("class_dirs", len(classes)).
			Build()
	}

	logger.Info("extracting features",
		"clips", len(jobs),
		"classes", len(classes),
		"workers", e.Workers)

	bar := e.Progress.Bar("Extracting features", len(jobs))
	defer bar.Done()

	features := make(Matrix, len(jobs))
	labels := make([]int, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.Workers, 1))

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, err := e.ExtractFile(gctx, job.path)
			if err != nil {
				return err
			}
			features[i] = vec
			labels[i] = job.class
			bar.Increment()
			logging.Trace(logger, "clip features extracted", "clip", job.path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, nil, errors.New(ctx.Err()).
				Component("features").
				Category(errors.CategoryCancellation).
				Build()
		}
		return nil, nil, err
	}

	return features, labels, nil
}

// ExtractFile decodes one clip and returns its feature vector.
func (e *SpectralExtractor) ExtractFile(ctx context.Context, path string) ([]float64, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples, err := myaudio.DecodeFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("features").
			Category(errors.CategoryFeatureExtraction).
			Build()
	}

	vec, err := newAnalyzer(e.FrameSize, e.HopSize, e.Bands).Vector(samples)
	if err != nil {
		return nil, errors.New(err).
			Component("features").
			Category(errors.CategoryFeatureExtraction).
			FileContext(path).
			Build()
	}
	return vec, nil
}

func (e *SpectralExtractor) validate() error {
	switch {
	case e.FrameSize < 2 || e.FrameSize&(e.FrameSize-1) != 0:
		return errors.ValidationError(fmt.Sprintf("frame size must be a power of two, got %d", e.FrameSize))
	case e.HopSize <= 0:
		return errors.ValidationError(fmt.Sprintf("hop size must be positive, got %d", e.HopSize))
	case e.Bands <= 0:
		return errors.ValidationError(fmt.Sprintf("band count must be positive, got %d", e.Bands))
	}
	return nil
}

func (e *SpectralExtractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logging.ForService("features")
}

// listClips returns the clips of every class directory in extraction order
func listClips(dataDir string) ([]clipJob, []string, error) {
	classes, err := dataset.ClassDirectories(dataDir)
	if err != nil {
		return nil, nil, err
	}

	var jobs []clipJob
	for class, dir := range classes {
		entries, err := os.ReadDir(filepath.Join(dataDir, dir))
		if err != nil {
			return nil, nil, errors.FileError(err, filepath.Join(dataDir, dir))
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || strings.HasPrefix(name, ".") || !myaudio.IsSupportedFile(name) {
				continue
			}
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			jobs = append(jobs, clipJob{path: filepath.Join(dataDir, dir, name), class: class})
		}
	}
	return jobs, classes, nil
}
