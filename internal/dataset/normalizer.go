package dataset

import (
	"context"
	"iter"
	"log/slog"
	"path/filepath"

	"github.com/tphakala/esc50-go/internal/catalog"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/logging"
	"github.com/tphakala/esc50-go/internal/myaudio"
	"github.com/tphakala/esc50-go/internal/observability/metrics"
	"github.com/tphakala/esc50-go/internal/progress"
)

// Normalizer builds the per-class clip tree from catalog records.
type Normalizer struct {
	BaseIndex  int                // added to each record's target index
	AudioDir   string             // source clips
	OutputDir  string             // per-class output root
	Format     string             // output clip extension
	Transcoder myaudio.Transcoder // converts one source clip into OutputDir

	Metrics  metrics.Recorder  // optional
	Progress progress.Reporter // optional
	Logger   *slog.Logger      // optional, defaults to the dataset service logger
}

// Outcome is the result of processing one catalog record.
type Outcome struct {
	Record     catalog.Record
	ClassDir   string // absolute class directory, empty if the record was malformed
	Clip       string // destination clip path
	Created    bool   // the class directory was created
	Transcoded bool   // the transcoder ran and succeeded
	Err        error  // non-nil if the record was skipped
}

// Stats summarises one normalization run.
type Stats struct {
	Records    int // catalog lines after the header
	Malformed  int // lines that failed to parse
	Failed     int // well-formed records whose clip could not be produced
	Transcoded int // clips written by this run
	Existing   int // clips already present
	ClassDirs  int // distinct class directories seen
	Created    int // class directories created by this run
}

// Normalize processes every record. A failing record is logged at debug level
// and skipped. Only a catalog read failure or context cancellation stops
// the run early.
func (n *Normalizer) Normalize(ctx context.Context, records iter.Seq2[catalog.Record, error]) (Stats, error) {
	logger := n.logger()
	rec := metrics.OrNop(n.Metrics)
	bar := progress.OrNop(n.Progress)
	defer bar.Done()

	var stats Stats
	classDirs := make(map[string]struct{})

	for record, err := range records {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, errors.New(ctxErr).
				Component("dataset").
				Category(errors.CategoryCancellation).
				Build()
		}

		var lineErr *catalog.LineError
		if err != nil && !errors.As(err, &lineErr) {
			return stats, err
		}

		stats.Records++
		bar.Increment()

		outcome := n.process(ctx, record, err)
		if outcome.ClassDir != "" {
			classDirs[outcome.ClassDir] = struct{}{}
		}
		if outcome.Created {
			stats.Created++
		}

		switch {
		case lineErr != nil:
			stats.Malformed++
			rec.RecordOperation(metrics.OpCatalogRecord, "malformed")
			logger.Debug("skipping malformed catalog line", "line", lineErr.Line, "error", lineErr.Err)
		case outcome.Err != nil:
			stats.Failed++
			rec.RecordOperation(metrics.OpCatalogRecord, "failed")
			logger.Debug("skipping catalog record", recordErrorAttrs(record, outcome.Err)...)
		case outcome.Transcoded:
			stats.Transcoded++
			rec.RecordOperation(metrics.OpCatalogRecord, "transcoded")
		default:
			stats.Existing++
			rec.RecordOperation(metrics.OpCatalogRecord, "existing")
		}
	}

	stats.ClassDirs = len(classDirs)
	logger.Info("dataset normalized",
		"records", stats.Records,
		"transcoded", stats.Transcoded,
		"existing", stats.Existing,
		"malformed", stats.Malformed,
		"failed", stats.Failed,
		"class_dirs", stats.ClassDirs)

	return stats, nil
}

// Process handles a single record: create its class directory and
// transcode the clip unless it is already present.
func (n *Normalizer) Process(ctx context.Context, record catalog.Record) Outcome {
	return n.process(ctx, record, nil)
}

func (n *Normalizer) process(ctx context.Context, record catalog.Record, parseErr error) Outcome {
	outcome := Outcome{Record: record}
	if parseErr != nil {
		outcome.Err = parseErr
		return outcome
	}

	outcome.ClassDir = filepath.Join(n.OutputDir, ClassDirName(n.BaseIndex, record.Target, record.Category))
	created, err := ensureDir(outcome.ClassDir)
	if err != nil {
		outcome.Err = errors.New(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			Context("class_dir", outcome.ClassDir).
			Build()
		return outcome
	}
	outcome.Created = created
	if created {
		logging.Trace(n.logger(), "class directory created", "dir", outcome.ClassDir)
	}

	outcome.Clip = filepath.Join(outcome.ClassDir, ClipName(record.Filename, n.Format))
	if fileExists(outcome.Clip) {
		return outcome
	}

	source := filepath.Join(n.AudioDir, record.Filename)
	if !fileExists(source) {
		outcome.Err = errors.Newf("source clip %s not found", record.Filename).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(source).
			Build()
		return outcome
	}

	rec := metrics.OrNop(n.Metrics)
	if err := n.Transcoder.Transcode(ctx, source, outcome.Clip); err != nil {
		rec.RecordOperation(metrics.OpTranscode, "error")
		outcome.Err = errors.New(err).
			Component("dataset").
			Category(errors.CategoryTranscode).
			Context("clip", outcome.Clip).
			Build()
		return outcome
	}
	rec.RecordOperation(metrics.OpTranscode, "success")
	outcome.Transcoded = true

	return outcome
}

func (n *Normalizer) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return logging.ForService("dataset")
}

// recordErrorAttrs returns the log attributes of a failed record, including
// the component, category and context of enhanced errors.
func recordErrorAttrs(record catalog.Record, err error) []any {
	attrs := []any{"filename", record.Filename}
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return append(attrs, ee.LogAttrs()...)
	}
	return append(attrs, "error", err)
}
