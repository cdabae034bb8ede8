package features

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/logging"
	"github.com/tphakala/esc50-go/internal/npy"
	"github.com/tphakala/esc50-go/internal/observability/metrics"
)

// Store caches the feature matrix and label vector as two .npy files.
// When both files exist they are returned as stored, without checking
// them against the data directory.
type Store struct {
	FeaturePath string
	LabelPath   string
	Extractor   Extractor

	Metrics metrics.Recorder // optional
	Logger  *slog.Logger     // optional

	memoOnce sync.Once
	memo     *cache.Cache
}

// NewStore creates a Store for the given cache files.
func NewStore(featurePath, labelPath string, extractor Extractor) *Store {
	return &Store{FeaturePath: featurePath, LabelPath: labelPath, Extractor: extractor}
}

// cached is a decoded cache file pair
type cached struct {
	features Matrix
	labels   []int
}

// Load returns the cached features and labels, extracting and persisting
// them from dataDir when either cache file is missing. Extraction failures
// are returned as is and leave both cache files untouched.
func (s *Store) Load(ctx context.Context, dataDir string) (Matrix, []int, error) {
	logger := s.logger()
	rec := metrics.OrNop(s.Metrics)

	featInfo, featErr := os.Stat(s.FeaturePath)
	labelInfo, labelErr := os.Stat(s.LabelPath)

	if featErr == nil && labelErr == nil {
		rec.RecordOperation(metrics.OpFeatureCache, "hit")
		return s.readCache(featInfo, labelInfo)
	}

	rec.RecordOperation(metrics.OpFeatureCache, "miss")
	logger.Info("feature cache missing, extracting", "data_dir", dataDir, "features", s.FeaturePath, "labels", s.LabelPath)

	features, labels, err := s.Extractor.Extract(ctx, dataDir)
	if err != nil {
		return nil, nil, err
	}
	if len(features) != len(labels) {
		return nil, nil, errors.New(fmt.Errorf("extractor returned %d feature rows and %d labels", len(features), len(labels))).
			Component("features").
			Category(errors.CategoryFeatureExtraction).
			Build()
	}

	if err := npy.WriteMatrix(s.FeaturePath, features); err != nil {
		return nil, nil, err
	}
	if err := npy.WriteLabels(s.LabelPath, labels); err != nil {
		return nil, nil, err
	}

	logger.Info("feature cache written", "rows", len(features), "features", s.FeaturePath, "labels", s.LabelPath)
	return features, labels, nil
}

// readCache decodes both files, reusing an in-process copy while neither
// file has changed on disk
func (s *Store) readCache(featInfo, labelInfo os.FileInfo) (Matrix, []int, error) {
	memo := s.memoCache()
	key := fmt.Sprintf("%s:%d:%d|%s:%d:%d",
		s.FeaturePath, featInfo.Size(), featInfo.ModTime().UnixNano(),
		s.LabelPath, labelInfo.Size(), labelInfo.ModTime().UnixNano())

	if v, ok := memo.Get(key); ok {
		c := v.(cached)
		return cloneMatrix(c.features), slices.Clone(c.labels), nil
	}

	features, err := npy.ReadMatrix(s.FeaturePath)
	if err != nil {
		return nil, nil, err
	}
	labels, err := npy.ReadLabels(s.LabelPath)
	if err != nil {
		return nil, nil, err
	}

	memo.Flush()
	memo.Set(key, cached{features: features, labels: labels}, cache.NoExpiration)

	s.logger().Debug("feature cache loaded", "rows", len(features), "features", s.FeaturePath)
	return cloneMatrix(features), slices.Clone(labels), nil
}

func (s *Store) memoCache() *cache.Cache {
	s.memoOnce.Do(func() {
		// no cleanup interval, so no janitor goroutine
		s.memo = cache.New(cache.NoExpiration, 0)
	})
	return s.memo
}

func (s *Store) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.ForService("features")
}

func cloneMatrix(m Matrix) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = slices.Clone(row)
	}
	return out
}
