package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/logging"
)

// Model is a trained classifier.
type Model interface {
	// Predict returns one probability per class for a feature vector.
	Predict(features []float64) ([]float64, error)
	// Save writes the model to path, replacing any existing file.
	Save(path string) error
}

// Trainer fits a new model on aligned features and class indices.
type Trainer interface {
	Train(ctx context.Context, features [][]float64, labels []int, epochs int) (Model, error)
}

// Loader reads a model written by Model.Save.
type Loader interface {
	Load(path string) (Model, error)
}

// Store returns the model cached at Path, training one when the file does
// not exist. An existing file is loaded as is, without checking it against
// the features.
type Store struct {
	Path    string
	Epochs  int
	Trainer Trainer
	Loader  Loader
	Logger  *slog.Logger // optional
}

// Result describes what Store.Get did.
type Result struct {
	Model   Model
	Trained bool     // false when the cached model was loaded
	Labels  []string // class list stamped on the artifact
}

// Get loads or trains the model, then saves it to Path and stamps the
// class directory listing of dataDir on it. The stamp is refreshed on
// every call, including when the model was loaded from cache, so it
// reflects the current data directory rather than the one the weights
// were trained on.
func (s *Store) Get(ctx context.Context, features [][]float64, labels []int, dataDir string) (*Result, error) {
	logger := s.logger()
	res := &Result{}

	if _, err := os.Stat(s.Path); err == nil {
		logger.Info("loading cached model", "path", s.Path)
		m, err := s.Loader.Load(s.Path)
		if err != nil {
			return nil, err
		}
		res.Model = m
	} else {
		if s.Epochs <= 0 {
			return nil, errors.ValidationError(fmt.Sprintf("epoch budget must be positive, got %d", s.Epochs))
		}
		logger.Info("training model", "path", s.Path, "epochs", s.Epochs, "samples", len(features))
		m, err := s.Trainer.Train(ctx, features, labels, s.Epochs)
		if err != nil {
			return nil, err
		}
		res.Model = m
		res.Trained = true
	}

	if err := res.Model.Save(s.Path); err != nil {
		return nil, errors.New(err).
			Component("model").
			Category(errors.CategoryModelSave).
			FileContext(s.Path).
			Build()
	}

	stamped, err := SaveLabels(s.Path, dataDir)
	if err != nil {
		return nil, err
	}
	res.Labels = stamped

	logger.Info("model saved", "path", s.Path, "trained", res.Trained, "classes", len(stamped))
	return res, nil
}

func (s *Store) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.ForService("model")
}
