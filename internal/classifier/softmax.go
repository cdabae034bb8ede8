// Package classifier provides the default trainable classifier: multinomial
// logistic regression over standardised feature vectors.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/model"
	"gonum.org/v1/gonum/floats"
)

// Format identifies softmax payloads in model artifacts.
const Format = "esc50-softmax-v1"

// Softmax is a trained multinomial logistic regression model.
type Softmax struct {
	Classes int         `json:"classes"`
	Mean    []float64   `json:"mean"`   // per feature, fitted on the training set
	Stddev  []float64   `json:"stddev"` // per feature, 1 for constant features
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Dimension returns the expected feature vector length.
func (m *Softmax) Dimension() int {
	return len(m.Mean)
}

// Predict returns the class probabilities for one feature vector.
func (m *Softmax) Predict(features []float64) ([]float64, error) {
	if len(features) != m.Dimension() {
		return nil, errors.New(fmt.Errorf("feature vector has %d values, model expects %d", len(features), m.Dimension())).
			Component("classifier").
			Category(errors.CategoryInference).
			Build()
	}

	x := m.standardize(features)
	logits := make([]float64, m.Classes)
	for c := range m.Classes {
		logits[c] = floats.Dot(m.Weights[c], x) + m.Bias[c]
	}
	return softmax(logits), nil
}

// Save writes the model as a fresh artifact without attributes.
func (m *Softmax) Save(path string) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelSave).
			Build()
	}
	return model.WriteArtifact(path, &model.Artifact{Format: Format, Model: payload})
}

func (m *Softmax) standardize(features []float64) []float64 {
	x := make([]float64, len(features))
	for i, v := range features {
		x[i] = (v - m.Mean[i]) / m.Stddev[i]
	}
	return x
}

func (m *Softmax) validate() error {
	d := len(m.Mean)
	switch {
	case m.Classes <= 0:
		return fmt.Errorf("model has no classes")
	case d == 0 || len(m.Stddev) != d:
		return fmt.Errorf("model scaler is inconsistent")
	case len(m.Weights) != m.Classes || len(m.Bias) != m.Classes:
		return fmt.Errorf("model has %d weight rows and %d biases for %d classes", len(m.Weights), len(m.Bias), m.Classes)
	}
	for c, row := range m.Weights {
		if len(row) != d {
			return fmt.Errorf("weight row %d has %d values, expected %d", c, len(row), d)
		}
	}
	for i, s := range m.Stddev {
		if s == 0 {
			return fmt.Errorf("zero standard deviation for feature %d", i)
		}
	}
	return nil
}

// softmax converts logits to probabilities in place and returns them
func softmax(logits []float64) []float64 {
	maxLogit := floats.Max(logits)
	var sum float64
	for i, v := range logits {
		logits[i] = math.Exp(v - maxLogit)
		sum += logits[i]
	}
	floats.Scale(1/sum, logits)
	return logits
}

// Loader reads softmax models from artifacts.
type Loader struct{}

// Load implements model.Loader.
func (Loader) Load(path string) (model.Model, error) {
	a, err := model.ReadArtifact(path)
	if err != nil {
		return nil, err
	}
	if a.Format != Format {
		return nil, errors.New(fmt.Errorf("unsupported model format %q", a.Format)).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			FileContext(path).
			Build()
	}

	var m Softmax
	if err := json.Unmarshal(a.Model, &m); err != nil {
		return nil, errors.New(fmt.Errorf("invalid softmax payload: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			FileContext(path).
			Build()
	}
	if err := m.validate(); err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			FileContext(path).
			Build()
	}
	return &m, nil
}
