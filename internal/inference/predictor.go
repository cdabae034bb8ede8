// Package inference maps classifier outputs back to class names.
package inference

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/tphakala/esc50-go/internal/model"
)

// Prediction is one class with its probability.
type Prediction struct {
	Index      int
	Label      string
	Confidence float64
}

// Predictor pairs a model with the label list stored alongside it.
type Predictor struct {
	Model  model.Model
	Labels []string
}

// Load opens the model at path with loader and reads its label attribute.
func Load(loader model.Loader, path string) (*Predictor, error) {
	m, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	labels, err := model.LoadLabels(path)
	if err != nil {
		return nil, err
	}
	return &Predictor{Model: m, Labels: labels}, nil
}

// Predict returns every class sorted by descending confidence. Ties keep
// class order.
func (p *Predictor) Predict(features []float64) ([]Prediction, error) {
	probs, err := p.Model.Predict(features)
	if err != nil {
		return nil, err
	}

	preds := make([]Prediction, len(probs))
	for i, prob := range probs {
		preds[i] = Prediction{Index: i, Label: p.label(i), Confidence: prob}
	}
	slices.SortStableFunc(preds, func(a, b Prediction) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return preds, nil
}

// Top returns at most k predictions.
func (p *Predictor) Top(features []float64, k int) ([]Prediction, error) {
	preds, err := p.Predict(features)
	if err != nil {
		return nil, err
	}
	if k > 0 && k < len(preds) {
		preds = preds[:k]
	}
	return preds, nil
}

// label names class i, falling back to its index when the stored list is too short
func (p *Predictor) label(i int) string {
	if i < len(p.Labels) {
		return p.Labels[i]
	}
	return fmt.Sprintf("class %d", i)
}
