package inference

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/esc50-go/internal/model"
)

type fixedModel struct {
	probs []float64
	err   error
}

func (m fixedModel) Predict([]float64) ([]float64, error) { return m.probs, m.err }

func (m fixedModel) Save(path string) error {
	return model.WriteArtifact(path, &model.Artifact{Format: "fixed", Model: json.RawMessage(`{}`)})
}

type fixedLoader struct{ m model.Model }

func (l fixedLoader) Load(string) (model.Model, error) { return l.m, nil }

func TestPredictSortsAndLabels(t *testing.T) {
	p := &Predictor{
		Model:  fixedModel{probs: []float64{0.1, 0.6, 0.1, 0.2}},
		Labels: []string{"100 - Dog", "101 - Rooster", "102 - Pig"},
	}

	preds, err := p.Predict(nil)
	require.NoError(t, err)
	assert.Equal(t, []Prediction{
		{Index: 1, Label: "101 - Rooster", Confidence: 0.6},
		{Index: 3, Label: "class 3", Confidence: 0.2},
		{Index: 0, Label: "100 - Dog", Confidence: 0.1},
		{Index: 2, Label: "102 - Pig", Confidence: 0.1},
	}, preds)

	top, err := p.Top(nil, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	all, err := p.Top(nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPredictPropagatesModelError(t *testing.T) {
	p := &Predictor{Model: fixedModel{err: fmt.Errorf("bad input")}}
	_, err := p.Predict([]float64{1})
	assert.EqualError(t, err, "bad input")
}

func TestLoadReadsLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	m := fixedModel{probs: []float64{1}}
	require.NoError(t, m.Save(path))
	require.NoError(t, model.SetAttr(path, model.LabelsAttr, `["100 - Dog"]`))

	p, err := Load(fixedLoader{m: m}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"100 - Dog"}, p.Labels)

	preds, err := p.Predict(nil)
	require.NoError(t, err)
	assert.Equal(t, "100 - Dog", preds[0].Label)
}
