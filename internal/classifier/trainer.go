package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/errors"
	"github.com/tphakala/esc50-go/internal/logging"
	"github.com/tphakala/esc50-go/internal/model"
	"github.com/tphakala/esc50-go/internal/observability/metrics"
	"gonum.org/v1/gonum/mat"
)

// Trainer fits Softmax models with full-batch gradient descent.
type Trainer struct {
	LearningRate float64
	L2           float64 // weight decay
	LogInterval  int     // epochs between progress logs, 0 disables them

	Metrics metrics.Recorder // optional
	Logger  *slog.Logger     // optional
}

// NewTrainer creates a trainer from model settings.
func NewTrainer(settings *conf.ModelSettings) *Trainer {
	return &Trainer{
		LearningRate: settings.LearningRate,
		L2:           settings.L2,
		LogInterval:  settings.LogInterval,
	}
}

// Train implements model.Trainer. The class count is the largest label
// plus one. Cancellation is checked between epochs.
func (t *Trainer) Train(ctx context.Context, features [][]float64, labels []int, epochs int) (model.Model, error) {
	if err := validateTrainingSet(features, labels, epochs); err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	if t.LearningRate <= 0 {
		return nil, errors.ValidationError(fmt.Sprintf("learning rate must be positive, got %g", t.LearningRate))
	}

	logger := t.logger()
	rec := metrics.OrNop(t.Metrics)

	n := len(features)
	d := len(features[0])
	k := slices.Max(labels) + 1

	m := &Softmax{Classes: k}
	m.Mean, m.Stddev = fitScaler(features)

	// X is n×d standardised, Y is the n×k one-hot target
	x := mat.NewDense(n, d, nil)
	for i, row := range features {
		x.SetRow(i, m.standardize(row))
	}
	y := mat.NewDense(n, k, nil)
	for i, l := range labels {
		y.Set(i, l, 1)
	}

	w := mat.NewDense(d, k, nil)
	b := make([]float64, k)

	var probs, grad mat.Dense
	gradB := make([]float64, k)

	start := time.Now()
	for epoch := 1; epoch <= epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(err).
				Component("classifier").
				Category(errors.CategoryCancellation).
				Context("epoch", epoch).
				Timing("train", time.Since(start)).
				Build()
		}

		probs.Mul(x, w)
		for i := range n {
			row := probs.RawRowView(i)
			for c := range k {
				row[c] += b[c]
			}
			softmax(row)
		}

		if t.LogInterval > 0 && (epoch == 1 || epoch%t.LogInterval == 0 || epoch == epochs) {
			loss, acc := lossAndAccuracy(&probs, labels)
			logger.Info("training progress", "epoch", epoch, "epochs", epochs, "loss", loss, "accuracy", acc)
		}

		// probs becomes the error term P - Y
		probs.Sub(&probs, y)

		grad.Mul(x.T(), &probs)
		grad.Scale(1/float64(n), &grad)
		if t.L2 > 0 {
			grad.Add(&grad, scaled(t.L2, w))
		}
		w.Sub(w, scaled(t.LearningRate, &grad))

		clear(gradB)
		for i := range n {
			row := probs.RawRowView(i)
			for c := range k {
				gradB[c] += row[c]
			}
		}
		for c := range k {
			b[c] -= t.LearningRate * gradB[c] / float64(n)
		}

		rec.RecordOperation(metrics.OpTrainingEpoch, "")

		if math.IsNaN(w.At(0, 0)) {
			return nil, errors.Newf("training diverged at epoch %d", epoch).
				Component("classifier").
				Category(errors.CategoryTraining).
				Context("learning_rate", t.LearningRate).
				Timing("train", time.Since(start)).
				Build()
		}
	}

	m.Weights = make([][]float64, k)
	for c := range k {
		m.Weights[c] = mat.Col(nil, c, w)
	}
	m.Bias = b

	return m, nil
}

func (t *Trainer) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return logging.ForService("classifier")
}

func scaled(f float64, a mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(f, a)
	return &out
}

func validateTrainingSet(features [][]float64, labels []int, epochs int) error {
	switch {
	case epochs <= 0:
		return fmt.Errorf("epoch budget must be positive, got %d", epochs)
	case len(features) == 0:
		return fmt.Errorf("no training samples")
	case len(features) != len(labels):
		return fmt.Errorf("%d feature rows but %d labels", len(features), len(labels))
	case len(features[0]) == 0:
		return fmt.Errorf("feature vectors are empty")
	}

	d := len(features[0])
	for i, row := range features {
		if len(row) != d {
			return fmt.Errorf("feature row %d has %d values, expected %d", i, len(row), d)
		}
	}
	for i, l := range labels {
		if l < 0 {
			return fmt.Errorf("label %d is negative (%d)", i, l)
		}
	}
	return nil
}

// fitScaler computes the z-score parameters of each feature column
func fitScaler(features [][]float64) (mean, stddev []float64) {
	d := len(features[0])
	n := float64(len(features))
	mean = make([]float64, d)
	stddev = make([]float64, d)

	for _, row := range features {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range features {
		for j, v := range row {
			diff := v - mean[j]
			stddev[j] += diff * diff
		}
	}
	for j := range stddev {
		stddev[j] = math.Sqrt(stddev[j] / n)
		// constant features would divide by zero
		if stddev[j] < 1e-10 {
			stddev[j] = 1
		}
	}
	return mean, stddev
}

// lossAndAccuracy returns the mean cross entropy and the training accuracy
func lossAndAccuracy(probs *mat.Dense, labels []int) (loss, accuracy float64) {
	correct := 0
	for i, l := range labels {
		row := probs.RawRowView(i)
		loss -= math.Log(math.Max(row[l], 1e-15))
		best := 0
		for c := range row {
			if row[c] > row[best] {
				best = c
			}
		}
		if best == l {
			correct++
		}
	}
	n := float64(len(labels))
	return loss / n, float64(correct) / n
}
