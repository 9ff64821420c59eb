package trainer

import (
	"context"
	"iter"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/happyhackingspace/nlpkit/model"
)

// Perceptron parameter keys.
const (
	UseAverageParam       = "UseAverage"
	StepSizeDecreaseParam = "StepSizeDecrease"
)

// PerceptronTrainer trains an averaged multiclass perceptron.
type PerceptronTrainer struct {
	Base
}

// NewPerceptronTrainer is the PERCEPTRON factory.
func NewPerceptronTrainer(monitor Monitor) Trainer {
	return &PerceptronTrainer{Base: NewBase(monitor)}
}

// IsValid implements Trainer.
func (t *PerceptronTrainer) IsValid() error {
	var result *multierror.Error
	result = multierror.Append(result,
		t.Base.IsValid(),
		checkBool(t.params, UseAverageParam),
		checkFloat(t.params, StepSizeDecreaseParam, 0),
		checkFloat(t.params, ToleranceParam, 0),
	)
	return result.ErrorOrNil()
}

// Train implements EventTrainer.
func (t *PerceptronTrainer) Train(ctx context.Context, events iter.Seq[model.Event]) (model.Model, error) {
	d, err := t.IndexEvents(events)
	if err != nil {
		return nil, err
	}
	useAverage := t.BoolParam(UseAverageParam, true)
	decrease := t.FloatParam(StepSizeDecreaseParam, 0)
	tolerance := t.FloatParam(ToleranceParam, 1e-5)
	iterations := t.Iterations()

	m := model.NewLinearModel(d.Predicates, d.Labels)
	sum := newMatrix(d.Predicates.Size(), d.Labels.Size())
	scores := make([]float64, d.Labels.Size())
	total := float64(d.TotalEvents())
	step := 1.0
	var history []float64
	rounds := 0

	for it := range iterations {
		if err := t.CheckCanceled(ctx); err != nil {
			return nil, err
		}
		correct := 0
		for ei, ctxIDs := range d.Contexts {
			gold := d.Outcomes[ei]
			for range d.Counts[ei] {
				linearScores(m.Weights, ctxIDs, d.Values[ei], scores)
				pred := argmax(scores)
				if pred == gold {
					correct++
					continue
				}
				for j, p := range ctxIDs {
					v := step * value(d.Values[ei], j)
					m.Weights[p][gold] += v
					m.Weights[p][pred] -= v
				}
			}
		}
		addInto(sum, m.Weights)
		rounds++

		acc := float64(correct) / total
		t.Displayf("%3d: accuracy=%.5f", it+1, acc)
		if acc == 1 || converged(history, acc, tolerance) {
			break
		}
		history = append(history, acc)
		step *= 1 - decrease/100
	}

	if useAverage {
		for p := range sum {
			for o := range sum[p] {
				m.Weights[p][o] = sum[p][o] / float64(rounds)
			}
		}
	}
	return m, nil
}

// converged reports whether acc is within tolerance of each of the last
// three accuracies.
func converged(history []float64, acc, tolerance float64) bool {
	if len(history) < 3 {
		return false
	}
	for _, h := range history[len(history)-3:] {
		if math.Abs(h-acc) > tolerance {
			return false
		}
	}
	return true
}

func linearScores(weights [][]float64, ctxIDs []int, values, scores []float64) {
	clear(scores)
	for j, p := range ctxIDs {
		v := value(values, j)
		for o, w := range weights[p] {
			scores[o] += w * v
		}
	}
}

func addInto(dst, src [][]float64) {
	for i := range dst {
		for j := range dst[i] {
			dst[i][j] += src[i][j]
		}
	}
}
