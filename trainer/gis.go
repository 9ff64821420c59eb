package trainer

import (
	"context"
	"iter"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/happyhackingspace/nlpkit/model"
)

// GIS parameter keys.
const (
	SmoothingParam            = "Smoothing"
	SmoothingObservationParam = "SmoothingObservation"
	ToleranceParam            = "Tolerance"
)

// GISTrainer trains a maximum entropy model with generalized iterative
// scaling.
type GISTrainer struct {
	Base
}

// NewGISTrainer is the MAXENT factory.
func NewGISTrainer(monitor Monitor) Trainer {
	return &GISTrainer{Base: NewBase(monitor)}
}

// IsValid implements Trainer.
func (t *GISTrainer) IsValid() error {
	var result *multierror.Error
	result = multierror.Append(result,
		t.Base.IsValid(),
		checkBool(t.params, SmoothingParam),
		checkFloat(t.params, SmoothingObservationParam, 0),
		checkFloat(t.params, ToleranceParam, 0),
	)
	return result.ErrorOrNil()
}

// Train implements EventTrainer.
func (t *GISTrainer) Train(ctx context.Context, events iter.Seq[model.Event]) (model.Model, error) {
	d, err := t.IndexEvents(events)
	if err != nil {
		return nil, err
	}
	smoothing := t.BoolParam(SmoothingParam, false)
	smoothingObs := t.FloatParam(SmoothingObservationParam, 0.1)
	tolerance := t.FloatParam(ToleranceParam, 1e-4)
	iterations := t.Iterations()

	numPreds, numOutcomes := d.Predicates.Size(), d.Labels.Size()
	observed := newMatrix(numPreds, numOutcomes)
	correction := 0.0
	for ei, ctxIDs := range d.Contexts {
		count := float64(d.Counts[ei])
		total := 0.0
		for j, p := range ctxIDs {
			v := value(d.Values[ei], j)
			observed[p][d.Outcomes[ei]] += count * v
			total += v
		}
		correction = max(correction, total)
	}
	if smoothing {
		for p := range observed {
			for o := range observed[p] {
				observed[p][o] += smoothingObs
			}
		}
	}

	m := model.NewLinearModel(d.Predicates, d.Labels)
	expected := newMatrix(numPreds, numOutcomes)
	probs := make([]float64, numOutcomes)
	prevLL := 0.0
	for it := range iterations {
		if err := t.CheckCanceled(ctx); err != nil {
			return nil, err
		}
		for p := range expected {
			clear(expected[p])
		}
		ll, correct := 0.0, 0
		for ei, ctxIDs := range d.Contexts {
			count := float64(d.Counts[ei])
			probs = m.EvalIDs(ctxIDs, d.Values[ei], probs)
			for j, p := range ctxIDs {
				v := value(d.Values[ei], j)
				for o, pr := range probs {
					expected[p][o] += count * v * pr
				}
			}
			ll += count * math.Log(probs[d.Outcomes[ei]])
			if argmax(probs) == d.Outcomes[ei] {
				correct += d.Counts[ei]
			}
		}
		for p := range m.Weights {
			for o := range m.Weights[p] {
				if observed[p][o] > 0 && expected[p][o] > 0 {
					m.Weights[p][o] += (math.Log(observed[p][o]) - math.Log(expected[p][o])) / correction
				}
			}
		}
		t.Displayf("%3d: loglikelihood=%.6f accuracy=%.5f", it+1, ll, float64(correct)/float64(d.TotalEvents()))
		if it > 0 && math.Abs(ll-prevLL) < tolerance {
			break
		}
		prevLL = ll
	}
	return m, nil
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func value(values []float64, j int) float64 {
	if values == nil {
		return 1
	}
	return values[j]
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
