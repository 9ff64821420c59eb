package trainer

import (
	"context"
	"iter"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/happyhackingspace/nlpkit/internal/optimize"
	"github.com/happyhackingspace/nlpkit/model"
)

// Regularisation parameter keys shared by the quasi-Newton and CRF trainers.
const (
	L1CostParam  = "L1Cost"
	L2CostParam  = "L2Cost"
	EpsilonParam = "Epsilon"
	MemoryParam  = "NumOfUpdates"
)

// QNTrainer trains a maximum entropy model by minimising the regularised
// negative log-likelihood with L-BFGS (OWL-QN when L1Cost > 0).
type QNTrainer struct {
	Base
}

// NewQNTrainer is the MAXENT_QN factory.
func NewQNTrainer(monitor Monitor) Trainer {
	return &QNTrainer{Base: NewBase(monitor)}
}

// IsValid implements Trainer.
func (t *QNTrainer) IsValid() error {
	var result *multierror.Error
	result = multierror.Append(result,
		t.Base.IsValid(),
		checkFloat(t.params, L1CostParam, 0),
		checkFloat(t.params, L2CostParam, 0),
		checkFloat(t.params, EpsilonParam, 0),
		checkInt(t.params, MemoryParam, 1),
	)
	return result.ErrorOrNil()
}

// Train implements EventTrainer.
func (t *QNTrainer) Train(ctx context.Context, events iter.Seq[model.Event]) (model.Model, error) {
	d, err := t.IndexEvents(events)
	if err != nil {
		return nil, err
	}
	cfg := optimize.DefaultConfig()
	cfg.L1 = t.FloatParam(L1CostParam, 0.1)
	l2 := t.FloatParam(L2CostParam, 0.1)
	cfg.Epsilon = t.FloatParam(EpsilonParam, cfg.Epsilon)
	cfg.Memory = t.IntParam(MemoryParam, cfg.Memory)
	cfg.MaxIterations = t.Iterations()
	cfg.OnIteration = func(it int, loss float64) error {
		t.Displayf("%3d: loss=%.6f", it, loss)
		return t.CheckCanceled(ctx)
	}

	m := model.NewLinearModel(d.Predicates, d.Labels)
	numOutcomes := d.Labels.Size()
	x := make([]float64, d.Predicates.Size()*numOutcomes)
	probs := make([]float64, numOutcomes)

	objective := func(w, grad []float64) float64 {
		unflatten(m.Weights, w)
		if grad != nil {
			clear(grad)
		}
		loss := 0.0
		for ei, ctxIDs := range d.Contexts {
			count := float64(d.Counts[ei])
			gold := d.Outcomes[ei]
			probs = m.EvalIDs(ctxIDs, d.Values[ei], probs)
			loss -= count * math.Log(probs[gold])
			if grad == nil {
				continue
			}
			for j, p := range ctxIDs {
				v := value(d.Values[ei], j)
				for o, pr := range probs {
					g := pr
					if o == gold {
						g--
					}
					grad[p*numOutcomes+o] += count * v * g
				}
			}
		}
		if l2 > 0 {
			for i, wi := range w {
				loss += 0.5 * l2 * wi * wi
				if grad != nil {
					grad[i] += l2 * wi
				}
			}
		}
		return loss
	}

	res, err := optimize.Minimize(ctx, objective, x, cfg)
	if err != nil {
		if errors.Is(err, ErrCanceled) || ctx.Err() != nil {
			return nil, ErrCanceled
		}
		return nil, errors.Wrap(err, "minimise log-likelihood")
	}
	t.Displayf("Finished after %d iterations, loss=%.6f converged=%t", res.Iterations, res.Loss, res.Converged)
	unflatten(m.Weights, x)
	return m, nil
}

func unflatten(dst [][]float64, flat []float64) {
	for p := range dst {
		n := len(dst[p])
		copy(dst[p], flat[p*n:(p+1)*n])
	}
}
