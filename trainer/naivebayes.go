package trainer

import (
	"context"
	"iter"
	"math"

	"github.com/happyhackingspace/nlpkit/model"
)

// NaiveBayesTrainer estimates a multinomial naive Bayes model with add-one
// smoothing. It runs in a single pass; Iterations is ignored.
type NaiveBayesTrainer struct {
	Base
}

// NewNaiveBayesTrainer is the NAIVEBAYES factory.
func NewNaiveBayesTrainer(monitor Monitor) Trainer {
	return &NaiveBayesTrainer{Base: NewBase(monitor)}
}

// Train implements EventTrainer.
func (t *NaiveBayesTrainer) Train(ctx context.Context, events iter.Seq[model.Event]) (model.Model, error) {
	d, err := t.IndexEvents(events)
	if err != nil {
		return nil, err
	}
	if err := t.CheckCanceled(ctx); err != nil {
		return nil, err
	}
	numPreds, numOutcomes := d.Predicates.Size(), d.Labels.Size()
	outcomeCounts := make([]float64, numOutcomes)
	featureTotals := make([]float64, numOutcomes)
	featureCounts := newMatrix(numPreds, numOutcomes)
	for ei, ctxIDs := range d.Contexts {
		count := float64(d.Counts[ei])
		o := d.Outcomes[ei]
		outcomeCounts[o] += count
		for j, p := range ctxIDs {
			v := count * value(d.Values[ei], j)
			featureCounts[p][o] += v
			featureTotals[o] += v
		}
	}

	m := model.NewLinearModel(d.Predicates, d.Labels)
	m.Bias = make([]float64, numOutcomes)
	total := float64(d.TotalEvents())
	vocab := float64(numPreds)
	for o := range numOutcomes {
		m.Bias[o] = math.Log(outcomeCounts[o] / total)
		for p := range numPreds {
			m.Weights[p][o] = math.Log((featureCounts[p][o] + 1) / (featureTotals[o] + vocab))
		}
	}
	t.Displayf("Estimated %d outcome priors over %d events", numOutcomes, d.TotalEvents())
	return m, nil
}
