package trainer

import (
	"context"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/happyhackingspace/nlpkit/beam"
	"github.com/happyhackingspace/nlpkit/model"
)

// SequencePerceptronTrainer trains an event model with the Collins
// structured perceptron: each sample is decoded with a beam search under the
// current weights, and when the decoded path differs from the gold one the
// features of the gold path are promoted and those of the decoded path
// demoted.
type SequencePerceptronTrainer struct {
	Base
}

// NewSequencePerceptronTrainer is the PERCEPTRON_SEQUENCE factory.
func NewSequencePerceptronTrainer(monitor Monitor) Trainer {
	return &SequencePerceptronTrainer{Base: NewBase(monitor)}
}

// IsValid implements Trainer.
func (t *SequencePerceptronTrainer) IsValid() error {
	var result *multierror.Error
	result = multierror.Append(result,
		t.Base.IsValid(),
		checkBool(t.params, UseAverageParam),
		checkInt(t.params, BeamSizeParam, 1),
	)
	return result.ErrorOrNil()
}

// TrainSequences implements EventModelSequenceTrainer.
func (t *SequencePerceptronTrainer) TrainSequences(ctx context.Context, corpus *SequenceCorpus) (model.Model, error) {
	if err := corpus.Validate(); err != nil {
		return nil, err
	}
	d, err := t.IndexEvents(corpus.Events())
	if err != nil {
		return nil, err
	}
	useAverage := t.BoolParam(UseAverageParam, true)
	beamSize := t.IntParam(BeamSizeParam, beam.DefaultBeamSize)
	iterations := t.Iterations()

	m := model.NewLinearModel(d.Predicates, d.Labels)
	sum := newMatrix(d.Predicates.Size(), d.Labels.Size())
	search := beam.NewSearch[string](beamSize, m, beam.WithCacheSize(0))

	totalTokens := 0
	for _, s := range corpus.Samples {
		totalTokens += len(s.Tokens)
	}
	rounds := 0
	for it := range iterations {
		if err := t.CheckCanceled(ctx); err != nil {
			return nil, err
		}
		correctTokens, correctSamples := 0, 0
		for _, s := range corpus.Samples {
			if len(s.Tokens) == 0 {
				continue
			}
			best := search.BestSequence(s.Tokens, s.Additional, corpus.Generator, nil)
			var predicted []string
			if best != nil {
				predicted = best.Outcomes()
			}
			if slices.Equal(predicted, s.Outcomes) {
				correctTokens += len(s.Tokens)
				correctSamples++
				continue
			}
			for i, gold := range s.Outcomes {
				if i < len(predicted) && predicted[i] == gold {
					correctTokens++
				}
			}
			t.update(m, corpus.PathEvents(s, s.Outcomes), 1)
			if len(predicted) == len(s.Tokens) {
				t.update(m, corpus.PathEvents(s, predicted), -1)
			}
		}
		addInto(sum, m.Weights)
		rounds++

		t.Displayf("%3d: token accuracy=%.5f sequence accuracy=%.5f", it+1,
			float64(correctTokens)/float64(max(totalTokens, 1)),
			float64(correctSamples)/float64(max(len(corpus.Samples), 1)))
		if correctTokens == totalTokens {
			break
		}
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

func (t *SequencePerceptronTrainer) update(m *model.LinearModel, events []model.Event, delta float64) {
	for _, e := range events {
		o := m.Labels.Get(e.Outcome)
		if o < 0 {
			continue
		}
		for _, pred := range e.Context {
			if p := m.Predicates.Get(pred); p >= 0 {
				m.Weights[p][o] += delta
			}
		}
	}
}
