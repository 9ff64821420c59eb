package trainer

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/happyhackingspace/nlpkit/beam"
	"github.com/happyhackingspace/nlpkit/crf"
)

// CRFTrainer trains a linear-chain conditional random field.
type CRFTrainer struct {
	Base
}

// NewCRFTrainer is the CRF factory.
func NewCRFTrainer(monitor Monitor) Trainer {
	return &CRFTrainer{Base: NewBase(monitor)}
}

// IsValid implements Trainer.
func (t *CRFTrainer) IsValid() error {
	var result *multierror.Error
	result = multierror.Append(result,
		t.Base.IsValid(),
		checkFloat(t.params, L1CostParam, 0),
		checkFloat(t.params, L2CostParam, 0),
		checkFloat(t.params, EpsilonParam, 0),
		checkInt(t.params, BeamSizeParam, 1),
	)
	return result.ErrorOrNil()
}

// TrainSequenceModel implements SequenceTrainer. The context generator is
// called with an empty history, so CRF features never see earlier labels.
func (t *CRFTrainer) TrainSequenceModel(ctx context.Context, corpus *SequenceCorpus) (beam.SequenceClassifier[string], error) {
	if err := corpus.Validate(); err != nil {
		return nil, err
	}
	def := crf.DefaultTrainerConfig()
	cfg := crf.TrainerConfig{
		C1:            t.FloatParam(L1CostParam, def.C1),
		C2:            t.FloatParam(L2CostParam, def.C2),
		MaxIterations: t.Iterations(),
		Epsilon:       t.FloatParam(EpsilonParam, def.Epsilon),
		Cutoff:        t.Cutoff(),
		OnIteration: func(it int, loss float64) error {
			t.Displayf("%3d: loss=%.6f", it, loss)
			return t.CheckCanceled(ctx)
		},
	}
	beamSize := t.IntParam(BeamSizeParam, beam.DefaultBeamSize)

	seqs := make([]crf.TrainingSequence, 0, len(corpus.Samples))
	for _, s := range corpus.Samples {
		features := make([]map[string]float64, len(s.Tokens))
		for i := range s.Tokens {
			features[i] = crf.ContextToAttributes(corpus.Generator.Context(i, s.Tokens, nil, s.Additional))
		}
		seqs = append(seqs, crf.TrainingSequence{Features: features, Labels: s.Outcomes})
	}
	t.Displayf("Training CRF on %d sequences", len(seqs))

	m, err := crf.Train(ctx, seqs, cfg)
	if err != nil {
		if errors.Is(err, ErrCanceled) || ctx.Err() != nil {
			return nil, ErrCanceled
		}
		return nil, errors.Wrap(err, "train crf")
	}
	return crf.NewDecoder(m, beamSize), nil
}
