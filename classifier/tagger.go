// Package classifier provides the sequence-labelling tools: a part-of-speech
// tagger, a phrase chunker and a named-entity finder. Each wraps a trained
// beam.SequenceClassifier together with the context generator and validator
// it was trained with.
package classifier

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/happyhackingspace/nlpkit/beam"
	"github.com/happyhackingspace/nlpkit/trainer"
)

// Tagger decodes token sequences with a sequence classifier.
type Tagger struct {
	Model     beam.SequenceClassifier[string]
	Generator beam.ContextGenerator[string]
	Validator beam.Validator[string]
}

// Tag returns the best label for each token, or nil when no label sequence
// satisfies the validator.
func (t *Tagger) Tag(tokens []string, additional []any) []string {
	best := t.Model.BestSequence(tokens, additional, t.Generator, t.Validator)
	if best == nil {
		return nil
	}
	return best.Outcomes()
}

// TagWithProbs is Tag plus the probability of each chosen label.
func (t *Tagger) TagWithProbs(tokens []string, additional []any) ([]string, []float64) {
	best := t.Model.BestSequence(tokens, additional, t.Generator, t.Validator)
	if best == nil {
		return nil, nil
	}
	return best.Outcomes(), best.Probs()
}

// TopK returns up to k label sequences, best first.
func (t *Tagger) TopK(k int, tokens []string, additional []any) []*beam.Sequence {
	return t.Model.BestSequences(k, tokens, additional, t.Generator, t.Validator)
}

// Outcomes lists the labels the tagger can emit.
func (t *Tagger) Outcomes() []string { return t.Model.Outcomes() }

// TrainOptions configures TrainSequenceModel.
type TrainOptions struct {
	Registry *trainer.Registry
	Params   *trainer.Params
	Report   *trainer.Report
	Monitor  trainer.Monitor
	// BeamSize is the decoding width for event models. Zero means
	// beam.DefaultBeamSize.
	BeamSize int
	Logger   *slog.Logger
}

// TrainSequenceModel trains a sequence classifier with whichever trainer the
// parameters select. Event trainers learn from per-token events with the
// gold history; their model, like that of an event-model sequence trainer,
// is decoded with a beam search. Sequence trainers return their own
// classifier.
func TrainSequenceModel(ctx context.Context, corpus *trainer.SequenceCorpus, opts TrainOptions) (beam.SequenceClassifier[string], error) {
	reg := opts.Registry
	if reg == nil {
		reg = trainer.NewRegistry()
	}
	params := opts.Params
	if params == nil {
		params = trainer.DefaultParams()
	}
	if err := reg.ValidateParams(params); err != nil {
		return nil, err
	}
	if err := corpus.Validate(); err != nil {
		return nil, err
	}
	beamSize := opts.BeamSize
	if beamSize <= 0 {
		beamSize = beam.DefaultBeamSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	category := reg.ResolveCategory(params)
	logger.Debug("Training sequence model", "category", category, "params", params.String(), "samples", len(corpus.Samples))
	switch category {
	case trainer.CategoryEventModel:
		t, err := reg.EventTrainer(params, opts.Report, opts.Monitor)
		if err != nil {
			return nil, err
		}
		m, err := t.Train(ctx, corpus.Events())
		if err != nil {
			return nil, err
		}
		return beam.NewSearch[string](beamSize, m, beam.WithLogger(logger)), nil
	case trainer.CategoryEventModelSequence:
		t, err := reg.EventModelSequenceTrainer(params, opts.Report, opts.Monitor)
		if err != nil {
			return nil, err
		}
		m, err := t.TrainSequences(ctx, corpus)
		if err != nil {
			return nil, err
		}
		return beam.NewSearch[string](beamSize, m, beam.WithLogger(logger)), nil
	case trainer.CategorySequence:
		t, err := reg.SequenceTrainer(params, opts.Report, opts.Monitor)
		if err != nil {
			return nil, err
		}
		return t.TrainSequenceModel(ctx, corpus)
	}
	name, _ := params.Get(trainer.AlgorithmParam)
	return nil, errors.Wrap(trainer.ErrUnknownTrainer, name)
}
