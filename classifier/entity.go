package classifier

import (
	"context"
	"unicode"

	"github.com/happyhackingspace/nlpkit/beam"
	"github.com/happyhackingspace/nlpkit/internal/textutil"
	"github.com/happyhackingspace/nlpkit/trainer"
)

// EntityContext generates named-entity features. POS tags in additional[0]
// are used when present.
func EntityContext(i int, tokens []string, prior []string, additional []any) []string {
	w := tokens[i]
	ctx := make([]string, 0, 24)
	ctx = append(ctx, "def", "w="+textutil.Fold(w), "sh="+textutil.Shape(w))
	_, suf := textutil.Affixes(w, 3)
	for _, s := range suf {
		ctx = append(ctx, "suf="+textutil.Fold(s))
	}
	if r := []rune(w); len(r) > 0 && unicode.IsUpper(r[0]) {
		if i == 0 {
			ctx = append(ctx, "cap0")
		} else {
			ctx = append(ctx, "cap")
		}
	}
	if pattern := textutil.NumberPattern(w, 0.5); pattern != "" {
		ctx = append(ctx, "num="+pattern)
	}
	ctx = append(ctx,
		"pw="+word(tokens, i-1), "nw="+word(tokens, i+1),
		"psh="+shapeAt(tokens, i-1), "nsh="+shapeAt(tokens, i+1),
		"po="+tag(prior, i-1),
	)
	if len(additional) > 0 {
		if tags, ok := additional[0].([]string); ok && len(tags) == len(tokens) {
			ctx = append(ctx, "t="+tags[i], "pt="+at(tags, i-1), "nt="+at(tags, i+1))
		}
	}
	return ctx
}

func shapeAt(tokens []string, i int) string {
	if i < 0 || i >= len(tokens) {
		return bos
	}
	return textutil.Shape(tokens[i])
}

// EntityFinder labels named-entity mentions with BIO tags.
type EntityFinder struct {
	Tagger
}

// NewEntityFinder wraps a trained model.
func NewEntityFinder(m beam.SequenceClassifier[string]) *EntityFinder {
	return &EntityFinder{Tagger{
		Model:     m,
		Generator: beam.ContextGeneratorFunc[string](EntityContext),
		Validator: BIOValidator{},
	}}
}

// Find returns the entity spans of a sentence. tags may be nil.
func (f *EntityFinder) Find(tokens, tags []string) []Span {
	var additional []any
	if tags != nil {
		additional = []any{tags}
	}
	return SpansFromBIO(f.Tag(tokens, additional))
}

// EntitySamples builds training samples; tags may be nil.
func EntitySamples(tokens, tags, entities [][]string) []trainer.SequenceSample {
	samples := make([]trainer.SequenceSample, len(tokens))
	for i := range tokens {
		samples[i] = trainer.SequenceSample{Tokens: tokens[i], Outcomes: entities[i]}
		if tags != nil {
			samples[i].Additional = []any{tags[i]}
		}
	}
	return samples
}

// TrainEntityFinder trains an entity finder on samples.
func TrainEntityFinder(ctx context.Context, samples []trainer.SequenceSample, opts TrainOptions) (*EntityFinder, error) {
	corpus := &trainer.SequenceCorpus{Samples: samples, Generator: beam.ContextGeneratorFunc[string](EntityContext)}
	m, err := TrainSequenceModel(ctx, corpus, opts)
	if err != nil {
		return nil, err
	}
	return NewEntityFinder(m), nil
}
