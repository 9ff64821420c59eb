package classifier

import (
	"context"

	"github.com/happyhackingspace/nlpkit/beam"
	"github.com/happyhackingspace/nlpkit/internal/textutil"
	"github.com/happyhackingspace/nlpkit/trainer"
)

// ChunkerContext generates chunking features. additional[0] must hold the
// part-of-speech tags of the sentence as a []string.
func ChunkerContext(i int, tokens []string, prior []string, additional []any) []string {
	tags := posTags(additional, len(tokens))
	ctx := make([]string, 0, 16)
	ctx = append(ctx,
		"def",
		"w="+textutil.Fold(tokens[i]),
		"t="+tags[i],
		"pt="+at(tags, i-1), "ppt="+at(tags, i-2),
		"nt="+at(tags, i+1), "nnt="+at(tags, i+2),
		"pw="+word(tokens, i-1), "nw="+word(tokens, i+1),
		"pt,t="+at(tags, i-1)+","+tags[i],
		"t,nt="+tags[i]+","+at(tags, i+1),
		"po="+tag(prior, i-1),
		"po,t="+tag(prior, i-1)+","+tags[i],
	)
	return ctx
}

func posTags(additional []any, n int) []string {
	if len(additional) > 0 {
		if tags, ok := additional[0].([]string); ok && len(tags) == n {
			return tags
		}
	}
	tags := make([]string, n)
	for i := range tags {
		tags[i] = "_"
	}
	return tags
}

func at(xs []string, i int) string {
	switch {
	case i < 0:
		return bos
	case i >= len(xs):
		return eos
	}
	return xs[i]
}

// Chunker groups tagged tokens into phrases with BIO labels.
type Chunker struct {
	Tagger
}

// NewChunker wraps a trained model.
func NewChunker(m beam.SequenceClassifier[string]) *Chunker {
	return &Chunker{Tagger{
		Model:     m,
		Generator: beam.ContextGeneratorFunc[string](ChunkerContext),
		Validator: BIOValidator{},
	}}
}

// Chunk returns one BIO label per token given the tokens' POS tags.
func (c *Chunker) Chunk(tokens, tags []string) []string {
	return c.Tag(tokens, []any{tags})
}

// Phrases returns the chunk spans of the sentence.
func (c *Chunker) Phrases(tokens, tags []string) []Span {
	return SpansFromBIO(c.Chunk(tokens, tags))
}

// ChunkSamples builds training samples; each sample carries its POS tags as
// additional context.
func ChunkSamples(tokens, tags, chunks [][]string) []trainer.SequenceSample {
	samples := make([]trainer.SequenceSample, len(tokens))
	for i := range tokens {
		samples[i] = trainer.SequenceSample{Tokens: tokens[i], Outcomes: chunks[i], Additional: []any{tags[i]}}
	}
	return samples
}

// TrainChunker trains a chunker on samples built with ChunkSamples.
func TrainChunker(ctx context.Context, samples []trainer.SequenceSample, opts TrainOptions) (*Chunker, error) {
	corpus := &trainer.SequenceCorpus{Samples: samples, Generator: beam.ContextGeneratorFunc[string](ChunkerContext)}
	m, err := TrainSequenceModel(ctx, corpus, opts)
	if err != nil {
		return nil, err
	}
	return NewChunker(m), nil
}
