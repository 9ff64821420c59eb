package trainer

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/happyhackingspace/nlpkit/beam"
	"github.com/happyhackingspace/nlpkit/model"
)

// SequenceSample is one labelled sequence.
type SequenceSample struct {
	Tokens     []string
	Outcomes   []string
	Additional []any
}

// SequenceCorpus pairs labelled sequences with the context generator used to
// turn each position into features.
type SequenceCorpus struct {
	Samples   []SequenceSample
	Generator beam.ContextGenerator[string]
}

// Validate checks that every sample has one outcome per token.
func (c *SequenceCorpus) Validate() error {
	if c == nil || c.Generator == nil {
		return errors.New("sequence corpus needs a context generator")
	}
	for i, s := range c.Samples {
		if len(s.Tokens) != len(s.Outcomes) {
			return errors.Errorf("sample %d: %d tokens but %d outcomes", i, len(s.Tokens), len(s.Outcomes))
		}
	}
	return nil
}

// Events yields one event per token, with the gold outcomes as history.
func (c *SequenceCorpus) Events() iter.Seq[model.Event] {
	return func(yield func(model.Event) bool) {
		for _, s := range c.Samples {
			for _, e := range c.PathEvents(s, s.Outcomes) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// PathEvents returns the events s produces when decoded along outcomes.
func (c *SequenceCorpus) PathEvents(s SequenceSample, outcomes []string) []model.Event {
	events := make([]model.Event, len(s.Tokens))
	for i := range s.Tokens {
		events[i] = model.NewEvent(outcomes[i], c.Generator.Context(i, s.Tokens, outcomes[:i], s.Additional))
	}
	return events
}
