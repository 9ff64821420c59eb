package beam

import (
	"log/slog"
	"slices"

	"github.com/happyhackingspace/nlpkit/model"
)

const (
	// DefaultBeamSize is the beam width tools use unless configured.
	DefaultBeamSize = 3
	// MinSequenceScore is the score floor used when the caller sets none.
	MinSequenceScore = -100000.0
)

// Search decodes sequences with a fixed-width beam over a probability model.
// Each call allocates its own frontiers and cache, so a Search may be shared
// between goroutines as long as the model is read-only.
type Search[T any] struct {
	size      int
	model     model.Model
	cacheSize int
	logger    *slog.Logger
}

// Option configures a Search.
type Option func(*options)

type options struct {
	cacheSize int
	logger    *slog.Logger
}

// WithCacheSize sets how many contexts are cached per decode. Zero disables
// the cache.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithLogger sets the logger used for decode diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewSearch returns a beam search of the given width over m.
func NewSearch[T any](size int, m model.Model, opts ...Option) *Search[T] {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if size < 1 {
		size = 1
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Search[T]{
		size:      size,
		model:     m,
		cacheSize: o.cacheSize,
		logger:    o.logger,
	}
}

// Size returns the beam width.
func (s *Search[T]) Size() int { return s.size }

// Model returns the probability model being decoded.
func (s *Search[T]) Model() model.Model { return s.model }

// Outcomes implements SequenceClassifier.
func (s *Search[T]) Outcomes() []string { return model.Outcomes(s.model) }

// BestSequence implements SequenceClassifier.
func (s *Search[T]) BestSequence(seq []T, additional []any, cg ContextGenerator[T], v Validator[T]) *Sequence {
	res := s.BestSequencesMinScore(1, seq, additional, MinSequenceScore, cg, v)
	if len(res) == 0 {
		return nil
	}
	return res[0]
}

// BestSequences implements SequenceClassifier.
func (s *Search[T]) BestSequences(n int, seq []T, additional []any, cg ContextGenerator[T], v Validator[T]) []*Sequence {
	return s.BestSequencesMinScore(n, seq, additional, MinSequenceScore, cg, v)
}

// expansion is a candidate taken off the frontier with the distribution its
// context produced.
type expansion struct {
	seq   *Sequence
	probs []float64
}

// BestSequencesMinScore implements SequenceClassifier.
func (s *Search[T]) BestSequencesMinScore(n int, seq []T, additional []any, minScore float64, cg ContextGenerator[T], v Validator[T]) []*Sequence {
	if v == nil {
		v = AcceptAll[T]()
	}
	cache := NewCache(s.cacheSize)
	current := NewSequenceHeap(s.size)
	next := NewSequenceHeap(s.size)
	current.Add(NewSequence())

	numOutcomes := s.model.NumOutcomes()
	if numOutcomes == 0 && len(seq) > 0 {
		return nil
	}
	sorted := make([]float64, numOutcomes)
	expanded := make([]expansion, 0, s.size)

	for i := range seq {
		expanded = expanded[:0]
		for sc := 0; sc < s.size; sc++ {
			top, ok := current.Extract()
			if !ok {
				break
			}
			probs := s.eval(cache, cg.Context(i, seq, top.Outcomes(), additional))
			expanded = append(expanded, expansion{seq: top, probs: probs})

			copy(sorted, probs)
			slices.Sort(sorted)
			cutoff := sorted[max(0, numOutcomes-s.size)]

			for o, p := range probs {
				if p < cutoff {
					continue
				}
				s.expand(next, top, i, seq, o, p, minScore, v)
			}
		}

		if next.IsEmpty() {
			// nothing in the top outcomes was valid, try every outcome
			for _, ex := range expanded {
				for o, p := range ex.probs {
					s.expand(next, ex.seq, i, seq, o, p, minScore, v)
				}
			}
		}

		current, next = next, current
		next.Clear()
		if current.IsEmpty() {
			s.logger.Debug("Beam search found no valid continuation", "position", i, "length", len(seq))
			return nil
		}
	}

	count := max(0, min(n, current.Size()))
	results := make([]*Sequence, 0, count)
	for range count {
		best, _ := current.Extract()
		results = append(results, best)
	}
	return results
}

func (s *Search[T]) expand(next *Heap[*Sequence], top *Sequence, i int, seq []T, o int, p, minScore float64, v Validator[T]) {
	outcome := s.model.Outcome(o)
	if !v.Valid(i, seq, top.Outcomes(), outcome) {
		return
	}
	ns := top.Extend(outcome, p)
	if ns.Score() > minScore {
		next.Add(ns)
	}
}

func (s *Search[T]) eval(cache *Cache, context []string) []float64 {
	if probs, ok := cache.Get(context); ok {
		return probs
	}
	probs := s.model.Eval(context)
	cache.Put(context, probs)
	return probs
}
