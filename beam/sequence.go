package beam

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// Sequence is a candidate label path with a running log-probability score.
type Sequence struct {
	outcomes []string
	probs    []float64
	score    float64
}

// NewSequence returns an empty sequence with score 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Add appends outcome with the probability the model gave it.
func (s *Sequence) Add(outcome string, p float64) {
	s.outcomes = append(s.outcomes, outcome)
	s.probs = append(s.probs, p)
	s.score += math.Log(p)
}

// Extend returns a copy of s with outcome appended.
func (s *Sequence) Extend(outcome string, p float64) *Sequence {
	ns := &Sequence{
		outcomes: make([]string, len(s.outcomes), len(s.outcomes)+1),
		probs:    make([]float64, len(s.probs), len(s.probs)+1),
		score:    s.score,
	}
	copy(ns.outcomes, s.outcomes)
	copy(ns.probs, s.probs)
	ns.Add(outcome, p)
	return ns
}

// Clone returns an independent copy of s.
func (s *Sequence) Clone() *Sequence {
	return &Sequence{
		outcomes: slices.Clone(s.outcomes),
		probs:    slices.Clone(s.probs),
		score:    s.score,
	}
}

// Outcomes returns the outcome labels. The slice must not be modified.
func (s *Sequence) Outcomes() []string { return slices.Clip(s.outcomes) }

// Probs returns the per-step probabilities. The slice must not be modified.
func (s *Sequence) Probs() []float64 { return slices.Clip(s.probs) }

// Score returns the sum of the log probabilities.
func (s *Sequence) Score() float64 { return s.score }

// Len returns the number of outcomes.
func (s *Sequence) Len() int { return len(s.outcomes) }

// Compare orders sequences best first: it is negative when s scores higher
// than other, positive when lower and zero on equal scores.
func (s *Sequence) Compare(other *Sequence) int {
	return cmp.Compare(other.score, s.score)
}

func (s *Sequence) String() string {
	return fmt.Sprintf("%.4f %v", s.score, s.outcomes)
}

// CompareSequences is Sequence.Compare as a function, for heaps and sorting.
func CompareSequences(a, b *Sequence) int { return a.Compare(b) }
