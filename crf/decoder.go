package crf

import (
	"slices"

	"github.com/happyhackingspace/nlpkit/beam"
)

// Decoder adapts a CRF model to the sequence classification contract.
// Features come from the context generator with an empty history, since CRF
// state features may not depend on earlier labels. Without a validator the
// single best path is exact Viterbi; otherwise, and for N-best requests,
// label paths are searched with a beam over the chain's local
// probabilities.
type Decoder struct {
	model    *Model
	beamSize int
}

var _ beam.SequenceClassifier[string] = (*Decoder)(nil)

// NewDecoder wraps m with the given beam width for constrained decoding.
func NewDecoder(m *Model, beamSize int) *Decoder {
	if beamSize < 1 {
		beamSize = beam.DefaultBeamSize
	}
	return &Decoder{model: m, beamSize: beamSize}
}

// Model returns the wrapped CRF.
func (d *Decoder) Model() *Model { return d.model }

// Outcomes implements beam.SequenceClassifier.
func (d *Decoder) Outcomes() []string { return slices.Clone(d.model.Labels.ToStr) }

func (d *Decoder) scores(seq []string, additional []any, cg beam.ContextGenerator[string]) ([][]float64, [][]float64) {
	features := make([]map[string]float64, len(seq))
	for i := range seq {
		features[i] = ContextToAttributes(cg.Context(i, seq, nil, additional))
	}
	return d.model.ComputeStateScores(features), d.model.ComputeTransScores()
}

// BestSequence implements beam.SequenceClassifier.
func (d *Decoder) BestSequence(seq []string, additional []any, cg beam.ContextGenerator[string], v beam.Validator[string]) *beam.Sequence {
	if v != nil {
		res := d.BestSequencesMinScore(1, seq, additional, beam.MinSequenceScore, cg, v)
		if len(res) == 0 {
			return nil
		}
		return res[0]
	}
	best := beam.NewSequence()
	if len(seq) == 0 {
		return best
	}
	states, trans := d.scores(seq, additional, cg)
	path, _ := Viterbi(states, trans)
	prev := -1
	for t, y := range path {
		best.Add(d.model.Labels.String(y), localProbs(states, trans, t, prev)[y])
		prev = y
	}
	return best
}

// BestSequences implements beam.SequenceClassifier.
func (d *Decoder) BestSequences(n int, seq []string, additional []any, cg beam.ContextGenerator[string], v beam.Validator[string]) []*beam.Sequence {
	return d.BestSequencesMinScore(n, seq, additional, beam.MinSequenceScore, cg, v)
}

// BestSequencesMinScore implements beam.SequenceClassifier.
func (d *Decoder) BestSequencesMinScore(n int, seq []string, additional []any, minScore float64, cg beam.ContextGenerator[string], v beam.Validator[string]) []*beam.Sequence {
	if v == nil {
		v = beam.AcceptAll[string]()
	}
	width := max(n, d.beamSize)
	current := beam.NewSequenceHeap(width)
	next := beam.NewSequenceHeap(width)
	current.Add(beam.NewSequence())
	if len(seq) > 0 && d.model.NumLabels == 0 {
		return nil
	}

	states, trans := d.scores(seq, additional, cg)
	for t := range seq {
		for {
			cand, ok := current.Extract()
			if !ok {
				break
			}
			prior := cand.Outcomes()
			prev := -1
			if t > 0 {
				prev = d.model.Labels.Get(prior[t-1])
			}
			for y, p := range localProbs(states, trans, t, prev) {
				label := d.model.Labels.String(y)
				if !v.Valid(t, seq, prior, label) {
					continue
				}
				if ns := cand.Extend(label, p); ns.Score() > minScore {
					next.Add(ns)
				}
			}
		}
		current, next = next, current
		next.Clear()
		if current.IsEmpty() {
			return nil
		}
	}

	results := make([]*beam.Sequence, 0, max(0, min(n, current.Size())))
	for len(results) < n {
		s, ok := current.Extract()
		if !ok {
			break
		}
		results = append(results, s)
	}
	return results
}
