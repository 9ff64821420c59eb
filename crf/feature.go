package crf

import (
	"maps"
	"slices"

	"github.com/happyhackingspace/nlpkit/model"
)

// ContextToAttributes turns a feature context into CRF attributes. Repeated
// predicates add up.
func ContextToAttributes(context []string) map[string]float64 {
	attrs := make(map[string]float64, len(context))
	for _, p := range context {
		attrs[p]++
	}
	return attrs
}

// BuildAttributeAlphabet builds the attribute alphabet from training
// sequences, keeping attributes seen in at least cutoff positions.
func BuildAttributeAlphabet(sequences []TrainingSequence, cutoff int) *model.Alphabet {
	counts := make(map[string]int)
	var order []string
	for _, seq := range sequences {
		for _, feats := range seq.Features {
			for _, attr := range slices.Sorted(maps.Keys(feats)) {
				if counts[attr] == 0 {
					order = append(order, attr)
				}
				counts[attr]++
			}
		}
	}
	alpha := model.NewAlphabet()
	for _, attr := range order {
		if counts[attr] >= cutoff {
			alpha.Add(attr)
		}
	}
	return alpha
}

// BuildLabelAlphabet builds the label alphabet from training sequences.
func BuildLabelAlphabet(sequences []TrainingSequence) *model.Alphabet {
	alpha := model.NewAlphabet()
	for _, seq := range sequences {
		for _, label := range seq.Labels {
			alpha.Add(label)
		}
	}
	return alpha
}
