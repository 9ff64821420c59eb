// Package crf implements a linear-chain Conditional Random Field. It backs
// the CRF sequence trainer: the model is sequence-aware end to end and
// decodes whole label paths itself instead of going through a per-token
// probability model.
package crf

import (
	"maps"
	"slices"

	"github.com/happyhackingspace/nlpkit/model"
)

// Model holds the CRF parameters.
type Model struct {
	Labels     *model.Alphabet `json:"labels"`
	Attributes *model.Alphabet `json:"attributes"`
	Weights    []float64       `json:"weights"`
	NumLabels  int             `json:"num_labels"`
	// Weight layout: [state_features... | transition_features...]
	// State feature index: attrID * numLabels + labelID
	// Transition feature index: transOffset + fromLabelID * numLabels + toLabelID
}

// NewModel creates a new empty model.
func NewModel() *Model {
	return &Model{
		Labels:     model.NewAlphabet(),
		Attributes: model.NewAlphabet(),
	}
}

// TransOffset returns the offset where transition features start in the weight vector.
func (m *Model) TransOffset() int {
	return m.Attributes.Size() * m.NumLabels
}

// NumWeights returns the total number of weights.
func (m *Model) NumWeights() int {
	return m.TransOffset() + m.NumLabels*m.NumLabels
}

// StateFeatureIndex returns the weight index for a state feature.
func (m *Model) StateFeatureIndex(attrID, labelID int) int {
	return attrID*m.NumLabels + labelID
}

// TransFeatureIndex returns the weight index for a transition feature.
func (m *Model) TransFeatureIndex(fromLabelID, toLabelID int) int {
	return m.TransOffset() + fromLabelID*m.NumLabels + toLabelID
}

// TrainingSequence represents a labeled sequence for training.
type TrainingSequence struct {
	Features []map[string]float64 // per-position feature dicts
	Labels   []string             // gold labels
}

// ComputeStateScores computes state feature scores for each position and label.
// Returns [T][L] matrix where T is sequence length and L is number of labels.
func (m *Model) ComputeStateScores(features []map[string]float64) [][]float64 {
	return stateScores(m.Weights, m.NumLabels, m.indexFeatures(features))
}

// ComputeTransScores returns the [L][L] transition score matrix.
func (m *Model) ComputeTransScores() [][]float64 {
	return transScores(m.Weights, m.NumLabels, m.TransOffset())
}

func (m *Model) indexFeatures(features []map[string]float64) [][]featureEntry {
	out := make([][]featureEntry, len(features))
	for t, feats := range features {
		for _, attr := range slices.Sorted(maps.Keys(feats)) {
			if id := m.Attributes.Get(attr); id >= 0 {
				out[t] = append(out[t], featureEntry{id, feats[attr]})
			}
		}
	}
	return out
}

type featureEntry struct {
	attrID int
	value  float64
}

func stateScores(w []float64, numLabels int, features [][]featureEntry) [][]float64 {
	scores := make([][]float64, len(features))
	for t, feats := range features {
		scores[t] = make([]float64, numLabels)
		for _, fe := range feats {
			base := fe.attrID * numLabels
			for y := range numLabels {
				scores[t][y] += w[base+y] * fe.value
			}
		}
	}
	return scores
}

func transScores(w []float64, numLabels, offset int) [][]float64 {
	trans := make([][]float64, numLabels)
	for i := range numLabels {
		trans[i] = make([]float64, numLabels)
		copy(trans[i], w[offset+i*numLabels:offset+(i+1)*numLabels])
	}
	return trans
}
