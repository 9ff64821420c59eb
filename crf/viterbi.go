package crf

import (
	"math"

	"github.com/happyhackingspace/nlpkit/model"
)

// Viterbi finds the best label sequence using the Viterbi algorithm (log-domain).
func Viterbi(stateScores, transScores [][]float64) ([]int, float64) {
	T := len(stateScores)
	if T == 0 {
		return nil, math.Inf(-1)
	}
	L := len(stateScores[0])

	// delta[t][y] = best score ending at time t with label y
	delta := make([][]float64, T)
	// psi[t][y] = best previous label for backtracking
	psi := make([][]int, T)

	// t = 0
	delta[0] = make([]float64, L)
	psi[0] = make([]int, L)
	for y := range L {
		delta[0][y] = stateScores[0][y]
		psi[0][y] = 0
	}

	// t = 1..T-1
	for t := 1; t < T; t++ {
		delta[t] = make([]float64, L)
		psi[t] = make([]int, L)
		for y := range L {
			bestScore := math.Inf(-1)
			bestPrev := 0
			for yp := range L {
				score := delta[t-1][yp] + transScores[yp][y]
				if score > bestScore {
					bestScore = score
					bestPrev = yp
				}
			}
			delta[t][y] = bestScore + stateScores[t][y]
			psi[t][y] = bestPrev
		}
	}

	// Find best final label
	bestScore := math.Inf(-1)
	bestLabel := 0
	for y := range L {
		if delta[T-1][y] > bestScore {
			bestScore = delta[T-1][y]
			bestLabel = y
		}
	}

	// Backtrack
	path := make([]int, T)
	path[T-1] = bestLabel
	for t := T - 2; t >= 0; t-- {
		path[t] = psi[t+1][path[t+1]]
	}

	return path, bestScore
}

// Predict returns the best label sequence as strings.
func (m *Model) Predict(features []map[string]float64) []string {
	path, _ := Viterbi(m.ComputeStateScores(features), m.ComputeTransScores())
	labels := make([]string, len(path))
	for i, id := range path {
		labels[i] = m.Labels.String(id)
	}
	return labels
}

// PredictMarginals returns marginal probabilities for each position.
func (m *Model) PredictMarginals(features []map[string]float64) []map[string]float64 {
	marginals := m.Marginals(features)
	result := make([]map[string]float64, len(features))
	for t := range features {
		result[t] = make(map[string]float64, m.NumLabels)
		for y := range m.NumLabels {
			result[t][m.Labels.String(y)] = marginals[t][y]
		}
	}
	return result
}

// localProbs returns P(y_t | y_{t-1}=prev, x) for every label; prev < 0
// means the sequence start.
func localProbs(states [][]float64, trans [][]float64, t, prev int) []float64 {
	probs := make([]float64, len(states[t]))
	copy(probs, states[t])
	if prev >= 0 {
		for y := range probs {
			probs[y] += trans[prev][y]
		}
	}
	model.Softmax(probs)
	return probs
}
