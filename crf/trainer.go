package crf

import (
	"context"
	"log/slog"

	"github.com/happyhackingspace/nlpkit/internal/optimize"
	"github.com/pkg/errors"
)

// TrainerConfig holds CRF training hyperparameters.
type TrainerConfig struct {
	C1            float64 // L1 regularization
	C2            float64 // L2 regularization
	MaxIterations int
	Epsilon       float64 // convergence threshold
	Cutoff        int     // minimum attribute frequency
	// OnIteration is called after every optimizer iteration; returning an
	// error stops training.
	OnIteration func(iter int, loss float64) error
}

// DefaultTrainerConfig returns default training config.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		C1:            0.1655,
		C2:            0.0236,
		MaxIterations: 100,
		Epsilon:       1e-5,
		Cutoff:        1,
	}
}

type internalSeq struct {
	features [][]featureEntry // [T][...] (attrID, value)
	labels   []int            // [T] label IDs
}

// Train trains a CRF model on the given sequences using OWL-QN.
func Train(ctx context.Context, sequences []TrainingSequence, config TrainerConfig) (*Model, error) {
	for i, seq := range sequences {
		if len(seq.Features) != len(seq.Labels) {
			return nil, errors.Errorf("sequence %d: %d feature positions but %d labels", i, len(seq.Features), len(seq.Labels))
		}
	}

	m := NewModel()
	m.Labels = BuildLabelAlphabet(sequences)
	m.Attributes = BuildAttributeAlphabet(sequences, config.Cutoff)
	m.NumLabels = m.Labels.Size()
	if m.NumLabels == 0 {
		return nil, errors.New("no labels in training data")
	}
	m.Weights = make([]float64, m.NumWeights())

	internals := make([]internalSeq, 0, len(sequences))
	for _, seq := range sequences {
		if len(seq.Features) == 0 {
			continue
		}
		is := internalSeq{
			features: m.indexFeatures(seq.Features),
			labels:   make([]int, len(seq.Labels)),
		}
		for t, label := range seq.Labels {
			is.labels[t] = m.Labels.Get(label)
		}
		internals = append(internals, is)
	}
	slog.Debug("CRF training started", "sequences", len(internals), "labels", m.NumLabels,
		"attributes", m.Attributes.Size(), "weights", len(m.Weights))

	objective := func(w, grad []float64) float64 {
		return negLogLikelihood(m, internals, w, grad, config.C2)
	}
	optCfg := optimize.Config{
		L1:            config.C1,
		MaxIterations: config.MaxIterations,
		Epsilon:       config.Epsilon,
		Memory:        10,
		OnIteration: func(iter int, loss float64) error {
			slog.Debug("CRF training iteration", "iteration", iter, "nll", loss)
			if config.OnIteration != nil {
				return config.OnIteration(iter, loss)
			}
			return nil
		},
	}
	res, err := optimize.Minimize(ctx, objective, m.Weights, optCfg)
	if err != nil {
		return nil, errors.Wrap(err, "crf training")
	}
	slog.Debug("CRF training finished", "iterations", res.Iterations, "nll", res.Loss, "converged", res.Converged)
	return m, nil
}

// negLogLikelihood returns the L2-regularised negative log-likelihood of
// the training data under weights w, filling grad when it is non-nil.
func negLogLikelihood(m *Model, internals []internalSeq, w, grad []float64, c2 float64) float64 {
	L := m.NumLabels
	transOffset := m.TransOffset()
	if grad != nil {
		clear(grad)
	}
	trans := transScores(w, L, transOffset)

	nll := 0.0
	for _, is := range internals {
		T := len(is.features)
		states := stateScores(w, L, is.features)
		fb := ForwardBackward(states, trans)

		// -score(y*) + logZ
		goldScore := 0.0
		for t := range T {
			y := is.labels[t]
			goldScore += states[t][y]
			if t > 0 {
				goldScore += trans[is.labels[t-1]][y]
			}
		}
		nll += fb.LogZ - goldScore

		if grad == nil {
			continue
		}
		// E_model[f_k|x] - E_empirical[f_k]
		for t := range T {
			goldY := is.labels[t]
			for _, fe := range is.features[t] {
				grad[fe.attrID*L+goldY] -= fe.value
				for y := range L {
					grad[fe.attrID*L+y] += fb.Marginals[t][y] * fe.value
				}
			}
		}
		if T > 1 {
			transMarg := TransitionMarginals(fb, states, trans)
			for t := range T - 1 {
				yp, y := is.labels[t], is.labels[t+1]
				grad[transOffset+yp*L+y] -= 1.0
				for i := range L {
					for j := range L {
						grad[transOffset+i*L+j] += transMarg[t][i][j]
					}
				}
			}
		}
	}

	if c2 > 0 {
		l2 := 0.0
		for i, v := range w {
			l2 += v * v
			if grad != nil {
				grad[i] += c2 * v
			}
		}
		nll += 0.5 * c2 * l2
	}
	return nll
}
