// Package model defines the probability-model contract consumed by the
// sequence decoder, the training event types, and the linear model produced
// by the built-in event trainers.
package model

import "math"

// Model evaluates a feature context into a distribution over outcomes.
// Implementations must be safe for concurrent reads.
type Model interface {
	// Eval returns one probability per outcome for the given context.
	Eval(context []string) []float64
	// EvalInto behaves like Eval but writes into probs when it has room.
	EvalInto(context []string, probs []float64) []float64
	// Outcome returns the outcome label for index i.
	Outcome(i int) string
	// Index returns the index of outcome, or -1 if unknown.
	Index(outcome string) int
	// NumOutcomes returns the number of possible outcomes.
	NumOutcomes() int
}

// Outcomes lists every outcome of m in index order.
func Outcomes(m Model) []string {
	out := make([]string, m.NumOutcomes())
	for i := range out {
		out[i] = m.Outcome(i)
	}
	return out
}

// Best returns the outcome with the highest probability in probs.
func Best(m Model, probs []float64) string {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return m.Outcome(best)
}

// LinearModel scores each outcome as the bias plus the sum of the weights of
// the active predicates, then normalises with a softmax. Maxent, perceptron
// and naive Bayes training all produce this shape.
type LinearModel struct {
	Predicates *Alphabet   `json:"predicates"`
	Labels     *Alphabet   `json:"labels"`
	Weights    [][]float64 `json:"weights"` // [predicate][outcome]
	Bias       []float64   `json:"bias,omitempty"`
}

// NewLinearModel allocates zero weights for the given alphabets.
func NewLinearModel(predicates, labels *Alphabet) *LinearModel {
	w := make([][]float64, predicates.Size())
	for i := range w {
		w[i] = make([]float64, labels.Size())
	}
	return &LinearModel{
		Predicates: predicates,
		Labels:     labels,
		Weights:    w,
	}
}

// Eval implements Model.
func (m *LinearModel) Eval(context []string) []float64 {
	return m.EvalInto(context, nil)
}

// EvalInto implements Model.
func (m *LinearModel) EvalInto(context []string, probs []float64) []float64 {
	n := m.Labels.Size()
	if cap(probs) < n {
		probs = make([]float64, n)
	}
	probs = probs[:n]
	if len(m.Bias) == n {
		copy(probs, m.Bias)
	} else {
		clear(probs)
	}
	for _, pred := range context {
		id := m.Predicates.Get(pred)
		if id < 0 {
			continue
		}
		for o, w := range m.Weights[id] {
			probs[o] += w
		}
	}
	Softmax(probs)
	return probs
}

// EvalIDs scores an already indexed context with optional real values.
func (m *LinearModel) EvalIDs(context []int, values []float64, probs []float64) []float64 {
	n := m.Labels.Size()
	if cap(probs) < n {
		probs = make([]float64, n)
	}
	probs = probs[:n]
	if len(m.Bias) == n {
		copy(probs, m.Bias)
	} else {
		clear(probs)
	}
	for j, id := range context {
		v := 1.0
		if values != nil {
			v = values[j]
		}
		for o, w := range m.Weights[id] {
			probs[o] += w * v
		}
	}
	Softmax(probs)
	return probs
}

// Outcome implements Model.
func (m *LinearModel) Outcome(i int) string { return m.Labels.String(i) }

// Index implements Model.
func (m *LinearModel) Index(outcome string) int { return m.Labels.Get(outcome) }

// NumOutcomes implements Model.
func (m *LinearModel) NumOutcomes() int { return m.Labels.Size() }

// Softmax normalises scores in place into probabilities.
func Softmax(scores []float64) {
	if len(scores) == 0 {
		return
	}
	maxVal := scores[0]
	for _, v := range scores[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	sum := 0.0
	for i, v := range scores {
		scores[i] = math.Exp(v - maxVal)
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
}
