package model

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphabet(t *testing.T) {
	a := NewAlphabet()
	id0 := a.Add("hello")
	id1 := a.Add("world")
	id2 := a.Add("hello")

	assert.Equal(t, []int{0, 1, 0}, []int{id0, id1, id2})
	assert.Equal(t, 2, a.Size())
	assert.Equal(t, -1, a.Get("missing"))
	assert.Equal(t, "world", a.String(1))
	assert.Equal(t, "", a.String(5))
}

func TestLinearModelEval(t *testing.T) {
	m := NewLinearModel(NewAlphabet("a", "b"), NewAlphabet("X", "Y"))
	m.Weights[0] = []float64{1, 0}
	m.Weights[1] = []float64{0, 2}

	probs := m.Eval([]string{"a", "unknown"})
	require.Len(t, probs, 2)
	assert.InDelta(t, math.E/(math.E+1), probs[0], 1e-12)
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-12)

	buf := make([]float64, 2)
	again := m.EvalInto([]string{"a", "unknown"}, buf)
	assert.Equal(t, probs, again)
	assert.Equal(t, "X", Best(m, probs))
	assert.Equal(t, []string{"X", "Y"}, Outcomes(m))
	assert.Equal(t, 1, m.Index("Y"))
}

func TestLinearModelBias(t *testing.T) {
	m := NewLinearModel(NewAlphabet(), NewAlphabet("X", "Y"))
	m.Bias = []float64{0, math.Log(3)}
	probs := m.Eval(nil)
	assert.InDelta(t, 0.25, probs[0], 1e-12)
	assert.InDelta(t, 0.75, probs[1], 1e-12)
}

func TestSoftmaxStable(t *testing.T) {
	scores := []float64{1000, 1000}
	Softmax(scores)
	assert.Equal(t, []float64{0.5, 0.5}, scores)
}

func events() []Event {
	return []Event{
		NewEvent("N", []string{"w=dog", "bias"}),
		NewEvent("N", []string{"w=dog", "bias"}),
		NewEvent("V", []string{"w=runs", "bias"}),
		NewEvent("N", []string{"w=cat", "bias"}),
	}
}

func TestIndexMergesDuplicates(t *testing.T) {
	for _, kind := range []IndexerKind{OnePass, TwoPass} {
		d, err := Index(slices.Values(events()), 0, kind)
		require.NoError(t, err)
		assert.Equal(t, 3, d.NumEvents(), kind)
		assert.Equal(t, 4, d.TotalEvents(), kind)
		assert.Equal(t, []int{2, 1, 1}, d.Counts, kind)
		assert.Equal(t, 2, d.Labels.Size(), kind)
	}
}

func TestIndexCutoff(t *testing.T) {
	for _, kind := range []IndexerKind{OnePass, TwoPass} {
		d, err := Index(slices.Values(events()), 2, kind)
		require.NoError(t, err)
		assert.Equal(t, []string{"w=dog", "bias"}, d.Predicates.ToStr, kind)
		assert.Equal(t, []int{2, 4}, d.PredCounts, kind)
		// w=runs and w=cat fall below the cutoff, leaving bias-only contexts
		assert.Equal(t, 3, d.NumEvents(), kind)
	}
}

func TestIndexKinds(t *testing.T) {
	_, err := Index(slices.Values(events()), 0, "ThreePass")
	assert.Error(t, err)

	k, err := ParseIndexerKind("TwoPass")
	require.NoError(t, err)
	assert.Equal(t, TwoPass, k)
	_, err = ParseIndexerKind("twopass")
	assert.Error(t, err)
}

func TestEventString(t *testing.T) {
	e := Event{Outcome: "N", Context: []string{"a", "b"}, Values: []float64{1, 0.5}}
	assert.Equal(t, "N [a=1 b=0.5]", e.String())
	assert.Equal(t, "V [x]", NewEvent("V", []string{"x"}).String())
}
