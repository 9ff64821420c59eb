package beam

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoModel gives 0.8 to the outcome named by the single context feature and
// splits the rest evenly.
type echoModel struct {
	outcomes []string
	calls    int
}

func newEchoModel(outcomes ...string) *echoModel {
	return &echoModel{outcomes: outcomes}
}

func (m *echoModel) Eval(context []string) []float64 {
	return m.EvalInto(context, nil)
}

func (m *echoModel) EvalInto(context []string, probs []float64) []float64 {
	m.calls++
	n := len(m.outcomes)
	if cap(probs) < n {
		probs = make([]float64, n)
	}
	probs = probs[:n]
	idx := m.Index(context[0])
	for i := range probs {
		switch {
		case idx < 0:
			probs[i] = 1 / float64(n)
		case i == idx:
			probs[i] = 0.8
		default:
			probs[i] = 0.2 / float64(n-1)
		}
	}
	return probs
}

func (m *echoModel) Outcome(i int) string { return m.outcomes[i] }

func (m *echoModel) Index(outcome string) int {
	for i, o := range m.outcomes {
		if o == outcome {
			return i
		}
	}
	return -1
}

func (m *echoModel) NumOutcomes() int { return len(m.outcomes) }

var identityContext = ContextGeneratorFunc[string](func(i int, seq []string, _ []string, _ []any) []string {
	return []string{seq[i]}
})

func forbid(outcome string) Validator[string] {
	return ValidatorFunc[string](func(_ int, _ []string, _ []string, o string) bool {
		return o != outcome
	})
}

func TestBestSequenceFollowsModel(t *testing.T) {
	s := NewSearch[string](2, newEchoModel("1", "2", "3"))
	input := []string{"1", "2", "3", "2", "1"}

	best := s.BestSequence(input, nil, identityContext, nil)
	require.NotNil(t, best)
	if diff := cmp.Diff(input, best.Outcomes()); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, best.Probs(), len(input))
}

func TestBestSequenceRespectsValidator(t *testing.T) {
	s := NewSearch[string](2, newEchoModel("1", "2", "3"))
	input := []string{"1", "2", "3", "2", "1"}

	best := s.BestSequence(input, nil, identityContext, forbid("2"))
	require.NotNil(t, best)
	got := best.Outcomes()
	require.Len(t, got, 5)
	assert.Equal(t, "1", got[0])
	assert.Equal(t, "3", got[2])
	assert.Equal(t, "1", got[4])
	assert.NotEqual(t, "2", got[1])
	assert.NotEqual(t, "2", got[3])
}

func TestBestSequenceFallsBackBelowCutoff(t *testing.T) {
	// beam width 1 only looks at the top outcome, which the validator rejects
	s := NewSearch[string](1, newEchoModel("a", "b", "c"))
	input := []string{"a", "a"}
	onlyC := ValidatorFunc[string](func(_ int, _ []string, _ []string, o string) bool {
		return o == "c"
	})

	best := s.BestSequence(input, nil, identityContext, onlyC)
	require.NotNil(t, best)
	assert.Equal(t, []string{"c", "c"}, best.Outcomes())
}

func TestBestSequenceAllRejected(t *testing.T) {
	s := NewSearch[string](2, newEchoModel("a", "b"))
	none := ValidatorFunc[string](func(int, []string, []string, string) bool { return false })
	assert.Nil(t, s.BestSequence([]string{"a"}, nil, identityContext, none))
	assert.Empty(t, s.BestSequences(3, []string{"a"}, nil, identityContext, none))
}

func TestBestSequenceEmptyInput(t *testing.T) {
	s := NewSearch[string](3, newEchoModel("a", "b"))
	best := s.BestSequence(nil, nil, identityContext, nil)
	require.NotNil(t, best)
	assert.Equal(t, 0, best.Len())
	assert.Equal(t, 0.0, best.Score())
}

func TestBestSequencesNonPositiveCount(t *testing.T) {
	s := NewSearch[string](2, newEchoModel("a", "b"))
	for _, n := range []int{0, -1, -100} {
		var res []*Sequence
		require.NotPanics(t, func() {
			res = s.BestSequences(n, []string{"a"}, nil, identityContext, nil)
		})
		assert.Empty(t, res, "n=%d", n)
	}
}

func TestBestSequenceSingleToken(t *testing.T) {
	m := newEchoModel("a", "b", "c", "d")
	s := NewSearch[string](len(m.outcomes), m)
	for _, o := range m.outcomes {
		best := s.BestSequence([]string{o}, nil, identityContext, nil)
		require.NotNil(t, best)
		assert.Equal(t, []string{o}, best.Outcomes())
	}
}

func TestBestSequenceDeterministic(t *testing.T) {
	s := NewSearch[string](3, newEchoModel("1", "2", "3"))
	input := []string{"1", "x", "3", "x", "2", "x"}
	first := s.BestSequences(3, input, nil, identityContext, forbid("2"))
	for range 10 {
		again := s.BestSequences(3, input, nil, identityContext, forbid("2"))
		require.Len(t, again, len(first))
		for i := range first {
			assert.Equal(t, first[i].Outcomes(), again[i].Outcomes())
			assert.Equal(t, first[i].Score(), again[i].Score())
		}
	}
}

func TestBestSequencesBoundedByBeam(t *testing.T) {
	outcomes := make([]string, 10)
	for i := range outcomes {
		outcomes[i] = strconv.Itoa(i)
	}
	for _, width := range []int{1, 2, 4} {
		s := NewSearch[string](width, newEchoModel(outcomes...))
		res := s.BestSequences(100, []string{"1", "2", "3"}, nil, identityContext, nil)
		assert.Len(t, res, width)
		for i := 1; i < len(res); i++ {
			assert.GreaterOrEqual(t, res[i-1].Score(), res[i].Score())
		}
	}
}

func TestBestSequencesMinScore(t *testing.T) {
	s := NewSearch[string](3, newEchoModel("a", "b", "c"))
	input := []string{"a", "b"}
	all := s.BestSequences(3, input, nil, identityContext, nil)
	require.Len(t, all, 3)

	floor := all[0].Score() - 1e-9
	res := s.BestSequencesMinScore(3, input, nil, floor, identityContext, nil)
	require.Len(t, res, 1)
	assert.Equal(t, []string{"a", "b"}, res[0].Outcomes())
}

func TestSearchUsesCache(t *testing.T) {
	m := newEchoModel("a", "b", "c")
	s := NewSearch[string](3, m)
	// the context ignores history, so every candidate at a position shares it
	s.BestSequence([]string{"a", "b", "c", "a"}, nil, identityContext, nil)
	assert.Equal(t, 3, m.calls, "one evaluation per distinct context")

	m.calls = 0
	uncached := NewSearch[string](3, m, WithCacheSize(0))
	uncached.BestSequence([]string{"a", "b", "c", "a"}, nil, identityContext, nil)
	assert.Equal(t, 1+3+3+3, m.calls)
}

func TestSearchPassesHistoryAndAdditionalContext(t *testing.T) {
	m := newEchoModel("a", "b")
	s := NewSearch[string](2, m)
	var seen [][]string
	cg := ContextGeneratorFunc[string](func(i int, seq []string, prior []string, additional []any) []string {
		require.Len(t, prior, i)
		seen = append(seen, prior)
		return []string{additional[i].(string)}
	})
	best := s.BestSequence([]string{"x", "y"}, []any{"b", "a"}, cg, nil)
	require.NotNil(t, best)
	assert.Equal(t, []string{"b", "a"}, best.Outcomes())
	assert.NotEmpty(t, seen)
	assert.Equal(t, []string{"a", "b"}, s.Outcomes())
}
