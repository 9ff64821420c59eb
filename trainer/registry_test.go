package trainer

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyhackingspace/nlpkit/model"
)

type stubEventTrainer struct{ Base }

func (s *stubEventTrainer) Train(context.Context, iter.Seq[model.Event]) (model.Model, error) {
	return model.NewLinearModel(model.NewAlphabet("f"), model.NewAlphabet("A")), nil
}

type stubDualTrainer struct{ stubEventTrainer }

func (s *stubDualTrainer) TrainSequences(context.Context, *SequenceCorpus) (model.Model, error) {
	return nil, nil
}

type bareTrainer struct{ Base }

func newStub(m Monitor) Trainer { return &stubEventTrainer{Base: NewBase(m)} }

func params(t *testing.T, pairs ...string) *Params {
	t.Helper()
	p, err := ParseParams(pairs)
	require.NoError(t, err)
	return p
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryEventModel, CategoryOf(NewGISTrainer(nil)))
	assert.Equal(t, CategoryEventModelSequence, CategoryOf(NewSequencePerceptronTrainer(nil)))
	assert.Equal(t, CategorySequence, CategoryOf(NewCRFTrainer(nil)))
	assert.Equal(t, CategoryUnknown, CategoryOf(&bareTrainer{}))
	assert.Equal(t, CategoryUnknown, CategoryOf(&stubDualTrainer{}))
}

func TestResolveCategory(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, CategoryEventModel, r.ResolveCategory(NewParams()))
	assert.Equal(t, CategoryEventModel, r.ResolveCategory(params(t, "Algorithm=MAXENT_QN")))
	assert.Equal(t, CategoryEventModelSequence, r.ResolveCategory(params(t, "Algorithm=PERCEPTRON_SEQUENCE")))
	assert.Equal(t, CategorySequence, r.ResolveCategory(params(t, "Algorithm=CRF")))
	assert.Equal(t, CategoryUnknown, r.ResolveCategory(params(t, "Algorithm=NOPE")))
}

func TestRegister(t *testing.T) {
	r := NewRegistry()

	err := r.Register(AlgorithmMaxent, CategoryEventModel, newStub)
	assert.ErrorIs(t, err, ErrBuiltinName)

	require.NoError(t, r.Register("STUB", CategoryEventModel, newStub))
	assert.Equal(t, CategoryEventModel, r.ResolveCategory(params(t, "Algorithm=STUB")))

	err = r.Register("STUB", CategoryEventModel, newStub)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	err = r.Register("BARE", CategoryEventModel, func(m Monitor) Trainer { return &bareTrainer{Base: NewBase(m)} })
	assert.ErrorIs(t, err, ErrInvalidTrainer)

	err = r.Register("WRONG", CategorySequence, newStub)
	assert.ErrorIs(t, err, ErrInvalidTrainer)

	err = r.Register("DUAL", CategoryEventModel, func(m Monitor) Trainer {
		return &stubDualTrainer{stubEventTrainer{Base: NewBase(m)}}
	})
	assert.ErrorIs(t, err, ErrInvalidTrainer, "several capability sets")

	assert.ErrorIs(t, r.Register("NIL", CategoryEventModel, nil), ErrInvalidTrainer)
	assert.ErrorIs(t, r.Register("UNK", CategoryUnknown, newStub), ErrInvalidTrainer)
	assert.Equal(t, CategoryUnknown, r.ResolveCategory(params(t, "Algorithm=BARE")))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	require.NoError(t, a.Register("STUB", CategoryEventModel, newStub))
	assert.Equal(t, CategoryUnknown, b.ResolveCategory(params(t, "Algorithm=STUB")))
}

func TestGetTrainer(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("STUB", CategoryEventModel, newStub))

	report := NewReport()
	et, err := r.EventTrainer(params(t, "Algorithm=STUB", "Cutoff=1"), report, nil)
	require.NoError(t, err)
	_, ok := et.(*stubEventTrainer)
	assert.True(t, ok)
	algorithm, _ := report.Get(AlgorithmParam)
	assert.Equal(t, "STUB", algorithm)

	et, err = r.EventTrainer(NewParams(), nil, nil)
	require.NoError(t, err)
	_, ok = et.(*GISTrainer)
	assert.True(t, ok, "no algorithm defaults to GIS")

	_, err = r.SequenceTrainer(params(t, "Algorithm=STUB"), nil, nil)
	assert.ErrorIs(t, err, ErrCategoryMismatch)

	_, err = r.EventTrainer(params(t, "Algorithm=CRF"), nil, nil)
	assert.ErrorIs(t, err, ErrCategoryMismatch)

	_, err = r.EventTrainer(params(t, "Algorithm=NOPE"), nil, nil)
	assert.ErrorIs(t, err, ErrUnknownTrainer)

	_, err = r.EventTrainer(params(t, "Algorithm=MAXENT", "Iterations=0"), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidParams)

	st, err := r.SequenceTrainer(params(t, "Algorithm=CRF"), nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &CRFTrainer{}, st)

	sq, err := r.EventModelSequenceTrainer(params(t, "Algorithm=PERCEPTRON_SEQUENCE"), nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &SequencePerceptronTrainer{}, sq)
}

func TestIsConfigurationValid(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.IsConfigurationValid(DefaultParams()))
	assert.True(t, r.IsConfigurationValid(NewParams()))
	assert.True(t, r.IsConfigurationValid(params(t, "Algorithm=PERCEPTRON", "DataIndexer=TwoPass")))
	assert.False(t, r.IsConfigurationValid(params(t, "Algorithm=NOPE")))
	assert.False(t, r.IsConfigurationValid(params(t, "DataIndexer=ThreePass")))
	assert.False(t, r.IsConfigurationValid(params(t, "Cutoff=x")))

	err := r.ValidateParams(params(t, "Algorithm=NOPE", "Iterations=-3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOPE")
	assert.Contains(t, err.Error(), "Iterations")
}

func TestValidateParamsRunsTrainerChecks(t *testing.T) {
	r := NewRegistry()
	bad := params(t, "Algorithm=CRF", "L1Cost=-1", "BeamSize=0")
	assert.False(t, r.IsConfigurationValid(bad))

	err := r.ValidateParams(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), L1CostParam)
	assert.Contains(t, err.Error(), BeamSizeParam)

	_, getErr := r.SequenceTrainer(bad, nil, nil)
	assert.Error(t, getErr)

	assert.False(t, r.IsConfigurationValid(params(t, "Tolerance=-1")), "defaults to MAXENT checks")
	assert.False(t, r.IsConfigurationValid(params(t, "Algorithm=MAXENT_QN", "NumOfUpdates=0")))
	assert.True(t, r.IsConfigurationValid(params(t, "Algorithm=CRF", "L1Cost=0", "BeamSize=2")))
	assert.False(t, r.IsConfigurationValid(params(t, "Algorithm=")))
}

func TestRegisterFactoryMayConsultRegistry(t *testing.T) {
	r := NewRegistry()
	done := make(chan error, 1)
	go func() {
		done <- r.Register("LOOKUP", CategoryEventModel, func(m Monitor) Trainer {
			_ = r.Algorithms()
			_ = r.ResolveCategory(DefaultParams())
			return newStub(m)
		})
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Register blocked while the factory read the registry")
	}
	assert.Equal(t, CategoryEventModel, r.ResolveCategory(params(t, "Algorithm=LOOKUP")))
}

func TestAlgorithms(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("AAA", CategoryEventModel, newStub))
	algs := r.Algorithms()
	require.Len(t, algs, 7)
	assert.Equal(t, "AAA", algs[0].Name)
	assert.False(t, algs[0].Builtin)
	names := make([]string, len(algs))
	for i, a := range algs {
		names[i] = a.Name
	}
	assert.IsIncreasing(t, names)
}
