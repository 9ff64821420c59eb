package trainer

import (
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Built-in algorithm names.
const (
	AlgorithmMaxent             = "MAXENT"
	AlgorithmMaxentQN           = "MAXENT_QN"
	AlgorithmPerceptron         = "PERCEPTRON"
	AlgorithmNaiveBayes         = "NAIVEBAYES"
	AlgorithmPerceptronSequence = "PERCEPTRON_SEQUENCE"
	AlgorithmCRF                = "CRF"
)

// Factory builds an uninitialised trainer reporting to monitor.
type Factory func(monitor Monitor) Trainer

type entry struct {
	category Category
	factory  Factory
}

// Algorithm describes a registered trainer.
type Algorithm struct {
	Name     string   `json:"name"`
	Category Category `json:"-"`
	Kind     string   `json:"category"`
	Builtin  bool     `json:"builtin"`
}

// Registry maps algorithm names to trainer factories. Registration is
// expected at start-up; lookups may run concurrently with it.
type Registry struct {
	mu      sync.RWMutex
	builtin map[string]entry
	custom  map[string]entry
}

// NewRegistry returns a registry holding the built-in trainers.
func NewRegistry() *Registry {
	return &Registry{
		builtin: map[string]entry{
			AlgorithmMaxent:             {CategoryEventModel, NewGISTrainer},
			AlgorithmMaxentQN:           {CategoryEventModel, NewQNTrainer},
			AlgorithmPerceptron:         {CategoryEventModel, NewPerceptronTrainer},
			AlgorithmNaiveBayes:         {CategoryEventModel, NewNaiveBayesTrainer},
			AlgorithmPerceptronSequence: {CategoryEventModelSequence, NewSequencePerceptronTrainer},
			AlgorithmCRF:                {CategorySequence, NewCRFTrainer},
		},
		custom: make(map[string]entry),
	}
}

func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.builtin[name]; ok {
		return e, true
	}
	e, ok := r.custom[name]
	return e, ok
}

// Register adds a custom trainer under name. The factory is called once,
// outside the lock, to check that its product implements exactly the
// declared category.
func (r *Registry) Register(name string, category Category, factory Factory) error {
	if name == "" {
		return errors.Wrap(ErrInvalidTrainer, "empty name")
	}
	if factory == nil {
		return errors.Wrapf(ErrInvalidTrainer, "%s: nil factory", name)
	}
	if category == CategoryUnknown {
		return errors.Wrapf(ErrInvalidTrainer, "%s: unknown category", name)
	}
	if err := r.checkName(name); err != nil {
		return err
	}
	if t := factory(NopMonitor()); t == nil || CategoryOf(t) != category {
		return errors.Wrapf(ErrInvalidTrainer, "%s does not implement exactly the %s contract", name, category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkNameLocked(name); err != nil {
		return err
	}
	r.custom[name] = entry{category: category, factory: factory}
	return nil
}

func (r *Registry) checkName(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checkNameLocked(name)
}

func (r *Registry) checkNameLocked(name string) error {
	if _, ok := r.builtin[name]; ok {
		return errors.Wrap(ErrBuiltinName, name)
	}
	if _, ok := r.custom[name]; ok {
		return errors.Wrap(ErrAlreadyRegistered, name)
	}
	return nil
}

// ResolveCategory returns the category of the configured algorithm. With no
// algorithm configured the event-model category is assumed.
func (r *Registry) ResolveCategory(params *Params) Category {
	name, ok := params.Get(AlgorithmParam)
	if !ok {
		return CategoryEventModel
	}
	e, ok := r.lookup(name)
	if !ok {
		return CategoryUnknown
	}
	return e.category
}

// ValidateParams reports every problem with params: the base checks, an
// algorithm name that resolves to no trainer, and the resolved trainer's
// own parameter checks.
func (r *Registry) ValidateParams(params *Params) error {
	if params == nil {
		params = NewParams()
	}
	name, ok := params.Get(AlgorithmParam)
	if !ok {
		name = AlgorithmMaxent
	}
	e, found := r.lookup(name)
	if !found || name == "" {
		base := NewBase(nil)
		_ = base.Init(params, NewReport())
		var result *multierror.Error
		result = multierror.Append(result, base.IsValid())
		if name != "" {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidParams, "unknown algorithm %q", name))
		}
		return result.ErrorOrNil()
	}

	t := e.factory(NopMonitor())
	if t == nil {
		return errors.Wrapf(ErrInvalidTrainer, "%s: factory returned nil", name)
	}
	if err := t.Init(params, NewReport()); err != nil {
		return errors.Wrapf(err, "init %s", name)
	}
	return t.IsValid()
}

// IsConfigurationValid reports whether ValidateParams finds no problem.
func (r *Registry) IsConfigurationValid(params *Params) bool {
	return r.ValidateParams(params) == nil
}

func (r *Registry) newTrainer(want Category, params *Params, report *Report, monitor Monitor) (Trainer, error) {
	if params == nil {
		params = NewParams()
	}
	name, ok := params.Get(AlgorithmParam)
	if !ok {
		name = AlgorithmMaxent
	}
	e, found := r.lookup(name)
	if !found {
		return nil, errors.Wrap(ErrUnknownTrainer, name)
	}
	if e.category != want {
		return nil, errors.Wrapf(ErrCategoryMismatch, "%s is a %s trainer, not %s", name, e.category, want)
	}
	t := e.factory(monitor)
	if t == nil || CategoryOf(t) != want {
		return nil, errors.Wrapf(ErrCategoryMismatch, "%s does not implement the %s contract", name, want)
	}
	if err := t.Init(params, report); err != nil {
		return nil, errors.Wrapf(err, "init %s", name)
	}
	report.Put(AlgorithmParam, name)
	if err := t.IsValid(); err != nil {
		return nil, errors.Wrapf(err, "validate %s", name)
	}
	return t, nil
}

// EventTrainer returns the configured event trainer, initialised and
// validated.
func (r *Registry) EventTrainer(params *Params, report *Report, monitor Monitor) (EventTrainer, error) {
	t, err := r.newTrainer(CategoryEventModel, params, report, monitor)
	if err != nil {
		return nil, err
	}
	return t.(EventTrainer), nil
}

// EventModelSequenceTrainer returns the configured event-model sequence
// trainer.
func (r *Registry) EventModelSequenceTrainer(params *Params, report *Report, monitor Monitor) (EventModelSequenceTrainer, error) {
	t, err := r.newTrainer(CategoryEventModelSequence, params, report, monitor)
	if err != nil {
		return nil, err
	}
	return t.(EventModelSequenceTrainer), nil
}

// SequenceTrainer returns the configured sequence trainer.
func (r *Registry) SequenceTrainer(params *Params, report *Report, monitor Monitor) (SequenceTrainer, error) {
	t, err := r.newTrainer(CategorySequence, params, report, monitor)
	if err != nil {
		return nil, err
	}
	return t.(SequenceTrainer), nil
}

// Algorithms lists every registered trainer sorted by name.
func (r *Registry) Algorithms() []Algorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Algorithm, 0, len(r.builtin)+len(r.custom))
	for name, e := range r.builtin {
		out = append(out, Algorithm{Name: name, Category: e.category, Kind: e.category.String(), Builtin: true})
	}
	for name, e := range r.custom {
		out = append(out, Algorithm{Name: name, Category: e.category, Kind: e.category.String()})
	}
	slices.SortFunc(out, func(a, b Algorithm) int { return strings.Compare(a.Name, b.Name) })
	return out
}
