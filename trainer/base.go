package trainer

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/happyhackingspace/nlpkit/model"
)

// Base carries the state every trainer shares: the configuration it was
// initialised with, the report it writes the used values to, and the
// progress monitor. Concrete trainers embed it.
type Base struct {
	params      *Params
	report      *Report
	monitor     Monitor
	initialized bool
}

// NewBase returns a Base reporting to monitor. A nil monitor discards
// messages.
func NewBase(monitor Monitor) Base {
	if monitor == nil {
		monitor = NopMonitor()
	}
	return Base{monitor: monitor}
}

// Init binds the configuration and report. It may be called only once; the
// configuration is never modified.
func (b *Base) Init(params *Params, report *Report) error {
	if b.initialized {
		return ErrAlreadyInitialized
	}
	if params == nil {
		params = NewParams()
	}
	if report == nil {
		report = NewReport()
	}
	if b.monitor == nil {
		b.monitor = NopMonitor()
	}
	b.params = params
	b.report = report
	b.initialized = true
	return nil
}

// Initialized reports whether Init has run.
func (b *Base) Initialized() bool { return b.initialized }

// Params returns the bound configuration.
func (b *Base) Params() *Params { return b.params }

// Report returns the bound report.
func (b *Base) Report() *Report { return b.report }

// Algorithm returns the configured algorithm name, or "" when unset.
func (b *Base) Algorithm() string {
	v, _ := b.params.Get(AlgorithmParam)
	return v
}

// Cutoff returns the predicate frequency cutoff.
func (b *Base) Cutoff() int { return b.IntParam(CutoffParam, DefaultCutoff) }

// Iterations returns the training iteration count.
func (b *Base) Iterations() int { return b.IntParam(IterationsParam, DefaultIterations) }

// Indexer returns the configured data indexer kind.
func (b *Base) Indexer() model.IndexerKind {
	return model.IndexerKind(b.StringParam(DataIndexerParam, string(model.OnePass)))
}

// StringParam returns the value for key, or def when absent. The value used
// is recorded in the report.
func (b *Base) StringParam(key, def string) string {
	v, ok := b.params.Get(key)
	if !ok {
		v = def
	}
	b.report.Put(key, v)
	return v
}

// IntParam returns key as an int, or def when absent or malformed.
func (b *Base) IntParam(key string, def int) int {
	v := def
	if s, ok := b.params.Get(key); ok {
		if n, err := strconv.Atoi(s); err == nil {
			v = n
		}
	}
	b.report.Put(key, strconv.Itoa(v))
	return v
}

// FloatParam returns key as a float64, or def when absent or malformed.
func (b *Base) FloatParam(key string, def float64) float64 {
	v := def
	if s, ok := b.params.Get(key); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			v = f
		}
	}
	b.report.Put(key, strconv.FormatFloat(v, 'g', -1, 64))
	return v
}

// BoolParam returns key as a bool, or def when absent or malformed.
func (b *Base) BoolParam(key string, def bool) bool {
	v := def
	if s, ok := b.params.Get(key); ok {
		if f, err := strconv.ParseBool(s); err == nil {
			v = f
		}
	}
	b.report.Put(key, strconv.FormatBool(v))
	return v
}

// IsValid checks the parameters every trainer understands.
func (b *Base) IsValid() error {
	if !b.initialized {
		return ErrNotInitialized
	}
	var result *multierror.Error
	if v, ok := b.params.Get(AlgorithmParam); ok && v == "" {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidParams, "%s must not be empty", AlgorithmParam))
	}
	result = multierror.Append(result,
		checkInt(b.params, CutoffParam, 0),
		checkInt(b.params, IterationsParam, 1),
	)
	if v, ok := b.params.Get(DataIndexerParam); ok {
		if _, err := model.ParseIndexerKind(v); err != nil {
			result = multierror.Append(result, errors.Wrap(ErrInvalidParams, err.Error()))
		}
	}
	return result.ErrorOrNil()
}

// Display logs a progress message and forwards it to the monitor.
func (b *Base) Display(msg string) {
	slog.Debug(msg, "algorithm", b.Algorithm())
	b.monitor.Display(msg)
}

// Displayf formats and forwards a progress message.
func (b *Base) Displayf(format string, args ...any) {
	b.Display(fmt.Sprintf(format, args...))
}

// CheckCanceled returns ErrCanceled once ctx is done or the monitor asks to
// stop.
func (b *Base) CheckCanceled(ctx context.Context) error {
	if ctx.Err() != nil || b.monitor.Canceled() {
		return ErrCanceled
	}
	return nil
}

// IndexEvents indexes events with the configured cutoff and indexer.
func (b *Base) IndexEvents(events iter.Seq[model.Event]) (*model.Indexed, error) {
	if !b.initialized {
		return nil, ErrNotInitialized
	}
	d, err := model.Index(events, b.Cutoff(), b.Indexer())
	if err != nil {
		return nil, errors.Wrap(err, "index events")
	}
	b.Displayf("Indexed %d events (%d unique) with %d predicates and %d outcomes",
		d.TotalEvents(), d.NumEvents(), d.Predicates.Size(), d.Labels.Size())
	if d.NumEvents() == 0 {
		return nil, errors.New("no training events left after indexing")
	}
	return d, nil
}

func checkInt(p *Params, key string, minValue int) error {
	s, ok := p.Get(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minValue {
		return errors.Wrapf(ErrInvalidParams, "%s must be an integer >= %d, got %q", key, minValue, s)
	}
	return nil
}

func checkFloat(p *Params, key string, minValue float64) error {
	s, ok := p.Get(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < minValue {
		return errors.Wrapf(ErrInvalidParams, "%s must be a number >= %g, got %q", key, minValue, s)
	}
	return nil
}

func checkBool(p *Params, key string) error {
	s, ok := p.Get(key)
	if !ok {
		return nil
	}
	if _, err := strconv.ParseBool(s); err != nil {
		return errors.Wrapf(ErrInvalidParams, "%s must be a boolean, got %q", key, s)
	}
	return nil
}
