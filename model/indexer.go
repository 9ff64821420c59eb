package model

import (
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// IndexerKind selects how events are indexed before training.
type IndexerKind string

const (
	// OnePass reads the events once and buffers them while counting.
	OnePass IndexerKind = "OnePass"
	// TwoPass reads the events twice: once to count predicates and once to
	// build contexts, so only predicates above the cutoff are ever stored.
	TwoPass IndexerKind = "TwoPass"
)

// ParseIndexerKind returns the kind named by s.
func ParseIndexerKind(s string) (IndexerKind, error) {
	switch IndexerKind(s) {
	case OnePass, TwoPass:
		return IndexerKind(s), nil
	}
	return "", errors.Errorf("unknown data indexer %q", s)
}

// Indexed is the compact training form produced by Index. Identical events
// are merged and counted.
type Indexed struct {
	Predicates *Alphabet
	Labels     *Alphabet
	Contexts   [][]int
	Values     [][]float64 // nil entries mean binary features
	Outcomes   []int
	Counts     []int
	// PredCounts holds how often each retained predicate was seen.
	PredCounts []int
}

// NumEvents returns the number of unique events.
func (d *Indexed) NumEvents() int { return len(d.Outcomes) }

// TotalEvents returns the number of events including duplicates.
func (d *Indexed) TotalEvents() int {
	n := 0
	for _, c := range d.Counts {
		n += c
	}
	return n
}

// Index turns events into integer form, dropping predicates seen fewer than
// cutoff times. Events left without any predicate are dropped too.
func Index(events iter.Seq[Event], cutoff int, kind IndexerKind) (*Indexed, error) {
	switch kind {
	case OnePass, "":
		return indexOnePass(events, cutoff), nil
	case TwoPass:
		return indexTwoPass(events, cutoff), nil
	}
	return nil, errors.Errorf("unknown data indexer %q", kind)
}

func countPredicates(e Event, counts map[string]int) {
	for _, p := range e.Context {
		counts[p]++
	}
}

func indexOnePass(events iter.Seq[Event], cutoff int) *Indexed {
	counts := make(map[string]int)
	var buffered []Event
	for e := range events {
		countPredicates(e, counts)
		buffered = append(buffered, e)
	}
	return build(func(yield func(Event) bool) {
		for _, e := range buffered {
			if !yield(e) {
				return
			}
		}
	}, counts, cutoff)
}

func indexTwoPass(events iter.Seq[Event], cutoff int) *Indexed {
	counts := make(map[string]int)
	n := 0
	for e := range events {
		countPredicates(e, counts)
		n++
	}
	slog.Debug("Indexer first pass done", "events", n, "predicates", len(counts))
	return build(events, counts, cutoff)
}

func build(events iter.Seq[Event], counts map[string]int, cutoff int) *Indexed {
	d := &Indexed{
		Predicates: NewAlphabet(),
		Labels:     NewAlphabet(),
	}
	seen := make(map[string]int)
	dropped := 0
	var key strings.Builder
	for e := range events {
		var ctx []int
		var vals []float64
		for j, p := range e.Context {
			if counts[p] < cutoff {
				continue
			}
			id := d.Predicates.Add(p)
			if id == len(d.PredCounts) {
				d.PredCounts = append(d.PredCounts, counts[p])
			}
			ctx = append(ctx, id)
			if e.Values != nil {
				vals = append(vals, e.Values[j])
			}
		}
		if len(ctx) == 0 {
			dropped++
			continue
		}
		outcome := d.Labels.Add(e.Outcome)

		key.Reset()
		key.WriteString(strconv.Itoa(outcome))
		for j, id := range ctx {
			key.WriteByte(' ')
			key.WriteString(strconv.Itoa(id))
			if vals != nil {
				key.WriteByte('=')
				key.WriteString(strconv.FormatFloat(vals[j], 'g', -1, 64))
			}
		}
		if i, ok := seen[key.String()]; ok {
			d.Counts[i]++
			continue
		}
		seen[key.String()] = len(d.Outcomes)
		d.Contexts = append(d.Contexts, ctx)
		d.Values = append(d.Values, vals)
		d.Outcomes = append(d.Outcomes, outcome)
		d.Counts = append(d.Counts, 1)
	}
	if dropped > 0 {
		slog.Debug("Dropped events without predicates above cutoff", "dropped", dropped, "cutoff", cutoff)
	}
	return d
}
