// Package trainer resolves a training configuration to a concrete training
// algorithm and provides the built-in algorithms: GIS and quasi-Newton
// maximum entropy, averaged perceptron, naive Bayes, the Collins sequence
// perceptron and a linear-chain CRF.
package trainer

import (
	"context"
	"iter"

	"github.com/happyhackingspace/nlpkit/beam"
	"github.com/happyhackingspace/nlpkit/model"
)

// Category classifies trainers by what they consume and produce.
type Category int

const (
	CategoryUnknown Category = iota
	// CategoryEventModel trainers learn a model from independent events.
	CategoryEventModel
	// CategoryEventModelSequence trainers learn an event model from whole
	// labelled sequences.
	CategoryEventModelSequence
	// CategorySequence trainers produce a sequence-aware classifier.
	CategorySequence
)

func (c Category) String() string {
	switch c {
	case CategoryEventModel:
		return "event"
	case CategoryEventModelSequence:
		return "event-sequence"
	case CategorySequence:
		return "sequence"
	}
	return "unknown"
}

// Trainer is the lifecycle every training algorithm shares.
type Trainer interface {
	Init(params *Params, report *Report) error
	IsValid() error
}

// EventTrainer trains a model from independent events.
type EventTrainer interface {
	Trainer
	Train(ctx context.Context, events iter.Seq[model.Event]) (model.Model, error)
}

// EventModelSequenceTrainer trains an event model from labelled sequences.
type EventModelSequenceTrainer interface {
	Trainer
	TrainSequences(ctx context.Context, corpus *SequenceCorpus) (model.Model, error)
}

// SequenceTrainer trains a classifier that decodes whole sequences itself.
type SequenceTrainer interface {
	Trainer
	TrainSequenceModel(ctx context.Context, corpus *SequenceCorpus) (beam.SequenceClassifier[string], error)
}

// CategoryOf classifies t by the capability sets it implements. A value
// implementing none, or more than one, is CategoryUnknown.
func CategoryOf(t Trainer) Category {
	found := CategoryUnknown
	n := 0
	if _, ok := t.(EventTrainer); ok {
		found = CategoryEventModel
		n++
	}
	if _, ok := t.(EventModelSequenceTrainer); ok {
		found = CategoryEventModelSequence
		n++
	}
	if _, ok := t.(SequenceTrainer); ok {
		found = CategorySequence
		n++
	}
	if n != 1 {
		return CategoryUnknown
	}
	return found
}
