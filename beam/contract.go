// Package beam implements bounded-width beam search over label sequences.
//
// Every sequence-labelling tool in nlpkit reduces to the same problem: given
// a per-token probability model and a token sequence, find the best-scoring
// label sequence. A tool supplies a ContextGenerator that turns a position
// and the labels chosen so far into features, and a Validator that rejects
// structurally illegal labels; Search does the rest.
package beam

// ContextGenerator produces the feature context for position i of seq given
// the outcomes already chosen for positions 0..i-1. It must be pure: the
// decoder calls it once per surviving candidate.
type ContextGenerator[T any] interface {
	Context(i int, seq []T, prior []string, additional []any) []string
}

// ContextGeneratorFunc adapts a function to ContextGenerator.
type ContextGeneratorFunc[T any] func(i int, seq []T, prior []string, additional []any) []string

// Context implements ContextGenerator.
func (f ContextGeneratorFunc[T]) Context(i int, seq []T, prior []string, additional []any) []string {
	return f(i, seq, prior, additional)
}

// Validator decides whether outcome may follow prior at position i.
type Validator[T any] interface {
	Valid(i int, seq []T, prior []string, outcome string) bool
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc[T any] func(i int, seq []T, prior []string, outcome string) bool

// Valid implements Validator.
func (f ValidatorFunc[T]) Valid(i int, seq []T, prior []string, outcome string) bool {
	return f(i, seq, prior, outcome)
}

// AcceptAll returns a validator that accepts every outcome.
func AcceptAll[T any]() Validator[T] {
	return ValidatorFunc[T](func(int, []T, []string, string) bool { return true })
}

// SequenceClassifier is the decoding contract that tool wrappers hold.
type SequenceClassifier[T any] interface {
	// BestSequence returns the highest scoring sequence, or nil when every
	// continuation was rejected.
	BestSequence(seq []T, additional []any, cg ContextGenerator[T], v Validator[T]) *Sequence
	// BestSequences returns up to n sequences, best first.
	BestSequences(n int, seq []T, additional []any, cg ContextGenerator[T], v Validator[T]) []*Sequence
	// BestSequencesMinScore is BestSequences keeping only sequences whose
	// score stays above minScore.
	BestSequencesMinScore(n int, seq []T, additional []any, minScore float64, cg ContextGenerator[T], v Validator[T]) []*Sequence
	// Outcomes lists every label the classifier can emit.
	Outcomes() []string
}
