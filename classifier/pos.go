package classifier

import (
	"context"
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/happyhackingspace/nlpkit/beam"
	"github.com/happyhackingspace/nlpkit/internal/textutil"
	"github.com/happyhackingspace/nlpkit/trainer"
)

const (
	bos = "*BOS*"
	eos = "*EOS*"
)

// POSContext generates part-of-speech features for position i: the word,
// its folded form, shape, affixes, neighbouring words and the two previous
// tags.
func POSContext(i int, tokens []string, prior []string, _ []any) []string {
	w := tokens[i]
	ctx := make([]string, 0, 24)
	ctx = append(ctx, "def", "w="+w, "lw="+textutil.Fold(w), "sh="+textutil.Shape(w))
	pre, suf := textutil.Affixes(w, 4)
	for _, p := range pre {
		ctx = append(ctx, "pre="+p)
	}
	for _, s := range suf {
		ctx = append(ctx, "suf="+s)
	}
	if strings.ContainsRune(w, '-') {
		ctx = append(ctx, "h")
	}
	if pattern := textutil.NumberPattern(w, 0.3); pattern != "" {
		ctx = append(ctx, "num="+pattern)
	}
	if r := []rune(w); len(r) > 0 && unicode.IsUpper(r[0]) {
		ctx = append(ctx, "c")
		if i == 0 {
			ctx = append(ctx, "c0")
		}
	}
	ctx = append(ctx,
		"p="+word(tokens, i-1), "pp="+word(tokens, i-2),
		"n="+word(tokens, i+1), "nn="+word(tokens, i+2),
	)
	t1, t2 := tag(prior, i-1), tag(prior, i-2)
	ctx = append(ctx, "t="+t1, "t2="+t2+","+t1)
	return ctx
}

func word(tokens []string, i int) string {
	switch {
	case i < 0:
		return bos
	case i >= len(tokens):
		return eos
	}
	return textutil.Fold(tokens[i])
}

func tag(prior []string, i int) string {
	if i < 0 || i >= len(prior) {
		return bos
	}
	return prior[i]
}

// TagDictionary restricts the tags a known word may receive. Words not in
// the dictionary accept every tag.
type TagDictionary struct {
	tags map[string]map[string]bool
}

// NewTagDictionary returns an empty dictionary.
func NewTagDictionary() *TagDictionary {
	return &TagDictionary{tags: make(map[string]map[string]bool)}
}

// BuildTagDictionary records every tag seen with each word that occurs at
// least cutoff times.
func BuildTagDictionary(samples []trainer.SequenceSample, cutoff int) *TagDictionary {
	counts := make(map[string]int)
	for _, s := range samples {
		for _, w := range s.Tokens {
			counts[textutil.Fold(w)]++
		}
	}
	d := NewTagDictionary()
	for _, s := range samples {
		for i, w := range s.Tokens {
			if counts[textutil.Fold(w)] >= cutoff {
				d.Add(w, s.Outcomes[i])
			}
		}
	}
	return d
}

// Add allows tag for word.
func (d *TagDictionary) Add(word, tag string) {
	w := textutil.Fold(word)
	if d.tags[w] == nil {
		d.tags[w] = make(map[string]bool)
	}
	d.tags[w][tag] = true
}

// Tags returns the tags allowed for word, sorted, or nil when any tag is.
func (d *TagDictionary) Tags(word string) []string {
	set := d.tags[textutil.Fold(word)]
	if set == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(set))
}

// Len returns the number of words in the dictionary.
func (d *TagDictionary) Len() int { return len(d.tags) }

// Valid implements beam.Validator.
func (d *TagDictionary) Valid(i int, tokens []string, _ []string, outcome string) bool {
	set := d.tags[textutil.Fold(tokens[i])]
	return set == nil || set[outcome]
}

// POSTagger assigns part-of-speech tags.
type POSTagger struct {
	Tagger
	Dictionary *TagDictionary
}

// NewPOSTagger wraps a trained model. A nil dictionary accepts every tag.
func NewPOSTagger(m beam.SequenceClassifier[string], dict *TagDictionary) *POSTagger {
	t := &POSTagger{
		Tagger:     Tagger{Model: m, Generator: beam.ContextGeneratorFunc[string](POSContext)},
		Dictionary: dict,
	}
	if dict != nil {
		t.Validator = dict
	}
	return t
}

// POSSamples builds training samples from tokens and their gold tags.
func POSSamples(tokens, tags [][]string) []trainer.SequenceSample {
	samples := make([]trainer.SequenceSample, len(tokens))
	for i := range tokens {
		samples[i] = trainer.SequenceSample{Tokens: tokens[i], Outcomes: tags[i]}
	}
	return samples
}

// TrainPOSTagger trains a tagger on samples. When dictCutoff > 0 a tag
// dictionary is built from words seen at least that often.
func TrainPOSTagger(ctx context.Context, samples []trainer.SequenceSample, dictCutoff int, opts TrainOptions) (*POSTagger, error) {
	corpus := &trainer.SequenceCorpus{Samples: samples, Generator: beam.ContextGeneratorFunc[string](POSContext)}
	m, err := TrainSequenceModel(ctx, corpus, opts)
	if err != nil {
		return nil, err
	}
	var dict *TagDictionary
	if dictCutoff > 0 {
		dict = BuildTagDictionary(samples, dictCutoff)
	}
	return NewPOSTagger(m, dict), nil
}
