// Package nlpkit annotates text with part-of-speech tags, phrase chunks and
// named entities using sequence models trained from a column-format corpus.
//
//	p, report, _ := nlpkit.Train(ctx, "data", nil)
//	doc, _ := p.Annotate("John lives in Paris. He likes it.")
//	for _, s := range doc.Sentences {
//	    fmt.Println(s.Tokens[0].POS, s.Entities)
//	}
package nlpkit

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/happyhackingspace/nlpkit/classifier"
	"github.com/happyhackingspace/nlpkit/internal/htmlutil"
	"github.com/happyhackingspace/nlpkit/internal/textutil"
)

// ErrNoDecoding is returned when a tool finds no label sequence that its
// validator accepts.
var ErrNoDecoding = errors.New("nlpkit: no valid label sequence")

// Pipeline runs the trained tools in order: tagging, then chunking and
// entity finding on top of the predicted tags. Chunker and Entities may be
// nil.
type Pipeline struct {
	POS      *classifier.POSTagger
	Chunker  *classifier.Chunker
	Entities *classifier.EntityFinder
}

// Token is one annotated token.
type Token struct {
	Text    string  `json:"text"`
	POS     string  `json:"pos"`
	POSProb float64 `json:"pos_prob"`
	Chunk   string  `json:"chunk,omitempty"`
	Entity  string  `json:"entity,omitempty"`
}

// Phrase is a labelled token range with its text.
type Phrase struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Sentence holds the annotations of one sentence.
type Sentence struct {
	Text     string   `json:"text"`
	Tokens   []Token  `json:"tokens"`
	Chunks   []Phrase `json:"chunks,omitempty"`
	Entities []Phrase `json:"entities,omitempty"`
}

// Document is an annotated text.
type Document struct {
	Title     string     `json:"title,omitempty"`
	Sentences []Sentence `json:"sentences"`
}

func (p *Pipeline) check() error {
	if p == nil || p.POS == nil {
		return fmt.Errorf("nlpkit: pipeline not initialized")
	}
	return nil
}

// AnnotateTokens annotates one tokenized sentence.
func (p *Pipeline) AnnotateTokens(tokens []string) (Sentence, error) {
	if err := p.check(); err != nil {
		return Sentence{}, err
	}
	s := Sentence{Text: strings.Join(tokens, " "), Tokens: make([]Token, len(tokens))}
	if len(tokens) == 0 {
		return s, nil
	}
	tags, probs := p.POS.TagWithProbs(tokens, nil)
	if tags == nil {
		return s, fmt.Errorf("%w: pos tagging %q", ErrNoDecoding, s.Text)
	}
	for i, tok := range tokens {
		s.Tokens[i] = Token{Text: tok, POS: tags[i], POSProb: probs[i]}
	}
	if p.Chunker != nil {
		chunks := p.Chunker.Chunk(tokens, tags)
		if chunks == nil {
			return s, fmt.Errorf("%w: chunking %q", ErrNoDecoding, s.Text)
		}
		for i := range s.Tokens {
			s.Tokens[i].Chunk = chunks[i]
		}
		s.Chunks = phrases(tokens, classifier.SpansFromBIO(chunks))
	}
	if p.Entities != nil {
		labels := p.Entities.Tag(tokens, []any{tags})
		if labels == nil {
			return s, fmt.Errorf("%w: entity finding %q", ErrNoDecoding, s.Text)
		}
		for i := range s.Tokens {
			s.Tokens[i].Entity = labels[i]
		}
		s.Entities = phrases(tokens, classifier.SpansFromBIO(labels))
	}
	return s, nil
}

func phrases(tokens []string, spans []classifier.Span) []Phrase {
	out := make([]Phrase, len(spans))
	for i, sp := range spans {
		out[i] = Phrase{Type: sp.Type, Text: sp.Text(tokens), Start: sp.Start, End: sp.End}
	}
	return out
}

// Annotate splits text into sentences and tokens and annotates each
// sentence.
func (p *Pipeline) Annotate(text string) (*Document, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	doc := &Document{Sentences: []Sentence{}}
	for _, sent := range textutil.SplitSentences(text) {
		s, err := p.AnnotateTokens(textutil.Tokenize(sent))
		if err != nil {
			return nil, err
		}
		s.Text = sent
		doc.Sentences = append(doc.Sentences, s)
	}
	return doc, nil
}

// AnnotateHTML annotates the visible text of an HTML page, paragraph by
// paragraph.
func (p *Pipeline) AnnotateHTML(html string) (*Document, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	page, err := htmlutil.LoadHTMLString(html)
	if err != nil {
		return nil, fmt.Errorf("nlpkit: %w", err)
	}
	doc := &Document{Title: htmlutil.Title(page), Sentences: []Sentence{}}
	for _, para := range htmlutil.Paragraphs(page) {
		d, err := p.Annotate(para)
		if err != nil {
			return nil, err
		}
		doc.Sentences = append(doc.Sentences, d.Sentences...)
	}
	return doc, nil
}

// AnnotateBatch annotates texts concurrently with at most workers
// goroutines (all CPUs when workers <= 0). Results keep the input order.
func (p *Pipeline) AnnotateBatch(ctx context.Context, texts []string, workers int) ([]*Document, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	out := make([]*Document, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit(workers))
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := p.Annotate(text)
			if err != nil {
				return err
			}
			out[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func batchLimit(workers int) int {
	if workers > 0 {
		return workers
	}
	return runtime.GOMAXPROCS(0)
}
