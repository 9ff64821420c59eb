// Package corpus reads and writes annotated corpora in a CoNLL-style column
// format: one token per line as "token POS [chunk [entity]]", sentences
// separated by blank lines, '#' starting a comment line.
package corpus

// Token is one annotated token. Chunk and Entity are empty when the source
// had no such column or held the "_" placeholder.
type Token struct {
	Text   string `json:"text"`
	POS    string `json:"pos,omitempty"`
	Chunk  string `json:"chunk,omitempty"`
	Entity string `json:"entity,omitempty"`
}

// Sentence is a sequence of tokens plus where it came from.
type Sentence struct {
	Tokens []Token `json:"tokens"`
	// Source is the file the sentence was read from, relative to the
	// corpus folder.
	Source string `json:"source,omitempty"`
	// Group ties sentences that must land in the same cross-validation fold.
	Group string `json:"-"`
	// Columns is how many annotation columns the sentence carried.
	Columns int `json:"-"`
}

func (s Sentence) column(get func(Token) string) []string {
	out := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		out[i] = get(t)
	}
	return out
}

// Words returns the token texts.
func (s Sentence) Words() []string { return s.column(func(t Token) string { return t.Text }) }

// POSTags returns the part-of-speech column.
func (s Sentence) POSTags() []string { return s.column(func(t Token) string { return t.POS }) }

// Chunks returns the chunk column.
func (s Sentence) Chunks() []string { return s.column(func(t Token) string { return t.Chunk }) }

// Entities returns the entity column.
func (s Sentence) Entities() []string { return s.column(func(t Token) string { return t.Entity }) }

// HasChunks reports whether every token carries a chunk label.
func (s Sentence) HasChunks() bool { return s.labeled(func(t Token) string { return t.Chunk }) }

// HasEntities reports whether every token carries an entity label.
func (s Sentence) HasEntities() bool { return s.labeled(func(t Token) string { return t.Entity }) }

func (s Sentence) labeled(get func(Token) string) bool {
	if len(s.Tokens) == 0 {
		return false
	}
	for _, t := range s.Tokens {
		if get(t) == "" {
			return false
		}
	}
	return true
}
