// Package textutil provides the tokenizer, sentence splitter and token
// normalisation used to turn raw text into decoder input and features.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Words keep internal apostrophes, hyphens and separators between digits
// (don't, e-mail, 3.14, 1,000); every other non-space rune is its own token.
var tokenizeRe = regexp.MustCompile(`[\p{L}\p{N}_]+(?:['’\-.,][\p{L}\p{N}_]+)*|[^\s\p{L}\p{N}_]`)

// Tokenize splits text into word and punctuation tokens.
func Tokenize(text string) []string {
	return tokenizeRe.FindAllString(text, -1)
}

// SplitSentences breaks text after '.', '!' or '?' when the next
// non-space rune starts a new sentence (an upper-case letter, a digit or an
// opening quote). Returned sentences are trimmed; empty ones are dropped.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + utf8.RuneLen(r)
		// absorb runs like "?!" and closing quotes
		for end < len(text) {
			next, size := utf8.DecodeRuneInString(text[end:])
			if next != '.' && next != '!' && next != '?' && next != '"' && next != '\'' && next != ')' {
				break
			}
			end += size
		}
		rest := text[end:]
		trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if len(trimmed) == len(rest) && rest != "" {
			continue
		}
		if next, _ := utf8.DecodeRuneInString(trimmed); trimmed != "" && !startsSentence(next) {
			continue
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func startsSentence(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '\'' || r == '('
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	lower        = cases.Lower(language.Und)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// Normalize composes text to NFC, lowercases it and normalizes whitespace.
func Normalize(text string) string {
	return NormalizeWhitespaces(lower.String(norm.NFC.String(text)))
}

// Fold lowercases a token and strips combining marks, so "Café" and "cafe"
// share features.
func Fold(token string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, token)
	if err != nil {
		folded = token
	}
	return lower.String(folded)
}

// Shape maps upper-case letters to X, lower-case letters to x and digits to
// d, collapsing repeats: "Hello" -> "Xx", "A1-b" -> "Xd-x".
func Shape(token string) string {
	var b strings.Builder
	var last rune
	for _, r := range token {
		var c rune
		switch {
		case unicode.IsUpper(r):
			c = 'X'
		case unicode.IsLetter(r):
			c = 'x'
		case unicode.IsDigit(r):
			c = 'd'
		default:
			c = r
		}
		if c != last {
			b.WriteRune(c)
			last = c
		}
	}
	return b.String()
}

// Affixes returns the prefixes and suffixes of token up to n runes long,
// shortest first. Tokens no longer than n yield nothing.
func Affixes(token string, n int) (prefixes, suffixes []string) {
	rs := []rune(token)
	for i := 1; i <= n && i < len(rs); i++ {
		prefixes = append(prefixes, string(rs[:i]))
		suffixes = append(suffixes, string(rs[len(rs)-i:]))
	}
	return prefixes, suffixes
}

var digitRe = regexp.MustCompile(`\d`)

// NumberPattern replaces digits with X and letters with C if the digit ratio >= threshold.
// Returns empty string otherwise.
func NumberPattern(text string, ratio float64) string {
	if text == "" {
		return ""
	}

	total := utf8.RuneCountInString(text)
	digitCount := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digitCount++
		}
	}

	if float64(digitCount)/float64(total) < ratio {
		return ""
	}
	result := digitRe.ReplaceAllString(text, "X")
	var buf strings.Builder
	for _, r := range result {
		if r == 'X' || !unicode.IsLetter(r) {
			buf.WriteRune(r)
		} else {
			buf.WriteRune('C')
		}
	}
	return buf.String()
}
