package textutil

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"user_name", []string{"user_name"}},
		{"", nil},
		{"  spaces  ", []string{"spaces"}},
		{"café résumé", []string{"café", "résumé"}},
		{"e-mail don't", []string{"e-mail", "don't"}},
		{"It costs 1,000.50 dollars.", []string{"It", "costs", "1,000.50", "dollars", "."}},
		{"(see above)!", []string{"(", "see", "above", ")", "!"}},
		{"input[name]", []string{"input", "[", "name", "]"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello world. This is it.", []string{"Hello world.", "This is it."}},
		{"Pi is 3.14 today. Yes!", []string{"Pi is 3.14 today.", "Yes!"}},
		{"Really?! 2 more.", []string{"Really?!", "2 more."}},
		{`He said "Go." Then left`, []string{`He said "Go."`, "Then left"}},
		{"no break. lower case", []string{"no break. lower case"}},
		{"", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		got := SplitSentences(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitSentences(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello world"},
		{"  multiple   spaces  ", " multiple spaces "},
		{"line\nbreak\rhere", "line break here"},
		{"UPPER", "upper"},
		{"Café", "café"},
	}
	for _, tt := range tests {
		got := Normalize(tt.input)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFold(t *testing.T) {
	for input, want := range map[string]string{
		"Café":   "cafe",
		"RÉSUMÉ": "resume",
		"naïve":  "naive",
		"plain":  "plain",
	} {
		if got := Fold(input); got != want {
			t.Errorf("Fold(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestShape(t *testing.T) {
	for input, want := range map[string]string{
		"Hello": "Xx",
		"USA":   "X",
		"A1-b":  "Xd-x",
		"3.14":  "d.d",
		"":      "",
	} {
		if got := Shape(input); got != want {
			t.Errorf("Shape(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAffixes(t *testing.T) {
	pre, suf := Affixes("walking", 3)
	if !reflect.DeepEqual(pre, []string{"w", "wa", "wal"}) {
		t.Errorf("prefixes = %v", pre)
	}
	if !reflect.DeepEqual(suf, []string{"g", "ng", "ing"}) {
		t.Errorf("suffixes = %v", suf)
	}
	pre, suf = Affixes("ab", 3)
	if !reflect.DeepEqual(pre, []string{"a"}) || !reflect.DeepEqual(suf, []string{"b"}) {
		t.Errorf("Affixes(ab) = %v %v", pre, suf)
	}
}

func TestNumberPattern(t *testing.T) {
	tests := []struct {
		input string
		ratio float64
		want  string
	}{
		{"12345", 0.3, "XXXXX"},
		{"abc123", 0.3, "CCCXXX"},
		{"abc", 0.3, ""},
		{"", 0.3, ""},
		{"12-34", 0.3, "XX-XX"},
		{"a1b2c3", 0.3, "CXCXCX"},
	}
	for _, tt := range tests {
		got := NumberPattern(tt.input, tt.ratio)
		if got != tt.want {
			t.Errorf("NumberPattern(%q, %v) = %q, want %q", tt.input, tt.ratio, got, tt.want)
		}
	}
}

func TestNormalizeWhitespaces(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello\nworld", "hello world"},
		{"hello\r\nworld", "hello world"},
		{"a  b   c", "a b c"},
	}
	for _, tt := range tests {
		got := NormalizeWhitespaces(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeWhitespaces(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
