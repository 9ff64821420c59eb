package classifier

import "strings"

// Outside is the label of tokens outside every span.
const Outside = "O"

// Span is a labelled token range [Start, End).
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
}

// Len returns the number of tokens covered.
func (s Span) Len() int { return s.End - s.Start }

// Text joins the covered tokens with spaces.
func (s Span) Text(tokens []string) string {
	return strings.Join(tokens[s.Start:s.End], " ")
}

// splitBIO splits "B-NP" into ("B", "NP"). Labels without a prefix, such as
// "O", return an empty type.
func splitBIO(label string) (prefix, typ string) {
	p, t, ok := strings.Cut(label, "-")
	if !ok || (p != "B" && p != "I") {
		return label, ""
	}
	return p, t
}

// BIOValidator rejects an inside label that does not continue a span of the
// same type.
type BIOValidator struct{}

// Valid implements beam.Validator.
func (BIOValidator) Valid(i int, _ []string, prior []string, outcome string) bool {
	prefix, typ := splitBIO(outcome)
	if prefix != "I" {
		return true
	}
	if i == 0 || len(prior) < i {
		return false
	}
	_, prevType := splitBIO(prior[i-1])
	return prevType == typ
}

// SpansFromBIO decodes BIO labels into spans. A stray inside label opens a
// new span.
func SpansFromBIO(labels []string) []Span {
	var spans []Span
	open := -1
	openType := ""
	closeSpan := func(end int) {
		if open >= 0 {
			spans = append(spans, Span{Start: open, End: end, Type: openType})
			open = -1
		}
	}
	for i, label := range labels {
		prefix, typ := splitBIO(label)
		switch {
		case prefix == "B", prefix == "I" && (open < 0 || typ != openType):
			closeSpan(i)
			open, openType = i, typ
		case prefix == "I":
			// continues the open span
		default:
			closeSpan(i)
		}
	}
	closeSpan(len(labels))
	return spans
}

// BIOFromSpans encodes spans over n tokens as BIO labels.
func BIOFromSpans(n int, spans []Span) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = Outside
	}
	for _, s := range spans {
		for i := s.Start; i < s.End && i < n; i++ {
			if i == s.Start {
				labels[i] = "B-" + s.Type
			} else {
				labels[i] = "I-" + s.Type
			}
		}
	}
	return labels
}
