package model

import (
	"fmt"
	"strings"
)

// Event is one classification decision observed in training data.
type Event struct {
	Outcome string
	Context []string
	// Values holds one real value per context predicate; nil means all 1.
	Values []float64
}

// NewEvent builds a binary-valued event.
func NewEvent(outcome string, context []string) Event {
	return Event{Outcome: outcome, Context: context}
}

func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Outcome)
	b.WriteString(" [")
	for i, c := range e.Context {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c)
		if e.Values != nil {
			fmt.Fprintf(&b, "=%g", e.Values[i])
		}
	}
	b.WriteByte(']')
	return b.String()
}
