package trainer

import "context"

// Monitor receives progress messages from a trainer and tells it whether to
// stop.
type Monitor interface {
	Display(msg string)
	Canceled() bool
}

type nopMonitor struct{}

func (nopMonitor) Display(string) {}
func (nopMonitor) Canceled() bool { return false }

// NopMonitor discards messages and never cancels.
func NopMonitor() Monitor { return nopMonitor{} }

type listenerMonitor struct {
	ctx      context.Context
	listener func(string)
}

// NewMonitor forwards messages to listener (which may be nil) and reports
// cancellation once ctx is done.
func NewMonitor(ctx context.Context, listener func(string)) Monitor {
	return &listenerMonitor{ctx: ctx, listener: listener}
}

func (m *listenerMonitor) Display(msg string) {
	if m.listener != nil {
		m.listener(msg)
	}
}

func (m *listenerMonitor) Canceled() bool {
	return m.ctx.Err() != nil
}
