package fanout

import (
	"context"

	"arbwatch/internal/application/port"
)

// Sink delivers to every wrapped sink and returns the first error.
type Sink struct {
	sinks []port.AlertSink
}

func New(sinks ...port.AlertSink) *Sink {
	// nil sinks are allowed; filter in constructor for safety
	out := make([]port.AlertSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Sink{sinks: out}
}

func (f *Sink) Len() int { return len(f.sinks) }

func (f *Sink) Send(ctx context.Context, destination, text string) error {
	var firstErr error
	for _, s := range f.sinks {
		if err := s.Send(ctx, destination, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.AlertSink = (*Sink)(nil)
