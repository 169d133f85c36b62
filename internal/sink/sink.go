// Package sink delivers leaderboard reports to their destinations.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/observability"
)

// Sink receives every emitted report.
type Sink interface {
	Emit(ctx context.Context, report *domain.Report) error
	// Name labels the sink in logs and metrics.
	Name() string
}

// Multi fans a report out to several sinks. Every sink is attempted; their
// errors are joined.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out sink.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Add appends a sink.
func (m *Multi) Add(s Sink) {
	m.sinks = append(m.sinks, s)
}

// Emit delivers report to every sink.
func (m *Multi) Emit(ctx context.Context, report *domain.Report) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, report); err != nil {
			observability.RecordSinkError(s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Name returns "multi".
func (m *Multi) Name() string {
	return "multi"
}

// Len returns the number of sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Close closes every sink that implements io.Closer.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
