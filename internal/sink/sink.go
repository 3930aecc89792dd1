// Package sink implements the terminal collector of the pipeline.
package sink

import (
	"context"

	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/flxgn/buyTheBoop/pkg/errors"
)

// Sink drains the pipeline and keeps every message in arrival order for the
// external consumer (reporting, persistence, plotting). It is not safe for
// concurrent reads while Drain is running.
type Sink struct {
	messages []types.Message
}

// New creates an empty sink.
func New() *Sink {
	return &Sink{}
}

// Drain consumes the channel until it closes.
func (s *Sink) Drain(ctx context.Context, in <-chan types.Message) error {
	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCodePipelineBroken, "sink cancelled mid-stream", ctx.Err())
		case msg, ok := <-in:
			if !ok {
				return nil
			}

			s.messages = append(s.messages, msg)
		}
	}
}

// Messages returns every collected message in arrival order.
func (s *Sink) Messages() []types.Message {
	return s.messages
}

// Prices returns the collected price observations in tick order.
func (s *Sink) Prices() []types.PriceObservation {
	var out []types.PriceObservation

	for _, msg := range s.messages {
		if p, ok := msg.Data.(types.PriceObservation); ok {
			out = append(out, p)
		}
	}

	return out
}

// Averages returns the collected averaged observations in tick order.
func (s *Sink) Averages() []types.AveragedObservation {
	var out []types.AveragedObservation

	for _, msg := range s.messages {
		if a, ok := msg.Data.(types.AveragedObservation); ok {
			out = append(out, a)
		}
	}

	return out
}

// Signals returns the collected signal events in tick order.
func (s *Sink) Signals() []types.SignalEvent {
	var out []types.SignalEvent

	for _, msg := range s.messages {
		if sig, ok := msg.Data.(types.SignalEvent); ok {
			out = append(out, sig)
		}
	}

	return out
}

// Executions returns the collected execution records in tick order.
func (s *Sink) Executions() []types.ExecutionRecord {
	var out []types.ExecutionRecord

	for _, msg := range s.messages {
		if e, ok := msg.Data.(types.ExecutionRecord); ok {
			out = append(out, e)
		}
	}

	return out
}

// Valuations returns the collected valuation records in tick order.
func (s *Sink) Valuations() []types.ValuationRecord {
	var out []types.ValuationRecord

	for _, msg := range s.messages {
		if v, ok := msg.Data.(types.ValuationRecord); ok {
			out = append(out, v)
		}
	}

	return out
}
