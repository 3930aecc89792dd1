// Package messaging implements the actor-style pipeline runner. Each stage
// owns its mutable state and exposes a single Act operation; processors wire
// stages to their neighbours with bounded FIFO channels.
package messaging

import (
	"context"

	"github.com/flxgn/buyTheBoop/internal/logger"
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/flxgn/buyTheBoop/pkg/errors"
	"go.uber.org/zap"
)

// Actor consumes one message and returns the messages derived from it.
// Actors are never called concurrently; their internal state needs no locks.
type Actor interface {
	// Name identifies the actor in logs and errors.
	Name() string
	// Act processes a single message. Returning messages is optional; an
	// actor that has nothing to say for a given input returns nil.
	Act(msg types.Message) ([]types.Message, error)
}

// Flusher is implemented by actors that emit trailing messages once the
// input stream has ended.
type Flusher interface {
	Flush() ([]types.Message, error)
}

// Processor runs one actor between an inbound and an outbound channel. When
// the actor is not a filter, every input message is forwarded downstream
// before the messages derived from it. The outbound channel is closed when
// the inbound channel closes, propagating shutdown through the chain.
type Processor struct {
	input    <-chan types.Message
	output   chan<- types.Message
	isFilter bool
	actor    Actor
	log      *logger.Logger
	lastTick int64
}

// NewProcessor creates a processor for the given actor. isFilter controls
// whether input messages are swallowed (true) or forwarded (false).
func NewProcessor(input <-chan types.Message, output chan<- types.Message, isFilter bool, actor Actor, log *logger.Logger) *Processor {
	return &Processor{
		input:    input,
		output:   output,
		isFilter: isFilter,
		actor:    actor,
		log:      log.Named(actor.Name()),
		lastTick: -1,
	}
}

// Run consumes the inbound channel until it closes or ctx is cancelled.
// Tick indices must never decrease across inputs; a regression means an
// upstream stage broke FIFO ordering and aborts the run.
func (p *Processor) Run(ctx context.Context) error {
	defer close(p.output)

	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(errors.ErrCodePipelineBroken, err, "%s cancelled mid-stream", p.actor.Name())
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(errors.ErrCodePipelineBroken, ctx.Err(), "%s cancelled mid-stream", p.actor.Name())
		case msg, ok := <-p.input:
			if !ok {
				return p.flush(ctx)
			}

			tick := msg.Data.Tick()
			if tick < p.lastTick {
				return errors.Newf(errors.ErrCodeTickOrderViolation,
					"%s received tick %d after tick %d", p.actor.Name(), tick, p.lastTick)
			}
			p.lastTick = tick

			derived, err := p.actor.Act(msg)
			if err != nil {
				p.log.Error("actor failed", zap.Int64("tick", msg.Data.Tick()), zap.Error(err))

				return errors.Wrapf(errors.ErrCodePipelineBroken, err, "%s failed at tick %d", p.actor.Name(), msg.Data.Tick())
			}

			if !p.isFilter {
				if err := p.send(ctx, msg); err != nil {
					return err
				}
			}

			for _, out := range derived {
				if err := p.send(ctx, out); err != nil {
					return err
				}
			}
		}
	}
}

// flush drains trailing messages from flushing actors once the input closed.
func (p *Processor) flush(ctx context.Context) error {
	flusher, ok := p.actor.(Flusher)
	if !ok {
		return nil
	}

	trailing, err := flusher.Flush()
	if err != nil {
		return errors.Wrapf(errors.ErrCodePipelineBroken, err, "%s failed to flush", p.actor.Name())
	}

	for _, out := range trailing {
		if err := p.send(ctx, out); err != nil {
			return err
		}
	}

	return nil
}

func (p *Processor) send(ctx context.Context, msg types.Message) error {
	select {
	case <-ctx.Done():
		return errors.Wrapf(errors.ErrCodePipelineBroken, ctx.Err(), "%s cancelled while sending", p.actor.Name())
	case p.output <- msg:
		return nil
	}
}
