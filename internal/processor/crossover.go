package processor

import (
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/flxgn/buyTheBoop/pkg/strategy"
)

// Crossover turns classification transitions into trade signals. It ignores
// every observation until the sliding window is full, then delegates the
// decision to the configured strategy. The classification state advances on
// every full-window tick regardless of whether a signal fired, so the next
// comparison is always against the latest classification, not the latest
// signal. Hold decisions are swallowed, never emitted.
type Crossover struct {
	strategy strategy.Strategy
	previous strategy.Classification
}

// NewCrossover creates the detector around the given strategy.
func NewCrossover(s strategy.Strategy) *Crossover {
	return &Crossover{
		strategy: s,
		previous: strategy.Uninitialized,
	}
}

// Name implements messaging.Actor.
func (c *Crossover) Name() string {
	return "crossover"
}

// Act implements messaging.Actor.
func (c *Crossover) Act(msg types.Message) ([]types.Message, error) {
	obs, ok := msg.Data.(types.AveragedObservation)
	if !ok || !obs.WindowFull {
		return nil, nil
	}

	signal, current := c.strategy.Decide(c.previous, obs)
	c.previous = current

	if signal == types.SignalHold {
		return nil, nil
	}

	event := types.SignalEvent{
		TickIndex: obs.TickIndex,
		Timestamp: obs.Timestamp,
		Type:      signal,
		Price:     obs.Price,
		Average:   obs.Average,
	}

	return []types.Message{msg.Derive(event)}, nil
}
