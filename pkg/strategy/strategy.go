// Package strategy defines the trade-decision interface used by the
// crossover stage and the default moving-average-crossover implementation.
package strategy

import (
	"fmt"

	"github.com/flxgn/buyTheBoop/internal/types"
)

// Classification is the relation of a price to the configured trigger line
// at one tick.
type Classification int

const (
	// Uninitialized means no classified tick has been seen yet.
	Uninitialized Classification = iota
	// Above means the price is above the trigger line.
	Above
	// Below means the price is below the trigger line.
	Below
	// Neutral means the price sits on the line or between the bands.
	Neutral
)

// String returns a human-readable name for the classification.
func (c Classification) String() string {
	switch c {
	case Above:
		return "above"
	case Below:
		return "below"
	case Neutral:
		return "neutral"
	default:
		return "uninitialized"
	}
}

// TriggerLine selects the comparison line for crossing detection: the bare
// moving average, or the offset bands around it.
type TriggerLine string

const (
	TriggerAverage TriggerLine = "average"
	TriggerBand    TriggerLine = "band"
)

// AllTriggerLines lists the recognized trigger line values.
var AllTriggerLines = []any{string(TriggerAverage), string(TriggerBand)}

// Strategy decides trade signals from consecutive classifications of the
// price against a reference line. Implementations must be deterministic:
// the same inputs always produce the same decision.
type Strategy interface {
	// Name identifies the strategy in logs and reports.
	Name() string
	// Decide classifies the observation and, given the previous tick's
	// classification, returns the signal to emit (SignalHold for none)
	// together with the new classification.
	Decide(prev Classification, obs types.AveragedObservation) (types.SignalKind, Classification)
}

// SimpleCrossover buys when the price crosses the trigger line upward and
// sells when it crosses downward. With TriggerAverage the line degenerates
// to the bare moving average; with TriggerBand the price must leave the
// band corridor before a crossing counts.
type SimpleCrossover struct {
	trigger TriggerLine
}

// NewSimpleCrossover creates the default crossover strategy.
func NewSimpleCrossover(trigger TriggerLine) *SimpleCrossover {
	return &SimpleCrossover{trigger: trigger}
}

// Name returns the name of the strategy.
func (s *SimpleCrossover) Name() string {
	return fmt.Sprintf("simple_crossover_%s", s.trigger)
}

// Decide implements Strategy. A buy fires on a transition from below or
// neutral to above; a sell on a transition from above or neutral to below.
// Nothing fires from an uninitialized state or when the classification is
// unchanged.
func (s *SimpleCrossover) Decide(prev Classification, obs types.AveragedObservation) (types.SignalKind, Classification) {
	current := s.classify(obs)

	switch {
	case prev == Uninitialized:
		return types.SignalHold, current
	case current == Above && (prev == Below || prev == Neutral):
		return types.SignalBuy, current
	case current == Below && (prev == Above || prev == Neutral):
		return types.SignalSell, current
	default:
		return types.SignalHold, current
	}
}

func (s *SimpleCrossover) classify(obs types.AveragedObservation) Classification {
	upper, lower := obs.Average, obs.Average
	if s.trigger == TriggerBand {
		upper, lower = obs.UpperBand, obs.LowerBand
	}

	switch {
	case obs.Price.GreaterThan(upper):
		return Above
	case obs.Price.LessThan(lower):
		return Below
	default:
		return Neutral
	}
}
