// Package processor contains the transform stages of the pipeline: the
// sliding-average filter and the crossover detector.
package processor

import (
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/shopspring/decimal"
)

// SlidingAverage augments every price observation with the arithmetic mean
// of the last N prices and the configured offset bands around it. One
// averaged observation is emitted per input, even while the window is still
// filling; WindowFull stays false until capacity is reached.
type SlidingAverage struct {
	size   int
	offset decimal.Decimal
	window []decimal.Decimal
	head   int
	count  int
	sum    decimal.Decimal
}

// NewSlidingAverage creates the filter with a window of the given size
// (size >= 1, enforced at configuration time) and an absolute band offset.
func NewSlidingAverage(size int, offset decimal.Decimal) *SlidingAverage {
	return &SlidingAverage{
		size:   size,
		offset: offset,
		window: make([]decimal.Decimal, size),
		sum:    decimal.Zero,
	}
}

// Name implements messaging.Actor.
func (s *SlidingAverage) Name() string {
	return "sliding_average"
}

// Act pushes the price into the ring, evicting the oldest entry once the
// window is at capacity, and emits the averaged observation.
func (s *SlidingAverage) Act(msg types.Message) ([]types.Message, error) {
	obs, ok := msg.Data.(types.PriceObservation)
	if !ok {
		return nil, nil
	}

	if s.count == s.size {
		s.sum = s.sum.Sub(s.window[s.head])
	} else {
		s.count++
	}

	s.window[s.head] = obs.Price
	s.head = (s.head + 1) % s.size
	s.sum = s.sum.Add(obs.Price)

	average := s.sum.Div(decimal.NewFromInt(int64(s.count)))
	averaged := types.AveragedObservation{
		PriceObservation: obs,
		Average:          average,
		UpperBand:        average.Add(s.offset),
		LowerBand:        average.Sub(s.offset),
		WindowFull:       s.count == s.size,
	}

	return []types.Message{msg.Derive(averaged)}, nil
}
