package strategy

import (
	"testing"

	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func obs(price, average, offset float64) types.AveragedObservation {
	avg := decimal.NewFromFloat(average)
	off := decimal.NewFromFloat(offset)

	return types.AveragedObservation{
		PriceObservation: types.PriceObservation{Price: decimal.NewFromFloat(price)},
		Average:          avg,
		UpperBand:        avg.Add(off),
		LowerBand:        avg.Sub(off),
		WindowFull:       true,
	}
}

func TestDecideBuysOnUpwardCrossing(t *testing.T) {
	s := NewSimpleCrossover(TriggerAverage)

	signal, class := s.Decide(Below, obs(105, 100, 0))
	assert.Equal(t, types.SignalBuy, signal)
	assert.Equal(t, Above, class)
}

func TestDecideBuysFromNeutral(t *testing.T) {
	s := NewSimpleCrossover(TriggerAverage)

	signal, class := s.Decide(Neutral, obs(105, 100, 0))
	assert.Equal(t, types.SignalBuy, signal)
	assert.Equal(t, Above, class)
}

func TestDecideSellsOnDownwardCrossing(t *testing.T) {
	s := NewSimpleCrossover(TriggerAverage)

	signal, class := s.Decide(Above, obs(95, 100, 0))
	assert.Equal(t, types.SignalSell, signal)
	assert.Equal(t, Below, class)
}

func TestDecideHoldsWhenClassificationUnchanged(t *testing.T) {
	s := NewSimpleCrossover(TriggerAverage)

	signal, class := s.Decide(Above, obs(110, 100, 0))
	assert.Equal(t, types.SignalHold, signal)
	assert.Equal(t, Above, class)
}

func TestDecideHoldsFromUninitialized(t *testing.T) {
	s := NewSimpleCrossover(TriggerAverage)

	signal, class := s.Decide(Uninitialized, obs(105, 100, 0))
	assert.Equal(t, types.SignalHold, signal)
	assert.Equal(t, Above, class)
}

func TestDecideClassifiesPriceOnAverageAsNeutral(t *testing.T) {
	s := NewSimpleCrossover(TriggerAverage)

	signal, class := s.Decide(Below, obs(100, 100, 0))
	assert.Equal(t, types.SignalHold, signal)
	assert.Equal(t, Neutral, class)
}

func TestBandTriggerRequiresLeavingTheCorridor(t *testing.T) {
	s := NewSimpleCrossover(TriggerBand)

	// Above the average but still inside the band corridor.
	signal, class := s.Decide(Below, obs(103, 100, 5))
	assert.Equal(t, types.SignalHold, signal)
	assert.Equal(t, Neutral, class)

	// Clear of the upper band.
	signal, class = s.Decide(class, obs(106, 100, 5))
	assert.Equal(t, types.SignalBuy, signal)
	assert.Equal(t, Above, class)
}

func TestBandTriggerSellsBelowLowerBand(t *testing.T) {
	s := NewSimpleCrossover(TriggerBand)

	signal, class := s.Decide(Above, obs(94, 100, 5))
	assert.Equal(t, types.SignalSell, signal)
	assert.Equal(t, Below, class)
}

func TestDecideIsDeterministic(t *testing.T) {
	s := NewSimpleCrossover(TriggerAverage)
	observation := obs(105, 100, 0)

	firstSignal, firstClass := s.Decide(Below, observation)
	secondSignal, secondClass := s.Decide(Below, observation)
	assert.Equal(t, firstSignal, secondSignal)
	assert.Equal(t, firstClass, secondClass)
}
