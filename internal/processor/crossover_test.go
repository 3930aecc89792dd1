package processor

import (
	"testing"
	"time"

	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/flxgn/buyTheBoop/pkg/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func averagedMsg(tick int64, price, average float64, full bool) types.Message {
	avg := decimal.NewFromFloat(average)

	return types.NewMessage(types.AveragedObservation{
		PriceObservation: types.PriceObservation{
			TickIndex: tick,
			Timestamp: time.Unix(tick*60, 0).UTC(),
			Price:     decimal.NewFromFloat(price),
		},
		Average:    avg,
		UpperBand:  avg,
		LowerBand:  avg,
		WindowFull: full,
	})
}

func collectSignals(t *testing.T, c *Crossover, msgs ...types.Message) []types.SignalEvent {
	t.Helper()

	var signals []types.SignalEvent

	for _, msg := range msgs {
		out, err := c.Act(msg)
		require.NoError(t, err)

		for _, m := range out {
			signal, ok := m.Data.(types.SignalEvent)
			require.True(t, ok)
			signals = append(signals, signal)
		}
	}

	return signals
}

func TestCrossoverIgnoresFillingWindow(t *testing.T) {
	c := NewCrossover(strategy.NewSimpleCrossover(strategy.TriggerAverage))

	signals := collectSignals(t, c,
		averagedMsg(0, 90, 100, false),
		averagedMsg(1, 110, 100, false),
	)
	assert.Empty(t, signals)
}

func TestCrossoverEmitsSingleBuyOnMonotonicRise(t *testing.T) {
	c := NewCrossover(strategy.NewSimpleCrossover(strategy.TriggerAverage))

	signals := collectSignals(t, c,
		averagedMsg(0, 90, 100, true),
		averagedMsg(1, 95, 100, true),
		averagedMsg(2, 105, 100, true),
		averagedMsg(3, 110, 101, true),
		averagedMsg(4, 120, 103, true),
	)

	require.Len(t, signals, 1)
	assert.Equal(t, types.SignalBuy, signals[0].Type)
	assert.Equal(t, int64(2), signals[0].TickIndex)
}

func TestCrossoverEmitsSellOnDownwardCrossing(t *testing.T) {
	c := NewCrossover(strategy.NewSimpleCrossover(strategy.TriggerAverage))

	signals := collectSignals(t, c,
		averagedMsg(0, 110, 100, true),
		averagedMsg(1, 90, 100, true),
	)

	require.Len(t, signals, 1)
	assert.Equal(t, types.SignalSell, signals[0].Type)
	assert.Equal(t, int64(1), signals[0].TickIndex)
}

func TestCrossoverEmitsNothingOnFirstClassifiedTick(t *testing.T) {
	c := NewCrossover(strategy.NewSimpleCrossover(strategy.TriggerAverage))

	signals := collectSignals(t, c, averagedMsg(0, 110, 100, true))
	assert.Empty(t, signals)
}

func TestCrossoverStateAdvancesWithoutSignal(t *testing.T) {
	c := NewCrossover(strategy.NewSimpleCrossover(strategy.TriggerAverage))

	// The neutral tick emits nothing but must still move the state, so the
	// following tick compares against neutral, not against the old above.
	signals := collectSignals(t, c,
		averagedMsg(0, 110, 100, true),
		averagedMsg(1, 100, 100, true),
		averagedMsg(2, 105, 100, true),
	)

	require.Len(t, signals, 1)
	assert.Equal(t, types.SignalBuy, signals[0].Type)
	assert.Equal(t, int64(2), signals[0].TickIndex)
}

func TestCrossoverIgnoresRawPriceEvents(t *testing.T) {
	c := NewCrossover(strategy.NewSimpleCrossover(strategy.TriggerAverage))

	out, err := c.Act(types.NewMessage(types.PriceObservation{TickIndex: 0, Price: decimal.NewFromInt(100)}))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCrossoverIsIdempotentAcrossRuns(t *testing.T) {
	input := []types.Message{
		averagedMsg(0, 90, 100, true),
		averagedMsg(1, 105, 100, true),
		averagedMsg(2, 95, 101, true),
		averagedMsg(3, 110, 100, true),
	}

	first := collectSignals(t, NewCrossover(strategy.NewSimpleCrossover(strategy.TriggerAverage)), input...)
	second := collectSignals(t, NewCrossover(strategy.NewSimpleCrossover(strategy.TriggerAverage)), input...)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Type, second[i].Type)
		assert.Equal(t, first[i].TickIndex, second[i].TickIndex)
		assert.True(t, first[i].Price.Equal(second[i].Price))
	}
}
