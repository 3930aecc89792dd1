package feed

import (
	"context"
	"testing"
	"time"

	"github.com/flxgn/buyTheBoop/internal/logger"
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/flxgn/buyTheBoop/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

func point(minute int, price float64) Point {
	return Point{
		Timestamp: baseTime.Add(time.Duration(minute) * time.Minute),
		Price:     decimal.NewFromFloat(price),
	}
}

func runFeed(t *testing.T, f *Feed) ([]types.PriceObservation, error) {
	t.Helper()

	out := make(chan types.Message, 128)
	err := f.Run(context.Background(), out)

	var observations []types.PriceObservation
	for msg := range out {
		obs, ok := msg.Data.(types.PriceObservation)
		require.True(t, ok)
		observations = append(observations, obs)
	}

	return observations, err
}

func noRange() (optional.Option[time.Time], optional.Option[time.Time]) {
	return optional.None[time.Time](), optional.None[time.Time]()
}

func TestFeedAssignsDenseTickIndices(t *testing.T) {
	start, end := noRange()
	f := New(NewSliceSource(point(0, 100), point(1, 101), point(2, 102)), "BTC/USDT", start, end, logger.NewNopLogger())

	observations, err := runFeed(t, f)
	require.NoError(t, err)
	require.Len(t, observations, 3)

	for i, obs := range observations {
		assert.Equal(t, int64(i), obs.TickIndex)
		assert.Equal(t, "BTC/USDT", obs.Pair)
	}
}

func TestFeedRejectsNonMonotonicTimestamps(t *testing.T) {
	start, end := noRange()
	f := New(NewSliceSource(point(1, 100), point(0, 101)), "BTC/USDT", start, end, logger.NewNopLogger())

	_, err := runFeed(t, f)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedInput))
}

func TestFeedRejectsDuplicateTimestamps(t *testing.T) {
	start, end := noRange()
	f := New(NewSliceSource(point(0, 100), point(0, 101)), "BTC/USDT", start, end, logger.NewNopLogger())

	_, err := runFeed(t, f)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedInput))
}

func TestFeedRejectsNonPositivePrice(t *testing.T) {
	start, end := noRange()
	f := New(NewSliceSource(point(0, 100), point(1, 0)), "BTC/USDT", start, end, logger.NewNopLogger())

	_, err := runFeed(t, f)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedInput))
}

func TestFeedRejectsMissingTimestamp(t *testing.T) {
	start, end := noRange()
	f := New(NewSliceSource(Point{Price: decimal.NewFromInt(100)}), "BTC/USDT", start, end, logger.NewNopLogger())

	_, err := runFeed(t, f)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedInput))
}

func TestFeedClosesOutputOnAbort(t *testing.T) {
	start, end := noRange()
	f := New(NewSliceSource(point(0, 100), point(1, -5)), "BTC/USDT", start, end, logger.NewNopLogger())

	out := make(chan types.Message, 8)
	err := f.Run(context.Background(), out)
	require.Error(t, err)

	// The channel must be closed even on abnormal termination.
	for range out {
	}
}

func TestFeedFiltersTimeRangeBeforeTickAssignment(t *testing.T) {
	start := optional.Some(baseTime.Add(1 * time.Minute))
	end := optional.Some(baseTime.Add(2 * time.Minute))
	f := New(
		NewSliceSource(point(0, 100), point(1, 101), point(2, 102), point(3, 103)),
		"BTC/USDT", start, end, logger.NewNopLogger(),
	)

	observations, err := runFeed(t, f)
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, int64(0), observations[0].TickIndex)
	assert.True(t, observations[0].Price.Equal(decimal.NewFromInt(101)))
	assert.Equal(t, int64(1), observations[1].TickIndex)
}
