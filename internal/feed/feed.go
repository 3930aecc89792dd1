// Package feed validates and stamps the raw price series, producing the
// head of the pipeline.
package feed

import (
	"context"
	"time"

	"github.com/flxgn/buyTheBoop/internal/logger"
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/flxgn/buyTheBoop/pkg/errors"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// Feed is the root stage. It pulls points from a source, rejects malformed
// input, assigns dense tick indices, and pumps price observations into the
// chain. The whole pipeline aborts on the first bad point; skipping it would
// silently break the ordering guarantees downstream.
type Feed struct {
	source    Source
	pair      string
	startTime optional.Option[time.Time]
	endTime   optional.Option[time.Time]
	log       *logger.Logger
}

// New creates a feed over the given source. Points outside the optional
// [startTime, endTime] range are dropped before tick assignment, so the
// emitted stream stays dense.
func New(source Source, pair string, startTime, endTime optional.Option[time.Time], log *logger.Logger) *Feed {
	return &Feed{
		source:    source,
		pair:      pair,
		startTime: startTime,
		endTime:   endTime,
		log:       log.Named("feed"),
	}
}

// Run pumps the source into out until exhaustion, then closes out so
// shutdown propagates through the chain.
func (f *Feed) Run(ctx context.Context, out chan<- types.Message) error {
	defer close(out)

	var (
		tick     int64
		previous time.Time
		first    = true
	)

	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodePipelineBroken, "feed cancelled mid-stream", err)
		}

		point, ok, err := f.source.Next()
		if err != nil {
			return errors.Wrap(errors.ErrCodeMalformedInput, "price source failed", err)
		}

		if !ok {
			f.log.Info("price series exhausted", zap.Int64("ticks", tick))

			return nil
		}

		if point.Timestamp.IsZero() {
			return errors.Newf(errors.ErrCodeMalformedInput, "missing timestamp after %s", previous)
		}

		if !point.Price.IsPositive() {
			return errors.Newf(errors.ErrCodeMalformedInput, "non-positive price %s at %s", point.Price, point.Timestamp)
		}

		if !first && !point.Timestamp.After(previous) {
			return errors.Newf(errors.ErrCodeMalformedInput, "non-monotonic timestamp %s after %s", point.Timestamp, previous)
		}

		previous = point.Timestamp
		first = false

		if f.startTime.IsSome() && point.Timestamp.Before(f.startTime.Unwrap()) {
			continue
		}

		if f.endTime.IsSome() && point.Timestamp.After(f.endTime.Unwrap()) {
			continue
		}

		observation := types.PriceObservation{
			TickIndex: tick,
			Timestamp: point.Timestamp,
			Pair:      f.pair,
			Price:     point.Price,
		}
		tick++

		select {
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCodePipelineBroken, "feed cancelled mid-stream", ctx.Err())
		case out <- types.NewMessage(observation):
		}
	}
}
