// Package backtest wires the pipeline stages together and runs a simulation
// over one price series.
package backtest

import (
	"context"
	"sync"

	"github.com/flxgn/buyTheBoop/internal/accounting"
	"github.com/flxgn/buyTheBoop/internal/exchange"
	"github.com/flxgn/buyTheBoop/internal/feed"
	"github.com/flxgn/buyTheBoop/internal/logger"
	"github.com/flxgn/buyTheBoop/internal/messaging"
	"github.com/flxgn/buyTheBoop/internal/processor"
	"github.com/flxgn/buyTheBoop/internal/sink"
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/flxgn/buyTheBoop/pkg/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine runs the crossover backtest pipeline:
// feed -> sliding average -> crossover -> exchange -> accountant -> sink.
// Stages run as goroutines connected by bounded channels; closure of the
// feed's channel propagates shutdown through the chain.
type Engine struct {
	config   Config
	strategy strategy.Strategy
	log      *logger.Logger
}

// NewEngine creates an engine with an unparsed configuration.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{
		config:   DefaultConfig(),
		strategy: nil,
		log:      log,
	}
}

// Initialize parses and validates the YAML configuration.
func (e *Engine) Initialize(configYAML string) error {
	config, err := ParseConfig(configYAML)
	if err != nil {
		return err
	}

	e.config = config
	e.log.Debug("engine initialized", zap.String("config", configYAML))

	return nil
}

// SetStrategy overrides the default crossover strategy.
func (e *Engine) SetStrategy(s strategy.Strategy) {
	e.strategy = s
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Run replays the source through the pipeline and returns the sink holding
// every emitted event. The first stage failure cancels the remaining stages
// and is returned; a run either covers the whole series or fails.
func (e *Engine) Run(ctx context.Context, source feed.Source) (*sink.Sink, error) {
	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	decision := e.strategy
	if decision == nil {
		decision = strategy.NewSimpleCrossover(e.config.TriggerLine)
	}

	initialCash := decimal.NewFromFloat(e.config.InitialCash)
	bandOffset := decimal.NewFromFloat(e.config.BandOffset)

	prices := make(chan types.Message, e.config.BufferSize)
	averaged := make(chan types.Message, e.config.BufferSize)
	signalled := make(chan types.Message, e.config.BufferSize)
	executed := make(chan types.Message, e.config.BufferSize)
	valued := make(chan types.Message, e.config.BufferSize)

	priceFeed := feed.New(source, e.config.Pair, e.config.StartTime, e.config.EndTime, e.log)
	processors := []*messaging.Processor{
		messaging.NewProcessor(prices, averaged, false, processor.NewSlidingAverage(e.config.WindowSize, bandOffset), e.log),
		messaging.NewProcessor(averaged, signalled, false, processor.NewCrossover(decision), e.log),
		messaging.NewProcessor(signalled, executed, false, exchange.NewSimulatedExchange(initialCash, e.log), e.log),
		messaging.NewProcessor(executed, valued, true, accounting.NewAccountant(initialCash, e.log), e.log),
	}
	results := sink.New()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	fail := func(err error) {
		if err == nil {
			return
		}
		// The first failure wins; cancellation errors in the other stages
		// are fallout, not causes.
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	wg.Add(2 + len(processors))

	go func() {
		defer wg.Done()
		fail(priceFeed.Run(ctx, prices))
	}()

	for _, p := range processors {
		go func(p *messaging.Processor) {
			defer wg.Done()
			fail(p.Run(ctx))
		}(p)
	}

	go func() {
		defer wg.Done()
		fail(results.Drain(ctx, valued))
	}()

	wg.Wait()

	if firstErr != nil {
		e.log.Error("backtest aborted", zap.Error(firstErr))

		return nil, firstErr
	}

	e.log.Info("backtest finished",
		zap.String("pair", e.config.Pair),
		zap.String("strategy", decision.Name()),
		zap.Int("ticks", len(results.Prices())),
		zap.Int("signals", len(results.Signals())),
		zap.Int("executions", len(results.Executions())),
	)

	return results, nil
}
