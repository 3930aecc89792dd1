package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/flxgn/buyTheBoop/internal/backtest"
	"github.com/flxgn/buyTheBoop/internal/feed"
	"github.com/flxgn/buyTheBoop/internal/logger"
	"github.com/flxgn/buyTheBoop/internal/report"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
)

// progressSource wraps a price source and advances a progress bar as the
// feed consumes it.
type progressSource struct {
	source feed.Source
	bar    *progressbar.ProgressBar
}

func (p *progressSource) Next() (feed.Point, bool, error) {
	point, ok, err := p.source.Next()
	if ok {
		_ = p.bar.Add(1)
	}

	return point, ok, err
}

// backtestAction is the core logic executed by the CLI command. It loads the
// configuration and the price series, runs the pipeline, and writes results.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputDir := cmd.String("output")
	syntheticCount := cmd.Int("synthetic-count")
	seed := cmd.Int("seed")

	configContent, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	engine := backtest.NewEngine(appLogger)
	if err := engine.Initialize(string(configContent)); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	var (
		source feed.Source
		total  int
	)

	if dataPath != "" {
		csvSource, err := feed.LoadCSV(dataPath)
		if err != nil {
			return fmt.Errorf("failed to load price history: %w", err)
		}

		source = csvSource
		total = csvSource.Len()
	} else {
		total = int(syntheticCount)
		source = feed.NewSyntheticSource(int64(seed), decimal.NewFromInt(100),
			time.Now().UTC().Truncate(time.Minute).Add(-time.Duration(total)*time.Minute),
			time.Minute, total)
	}

	bar := progressbar.New(total)
	results, err := engine.Run(ctx, &progressSource{source: source, bar: bar})
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	writer, err := report.NewCSVWriter(outputDir)
	if err != nil {
		return fmt.Errorf("failed to create result writer: %w", err)
	}

	if err := writer.WriteAll(results); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close result writer: %w", err)
	}

	store, err := backtest.NewResultStore(appLogger)
	if err != nil {
		return fmt.Errorf("failed to open result store: %w", err)
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize result store: %w", err)
	}

	if err := store.Write(results); err != nil {
		return fmt.Errorf("failed to persist results: %w", err)
	}

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	fmt.Printf("\nticks:          %d\n", stats.Ticks)
	fmt.Printf("signals:        %d\n", stats.Signals)
	fmt.Printf("filled orders:  %d\n", stats.FilledOrders)
	fmt.Printf("skipped orders: %d\n", stats.SkippedOrders)
	fmt.Printf("final value:    %.2f (buy and hold: %.2f)\n", stats.FinalTradedValue, stats.FinalHoldValue)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay a price series through the crossover trading pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the YAML configuration file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to a CSV price history (timestamp_ms,price); omit to generate a synthetic series",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for result files",
				Value:   "./results",
			},
			&cli.IntFlag{
				Name:  "synthetic-count",
				Usage: "Number of synthetic ticks when no data file is given",
				Value: 10000,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Seed for the synthetic price series",
				Value: 42,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
