package backtest

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/flxgn/buyTheBoop/internal/logger"
	"github.com/flxgn/buyTheBoop/internal/sink"
	"github.com/flxgn/buyTheBoop/pkg/errors"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// ResultStore persists a finished run into DuckDB so results can be queried
// and summarized after the pipeline has shut down.
type ResultStore struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *logger.Logger
}

// Stats summarizes one persisted run.
type Stats struct {
	Ticks            int64
	Signals          int64
	FilledOrders     int64
	SkippedOrders    int64
	FinalTradedValue float64
	FinalHoldValue   float64
}

// NewResultStore opens an in-memory DuckDB database.
func NewResultStore(log *logger.Logger) (*ResultStore, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to open database", err)
	}

	return &ResultStore{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log.Named("result_store"),
	}, nil
}

// Initialize creates the tables for signals, executions and valuations.
func (s *ResultStore) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			tick_index BIGINT,
			timestamp TIMESTAMP,
			signal_type TEXT,
			price DOUBLE,
			average DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS executions (
			tick_index BIGINT,
			timestamp TIMESTAMP,
			requested TEXT,
			outcome TEXT,
			price DOUBLE,
			filled_amount DOUBLE,
			cash DOUBLE,
			coin DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS valuations (
			tick_index BIGINT,
			timestamp TIMESTAMP,
			traded_value DOUBLE,
			hold_value DOUBLE
		)`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to create tables", err)
		}
	}

	return nil
}

// Write persists every signal, execution and valuation collected by the sink.
func (s *ResultStore) Write(results *sink.Sink) error {
	for _, signal := range results.Signals() {
		price, _ := signal.Price.Float64()
		average, _ := signal.Average.Float64()

		_, err := s.sq.Insert("signals").
			Columns("tick_index", "timestamp", "signal_type", "price", "average").
			Values(signal.TickIndex, signal.Timestamp, string(signal.Type), price, average).
			RunWith(s.db).
			Exec()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to insert signal", err)
		}
	}

	for _, execution := range results.Executions() {
		price, _ := execution.Price.Float64()
		filled, _ := execution.FilledAmount.Float64()
		cash, _ := execution.Account.Cash.Float64()
		coin, _ := execution.Account.Coin.Float64()

		_, err := s.sq.Insert("executions").
			Columns("tick_index", "timestamp", "requested", "outcome", "price", "filled_amount", "cash", "coin").
			Values(execution.TickIndex, execution.Timestamp, string(execution.Requested), string(execution.Outcome), price, filled, cash, coin).
			RunWith(s.db).
			Exec()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to insert execution", err)
		}
	}

	for _, valuation := range results.Valuations() {
		traded, _ := valuation.TradedValue.Float64()
		hold, _ := valuation.HoldValue.Float64()

		_, err := s.sq.Insert("valuations").
			Columns("tick_index", "timestamp", "traded_value", "hold_value").
			Values(valuation.TickIndex, valuation.Timestamp, traded, hold).
			RunWith(s.db).
			Exec()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to insert valuation", err)
		}
	}

	s.log.Info("results persisted",
		zap.Int("signals", len(results.Signals())),
		zap.Int("executions", len(results.Executions())),
		zap.Int("valuations", len(results.Valuations())),
	)

	return nil
}

// Stats computes the summary of the persisted run.
func (s *ResultStore) Stats() (Stats, error) {
	var stats Stats

	err := s.sq.Select("COUNT(*)").From("valuations").RunWith(s.db).QueryRow().Scan(&stats.Ticks)
	if err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to count valuations", err)
	}

	err = s.sq.Select("COUNT(*)").From("signals").RunWith(s.db).QueryRow().Scan(&stats.Signals)
	if err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to count signals", err)
	}

	err = s.sq.Select("COUNT(*)").From("executions").
		Where(squirrel.Eq{"outcome": "filled"}).
		RunWith(s.db).QueryRow().Scan(&stats.FilledOrders)
	if err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to count filled orders", err)
	}

	err = s.sq.Select("COUNT(*)").From("executions").
		Where(squirrel.NotEq{"outcome": "filled"}).
		RunWith(s.db).QueryRow().Scan(&stats.SkippedOrders)
	if err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to count skipped orders", err)
	}

	if stats.Ticks > 0 {
		err = s.sq.Select("traded_value", "hold_value").From("valuations").
			OrderBy("tick_index DESC").Limit(1).
			RunWith(s.db).QueryRow().Scan(&stats.FinalTradedValue, &stats.FinalHoldValue)
		if err != nil {
			return Stats{}, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to read final valuation", err)
		}
	}

	return stats, nil
}

// Cleanup drops every table, leaving the store ready for another run.
func (s *ResultStore) Cleanup() error {
	for _, table := range []string{"signals", "executions", "valuations"} {
		if _, err := s.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return errors.Wrapf(errors.ErrCodeResultStoreFailed, err, "failed to drop %s", table)
		}
	}

	return nil
}

// Close releases the underlying database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
