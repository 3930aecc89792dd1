// Package report writes finished runs to disk for external plotting and
// analysis tools.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flxgn/buyTheBoop/internal/sink"
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/flxgn/buyTheBoop/pkg/errors"
)

// ResultWriter defines the interface for writing backtest results
type ResultWriter interface {
	// WriteSignal writes a signal event to the output
	WriteSignal(signal types.SignalEvent) error

	// WriteExecution writes an execution record to the output
	WriteExecution(execution types.ExecutionRecord) error

	// WriteValuation writes a valuation record to the output
	WriteValuation(valuation types.ValuationRecord) error

	// WriteAll writes everything the sink collected
	WriteAll(results *sink.Sink) error

	// Close finalizes the writing process
	Close() error
}

// CSVWriter implements ResultWriter by writing to CSV files under a
// per-run directory.
type CSVWriter struct {
	baseDir string
	runDir  string

	signalsFile    *os.File
	executionsFile *os.File
	valuationsFile *os.File

	signalsCsv    *csv.Writer
	executionsCsv *csv.Writer
	valuationsCsv *csv.Writer
}

// NewCSVWriter creates a new CSVWriter with the given base directory
func NewCSVWriter(baseDir string) (ResultWriter, error) {
	// Create a directory for this run using current timestamp
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	runDir := filepath.Join(baseDir, timestamp)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create run directory", err)
	}

	writer := &CSVWriter{
		baseDir: baseDir,
		runDir:  runDir,
	}

	if err := writer.initFiles(); err != nil {
		return nil, err
	}

	return writer, nil
}

// RunDir returns the directory this run is written to.
func (w *CSVWriter) RunDir() string {
	return w.runDir
}

// initFiles initializes all CSV files
func (w *CSVWriter) initFiles() error {
	signalsFile, err := os.Create(filepath.Join(w.runDir, "signals.csv"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create signals file", err)
	}
	w.signalsFile = signalsFile
	w.signalsCsv = csv.NewWriter(signalsFile)

	if err := w.signalsCsv.Write([]string{
		"tick_index", "timestamp", "signal_type", "price", "average",
	}); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write signals header", err)
	}

	executionsFile, err := os.Create(filepath.Join(w.runDir, "executions.csv"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create executions file", err)
	}
	w.executionsFile = executionsFile
	w.executionsCsv = csv.NewWriter(executionsFile)

	if err := w.executionsCsv.Write([]string{
		"tick_index", "timestamp", "requested", "outcome", "price",
		"filled_amount", "cash", "coin",
	}); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write executions header", err)
	}

	valuationsFile, err := os.Create(filepath.Join(w.runDir, "valuations.csv"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create valuations file", err)
	}
	w.valuationsFile = valuationsFile
	w.valuationsCsv = csv.NewWriter(valuationsFile)

	if err := w.valuationsCsv.Write([]string{
		"tick_index", "timestamp", "traded_value", "hold_value",
	}); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write valuations header", err)
	}

	return nil
}

// WriteSignal implements ResultWriter.
func (w *CSVWriter) WriteSignal(signal types.SignalEvent) error {
	return w.signalsCsv.Write([]string{
		fmt.Sprintf("%d", signal.TickIndex),
		signal.Timestamp.Format(time.RFC3339),
		string(signal.Type),
		signal.Price.String(),
		signal.Average.String(),
	})
}

// WriteExecution implements ResultWriter.
func (w *CSVWriter) WriteExecution(execution types.ExecutionRecord) error {
	return w.executionsCsv.Write([]string{
		fmt.Sprintf("%d", execution.TickIndex),
		execution.Timestamp.Format(time.RFC3339),
		string(execution.Requested),
		string(execution.Outcome),
		execution.Price.String(),
		execution.FilledAmount.String(),
		execution.Account.Cash.String(),
		execution.Account.Coin.String(),
	})
}

// WriteValuation implements ResultWriter.
func (w *CSVWriter) WriteValuation(valuation types.ValuationRecord) error {
	return w.valuationsCsv.Write([]string{
		fmt.Sprintf("%d", valuation.TickIndex),
		valuation.Timestamp.Format(time.RFC3339),
		valuation.TradedValue.String(),
		valuation.HoldValue.String(),
	})
}

// WriteAll implements ResultWriter.
func (w *CSVWriter) WriteAll(results *sink.Sink) error {
	for _, signal := range results.Signals() {
		if err := w.WriteSignal(signal); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write signal", err)
		}
	}

	for _, execution := range results.Executions() {
		if err := w.WriteExecution(execution); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write execution", err)
		}
	}

	for _, valuation := range results.Valuations() {
		if err := w.WriteValuation(valuation); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write valuation", err)
		}
	}

	return nil
}

// Close implements ResultWriter.
func (w *CSVWriter) Close() error {
	w.signalsCsv.Flush()
	w.executionsCsv.Flush()
	w.valuationsCsv.Flush()

	for _, file := range []*os.File{w.signalsFile, w.executionsFile, w.valuationsFile} {
		if file == nil {
			continue
		}

		if err := file.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to close results file", err)
		}
	}

	return nil
}
