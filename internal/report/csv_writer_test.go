package report

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flxgn/buyTheBoop/internal/sink"
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults(t *testing.T) *sink.Sink {
	t.Helper()

	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	in := make(chan types.Message, 4)
	in <- types.NewMessage(types.SignalEvent{
		TickIndex: 3,
		Timestamp: base,
		Type:      types.SignalBuy,
		Price:     decimal.NewFromInt(105),
		Average:   decimal.NewFromInt(101),
	})
	in <- types.NewMessage(types.ExecutionRecord{
		TickIndex: 3,
		Timestamp: base,
		Requested: types.SignalBuy,
		Outcome:   types.OutcomeFilled,
		Price:     decimal.NewFromInt(105),
		Account:   types.Account{Cash: decimal.Zero, Coin: decimal.NewFromInt(9)},
	})
	in <- types.NewMessage(types.ValuationRecord{
		TickIndex:   3,
		Timestamp:   base,
		TradedValue: decimal.NewFromInt(1000),
		HoldValue:   decimal.NewFromInt(1000),
	})
	close(in)

	results := sink.New()
	require.NoError(t, results.Drain(context.Background(), in))

	return results
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	return rows
}

func TestCSVWriterWritesAllStreams(t *testing.T) {
	baseDir := t.TempDir()

	writer, err := NewCSVWriter(baseDir)
	require.NoError(t, err)

	require.NoError(t, writer.WriteAll(sampleResults(t)))
	require.NoError(t, writer.Close())

	runDir := writer.(*CSVWriter).RunDir()

	signals := readCSV(t, filepath.Join(runDir, "signals.csv"))
	require.Len(t, signals, 2)
	assert.Equal(t, []string{"tick_index", "timestamp", "signal_type", "price", "average"}, signals[0])
	assert.Equal(t, "3", signals[1][0])
	assert.Equal(t, "buy", signals[1][2])

	executions := readCSV(t, filepath.Join(runDir, "executions.csv"))
	require.Len(t, executions, 2)
	assert.Equal(t, "filled", executions[1][3])

	valuations := readCSV(t, filepath.Join(runDir, "valuations.csv"))
	require.Len(t, valuations, 2)
	assert.Equal(t, "1000", valuations[1][2])
}

func TestCSVWriterCreatesRunDirectory(t *testing.T) {
	baseDir := t.TempDir()

	writer, err := NewCSVWriter(baseDir)
	require.NoError(t, err)
	defer writer.Close()

	runDir := writer.(*CSVWriter).RunDir()
	info, err := os.Stat(runDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, baseDir, filepath.Dir(runDir))
}
