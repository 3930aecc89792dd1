package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is a single point of the replayed price series. It is
// immutable once produced by the feed. TickIndex is dense and monotonically
// increasing; it uniquely identifies the position in the stream.
type PriceObservation struct {
	TickIndex int64
	Timestamp time.Time
	Pair      string
	Price     decimal.Decimal
}

// Kind implements Payload.
func (p PriceObservation) Kind() EventKind { return EventPriceUpdated }

// Tick implements Payload.
func (p PriceObservation) Tick() int64 { return p.TickIndex }

// AveragedObservation is a price observation augmented with the current
// sliding-window mean and the offset bands around it. Until the window has
// accumulated its configured size, WindowFull is false and the averages must
// not drive trading decisions.
type AveragedObservation struct {
	PriceObservation
	Average    decimal.Decimal
	UpperBand  decimal.Decimal
	LowerBand  decimal.Decimal
	WindowFull bool
}

// Kind implements Payload.
func (a AveragedObservation) Kind() EventKind { return EventAveragePriceUpdated }

// SignalKind is the trade decision produced by the crossover stage.
type SignalKind string

const (
	SignalBuy  SignalKind = "buy"
	SignalSell SignalKind = "sell"
	SignalHold SignalKind = "hold"
)

// SignalEvent is emitted when the price classification transitions across
// the configured trigger line. Hold decisions are never emitted.
type SignalEvent struct {
	TickIndex int64
	Timestamp time.Time
	Type      SignalKind
	Price     decimal.Decimal
	Average   decimal.Decimal
}

// Kind implements Payload.
func (s SignalEvent) Kind() EventKind { return EventSignal }

// Tick implements Payload.
func (s SignalEvent) Tick() int64 { return s.TickIndex }

// Account holds the cash and coin balances of a simulated account. Both
// balances are always non-negative: no short positions, no margin.
type Account struct {
	Cash decimal.Decimal
	Coin decimal.Decimal
}

// NewAccount returns an account seeded with the given cash and no coin.
func NewAccount(cash decimal.Decimal) Account {
	return Account{Cash: cash, Coin: decimal.Zero}
}

// Value returns cash + coin x price.
func (a Account) Value(price decimal.Decimal) decimal.Decimal {
	return a.Cash.Add(a.Coin.Mul(price))
}

// ExecutionOutcome describes how the exchange handled a signal.
type ExecutionOutcome string

const (
	OutcomeFilled                   ExecutionOutcome = "filled"
	OutcomeSkippedInsufficientFunds ExecutionOutcome = "skipped_insufficient_funds"
	OutcomeSkippedNoPosition        ExecutionOutcome = "skipped_no_position"
)

// ExecutionRecord reports the result of one signal delivered to the
// exchange, including a snapshot of the account after the order settled.
type ExecutionRecord struct {
	TickIndex int64
	Timestamp time.Time
	Requested SignalKind
	Outcome   ExecutionOutcome
	Price     decimal.Decimal
	// FilledAmount is the coin bought on a buy or the cash received on a
	// sell. Zero when the order was skipped.
	FilledAmount decimal.Decimal
	Account      Account
}

// Kind implements Payload.
func (e ExecutionRecord) Kind() EventKind { return EventOrderExecuted }

// Tick implements Payload.
func (e ExecutionRecord) Tick() int64 { return e.TickIndex }

// ValuationRecord compares the traded account against the buy-and-hold
// baseline at one tick. Exactly one is produced per price observation.
type ValuationRecord struct {
	TickIndex   int64
	Timestamp   time.Time
	TradedValue decimal.Decimal
	HoldValue   decimal.Decimal
}

// Kind implements Payload.
func (v ValuationRecord) Kind() EventKind { return EventValuation }

// Tick implements Payload.
func (v ValuationRecord) Tick() int64 { return v.TickIndex }
