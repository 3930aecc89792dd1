// Package exchange executes trade signals against a simulated account.
package exchange

import (
	"github.com/flxgn/buyTheBoop/internal/logger"
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/flxgn/buyTheBoop/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SimulatedExchange fills market orders against an in-memory account at the
// price carried by the signal itself. Sizing is whole-position: a buy spends
// all cash, a sell liquidates all coin. No fees, no slippage. The account is
// owned exclusively by this stage; one execution record is emitted per
// signal received, filled or skipped.
type SimulatedExchange struct {
	account types.Account
	log     *logger.Logger
}

// NewSimulatedExchange creates the exchange with the given starting cash and
// no coin.
func NewSimulatedExchange(initialCash decimal.Decimal, log *logger.Logger) *SimulatedExchange {
	return &SimulatedExchange{
		account: types.NewAccount(initialCash),
		log:     log.Named("simulated_exchange"),
	}
}

// Name implements messaging.Actor.
func (e *SimulatedExchange) Name() string {
	return "simulated_exchange"
}

// Account returns a snapshot of the current account state.
func (e *SimulatedExchange) Account() types.Account {
	return e.account
}

// Act implements messaging.Actor. Hold signals are never delivered to this
// stage; receiving one means the detector contract is broken.
func (e *SimulatedExchange) Act(msg types.Message) ([]types.Message, error) {
	signal, ok := msg.Data.(types.SignalEvent)
	if !ok {
		return nil, nil
	}

	record := types.ExecutionRecord{
		TickIndex:    signal.TickIndex,
		Timestamp:    signal.Timestamp,
		Requested:    signal.Type,
		Price:        signal.Price,
		FilledAmount: decimal.Zero,
	}

	switch signal.Type {
	case types.SignalBuy:
		if e.account.Cash.IsPositive() {
			coin := e.account.Cash.Div(signal.Price)
			e.account = types.Account{Cash: decimal.Zero, Coin: coin}
			record.Outcome = types.OutcomeFilled
			record.FilledAmount = coin
		} else {
			record.Outcome = types.OutcomeSkippedInsufficientFunds
		}
	case types.SignalSell:
		if e.account.Coin.IsPositive() {
			cash := e.account.Coin.Mul(signal.Price)
			e.account = types.Account{Cash: cash, Coin: decimal.Zero}
			record.Outcome = types.OutcomeFilled
			record.FilledAmount = cash
		} else {
			record.Outcome = types.OutcomeSkippedNoPosition
		}
	default:
		return nil, errors.Newf(errors.ErrCodeUnexpectedSignal,
			"signal %q delivered to exchange at tick %d", signal.Type, signal.TickIndex)
	}

	record.Account = e.account

	e.log.Debug("order processed",
		zap.Int64("tick", record.TickIndex),
		zap.String("requested", string(record.Requested)),
		zap.String("outcome", string(record.Outcome)),
		zap.String("price", record.Price.String()),
	)

	return []types.Message{msg.Derive(record)}, nil
}
