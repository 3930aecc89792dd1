// Package accounting tracks the traded account alongside a buy-and-hold
// baseline and values both once per tick.
package accounting

import (
	"github.com/flxgn/buyTheBoop/internal/logger"
	"github.com/flxgn/buyTheBoop/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Accountant emits exactly one valuation record per price observation, in
// tick order. A trade for tick n reaches this stage strictly after the
// price of tick n and strictly before the price of tick n+1, so the tick is
// valued when the first message of the following tick arrives and the last
// tick is valued at flush. The accountant runs in filter mode and forwards
// the stream itself, placing each valuation before the price observation
// that completed it so tick order on the wire never regresses.
//
// The baseline account mirrors buying all-in at the tick 0 price and never
// trading again.
type Accountant struct {
	initialCash decimal.Decimal
	traded      types.Account
	hold        types.Account
	seeded      bool
	pending     *types.PriceObservation
	log         *logger.Logger
}

// NewAccountant creates the accountant. initialCash must equal the starting
// cash of the exchange stage so both accounts are comparable.
func NewAccountant(initialCash decimal.Decimal, log *logger.Logger) *Accountant {
	return &Accountant{
		initialCash: initialCash,
		traded:      types.NewAccount(initialCash),
		hold:        types.NewAccount(initialCash),
		log:         log.Named("accountant"),
	}
}

// Name implements messaging.Actor.
func (a *Accountant) Name() string {
	return "accountant"
}

// Act implements messaging.Actor.
func (a *Accountant) Act(msg types.Message) ([]types.Message, error) {
	switch data := msg.Data.(type) {
	case types.PriceObservation:
		var out []types.Message
		if a.pending != nil {
			out = append(out, msg.Derive(a.valuation(*a.pending)))
		}

		if !a.seeded {
			a.hold = types.Account{
				Cash: decimal.Zero,
				Coin: a.initialCash.Div(data.Price),
			}
			a.seeded = true

			a.log.Info("baseline seeded",
				zap.String("price", data.Price.String()),
				zap.String("coin", a.hold.Coin.String()),
			)
		}

		observation := data
		a.pending = &observation

		return append(out, msg), nil
	case types.ExecutionRecord:
		a.traded = data.Account

		return []types.Message{msg}, nil
	default:
		return []types.Message{msg}, nil
	}
}

// Flush implements messaging.Flusher, valuing the final tick of the run.
func (a *Accountant) Flush() ([]types.Message, error) {
	if a.pending == nil {
		return nil, nil
	}

	record := a.valuation(*a.pending)
	a.pending = nil

	return []types.Message{types.NewMessage(record)}, nil
}

func (a *Accountant) valuation(obs types.PriceObservation) types.ValuationRecord {
	return types.ValuationRecord{
		TickIndex:   obs.TickIndex,
		Timestamp:   obs.Timestamp,
		TradedValue: a.traded.Value(obs.Price),
		HoldValue:   a.hold.Value(obs.Price),
	}
}
