package trade

import (
	"context"
	"errors"

	"github.com/tradeforge/daytrader/internal/broker"
	traderrors "github.com/tradeforge/daytrader/internal/errors"
	"github.com/tradeforge/daytrader/internal/risk"
)

// Outcome is the terminal state of one trade attempt.
type Outcome int

const (
	// OutcomeNoOrder: the entry was never submitted.
	OutcomeNoOrder Outcome = iota
	// OutcomeNoFill: the entry was submitted but ended without a fill.
	OutcomeNoFill
	// OutcomeProtected: entry filled and the trailing stop is resting.
	OutcomeProtected
	// OutcomeUnprotected: entry filled but protection could not be placed.
	// Capital is at risk with no protective order.
	OutcomeUnprotected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoFill:
		return "NO_FILL"
	case OutcomeProtected:
		return "PROTECTED"
	case OutcomeUnprotected:
		return "UNPROTECTED"
	default:
		return "NO_ORDER"
	}
}

// Plan is one candidate trade handed to the lifecycle.
type Plan struct {
	Symbol string
	Side   broker.Side
	Params risk.Parameters

	// EntryStopLoss attaches a bracket stop-loss at entry time. Off by
	// default: protection is normally deferred to the trailing stop.
	EntryStopLoss bool
}

// Result reports how the lifecycle ended.
type Result struct {
	Outcome      Outcome
	Entry        *broker.Order
	TrailingStop *broker.Order
	FilledQty    int64
}

// Execute runs one trade attempt end to end: submit the entry, wait for the
// fill, and attach a trailing stop sized by the filled quantity. The returned
// error explains any non-Protected outcome; OutcomeUnprotected errors must be
// surfaced loudly by the caller.
func (m *Manager) Execute(ctx context.Context, plan Plan) (Result, error) {
	var stopLoss *float64
	if plan.EntryStopLoss {
		sl := plan.Params.StopLossPrice
		stopLoss = &sl
	}
	takeProfit := plan.Params.TakeProfitPrice

	entry, err := m.PlaceMarketOrder(ctx, plan.Symbol, plan.Params.Quantity, plan.Side, stopLoss, &takeProfit)
	if err != nil {
		return Result{Outcome: OutcomeNoOrder}, err
	}

	filledQty, err := m.WaitForFill(ctx, entry.ID)
	if err != nil {
		if errors.Is(err, traderrors.ErrOrderTimeout) || errors.Is(err, traderrors.ErrOrderRejected) {
			return Result{Outcome: OutcomeNoFill, Entry: entry}, err
		}
		// Transport failure mid-wait: the fill state is unknown and the
		// position, if any, has no protection yet.
		return Result{Outcome: OutcomeUnprotected, Entry: entry},
			traderrors.NewProtectionError("trade", "fill_wait", err)
	}
	if filledQty <= 0 {
		return Result{Outcome: OutcomeNoFill, Entry: entry}, traderrors.ErrOrderRejected
	}

	trailing, err := m.PlaceTrailingStop(ctx, plan.Symbol, filledQty, plan.Side, plan.Params.TrailAmount)
	if err != nil {
		return Result{Outcome: OutcomeUnprotected, Entry: entry, FilledQty: filledQty}, err
	}

	return Result{
		Outcome:      OutcomeProtected,
		Entry:        entry,
		TrailingStop: trailing,
		FilledQty:    filledQty,
	}, nil
}
