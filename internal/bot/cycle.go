package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/tradeforge/daytrader/internal/broker"
	traderrors "github.com/tradeforge/daytrader/internal/errors"
	"github.com/tradeforge/daytrader/internal/monitoring"
	"github.com/tradeforge/daytrader/internal/strategy"
	"github.com/tradeforge/daytrader/internal/trade"
	"github.com/tradeforge/daytrader/pkg/types"
)

// runCycle evaluates every tracked symbol once. A failure in one symbol is
// logged and isolated; the rest of the cycle proceeds.
func (b *Bot) runCycle(ctx context.Context) {
	b.log.Info("Running day trader cycle for %d symbols", len(b.cfg.Symbols))

	for _, symbol := range b.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}
		if err := b.processSymbol(ctx, symbol); err != nil {
			b.log.LogError(fmt.Sprintf("Symbol %s", symbol), err)
			monitoring.RecordError(string(traderrors.Categorize(err, "bot", "cycle").Category))
			b.health.AddError(fmt.Sprintf("%s: %v", symbol, err))
		}
	}
}

// processSymbol walks one symbol through the decision path: bars, signal,
// fresh account state, risk sizing, then the order lifecycle.
func (b *Bot) processSymbol(ctx context.Context, symbol string) error {
	bars, err := b.fetchBars(ctx, symbol)
	if err != nil {
		return traderrors.Wrap(err, traderrors.ErrorCategoryMarketData, "bot", "fetch_bars")
	}
	if len(bars) == 0 {
		b.log.Warning("No data found for %s, skipping", symbol)
		return nil
	}

	b.strategy.UpdateBuffer(symbol, bars)
	signal := b.strategy.Signal(symbol)
	b.log.Info("Trade signal for %s: %s", symbol, signal)

	if !signal.Actionable() {
		return nil
	}

	// Re-fetch account and positions right before committing: stale buying
	// power or position data could authorize an invalid trade.
	account, positions, err := b.fetchAccountState(ctx)
	if err != nil {
		return traderrors.Wrap(err, traderrors.ErrorCategoryAccount, "bot", "refresh_account")
	}
	monitoring.UpdateAccount(account.Equity, len(positions))

	if hasPosition(positions, symbol) {
		b.log.Info("Skipping %s: already have an open position", symbol)
		return nil
	}

	side := broker.SideBuy
	if signal == strategy.SignalSell {
		side = broker.SideSell
	}
	entryPrice := bars[len(bars)-1].Close

	params, err := b.riskCalc.Calculate(bars, entryPrice, account, positions, side)
	if err != nil {
		if errors.Is(err, traderrors.ErrInsufficientData) {
			b.log.Warning("Skipping %s: %v", symbol, err)
			return nil
		}
		return err
	}
	if params.Quantity <= 0 {
		b.log.Info("Skipping %s: risk limits produced zero quantity", symbol)
		return nil
	}

	b.log.Trade("Executing %s %s: qty=%d entry=%.2f stop=%.2f target=%.2f trail=%.2f",
		signal, symbol, params.Quantity, params.EntryPrice,
		params.StopLossPrice, params.TakeProfitPrice, params.TrailAmount)

	result, err := b.trader.Execute(ctx, trade.Plan{
		Symbol:        symbol,
		Side:          side,
		Params:        params,
		EntryStopLoss: b.cfg.Session.EntryStopLoss,
	})
	b.recordOutcome(symbol, side, result, err)
	return nil
}

// recordOutcome folds a lifecycle result into logs, metrics, and alerts. An
// unprotected position is the loudest path: capital is at risk with no
// protective order working.
func (b *Bot) recordOutcome(symbol string, side broker.Side, result trade.Result, err error) {
	switch result.Outcome {
	case trade.OutcomeProtected:
		monitoring.RecordTrade(symbol, string(side))
		b.log.Trade("%s protected: filled %d, trailing stop %s",
			symbol, result.FilledQty, result.TrailingStop.ID)

	case trade.OutcomeUnprotected:
		monitoring.RecordUnprotectedPosition(symbol)
		b.log.Error("UNPROTECTED POSITION in %s: filled %d with no trailing stop (%v)",
			symbol, result.FilledQty, err)
		b.alert("error", fmt.Sprintf("Unprotected position in %s: filled %d shares, trailing stop missing. Manual intervention required.",
			symbol, result.FilledQty))

	case trade.OutcomeNoFill:
		reason := "rejected"
		if errors.Is(err, traderrors.ErrOrderTimeout) {
			reason = "timeout"
		}
		monitoring.RecordOrderRejected(symbol, reason)
		b.log.Warning("Order for %s abandoned (%s): %v", symbol, reason, err)

	case trade.OutcomeNoOrder:
		if errors.Is(err, traderrors.ErrInvalidAccountState) {
			monitoring.RecordOrderRejected(symbol, "buying_power")
		} else {
			monitoring.RecordOrderRejected(symbol, "submit_failed")
		}
		b.log.Warning("No order submitted for %s: %v", symbol, err)
	}
}

func (b *Bot) fetchBars(ctx context.Context, symbol string) ([]types.PriceBar, error) {
	var bars []types.PriceBar
	err := b.marketDataGuard.Do(ctx, func() error {
		var berr error
		bars, berr = b.bars.GetBars(ctx, symbol, b.cfg.Timeframe, b.cfg.LookbackDays)
		return berr
	})
	return bars, err
}

func (b *Bot) fetchAccountState(ctx context.Context) (broker.AccountSnapshot, []broker.Position, error) {
	var (
		account   broker.AccountSnapshot
		positions []broker.Position
	)
	err := b.accountGuard.Do(ctx, func() error {
		var aerr error
		account, aerr = b.broker.GetAccount(ctx)
		if aerr != nil {
			return aerr
		}
		positions, aerr = b.broker.GetPositions(ctx)
		return aerr
	})
	return account, positions, err
}

func hasPosition(positions []broker.Position, symbol string) bool {
	for _, pos := range positions {
		if pos.Symbol == symbol {
			return true
		}
	}
	return false
}
