// Package marketdata provides historical bar retrieval for the trading
// engine. The engine only depends on BarProvider; the REST client is one
// implementation of it.
package marketdata

import (
	"context"

	"github.com/tradeforge/daytrader/pkg/types"
)

// BarProvider returns an ordered, chronological sequence of OHLCV bars over a
// lookback window. An empty slice means the symbol has no data right now and
// should be skipped for the cycle.
type BarProvider interface {
	GetBars(ctx context.Context, symbol string, timeframe types.Timeframe, lookbackDays int) ([]types.PriceBar, error)
}
