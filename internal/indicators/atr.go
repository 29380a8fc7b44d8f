// Package indicators holds the technical primitives the strategy and risk
// calculator are built on. All functions are stateless: they take a bar or
// price window and return a value, which keeps the callers pure.
package indicators

import (
	"errors"
	"math"

	"github.com/tradeforge/daytrader/pkg/types"
)

// ErrInsufficientData is returned when a window is shorter than the
// indicator's period.
var ErrInsufficientData = errors.New("insufficient data points for calculation")

// ATR computes the Average True Range over the trailing period using Wilder
// smoothing. Requires period+1 bars so every true range has a previous close.
func ATR(bars []types.PriceBar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("ATR period must be positive")
	}
	if len(bars) < period+1 {
		return 0, ErrInsufficientData
	}

	// Seed with the simple average of the first period true ranges.
	start := len(bars) - period - 1
	atr := 0.0
	for i := start + 1; i <= start+period; i++ {
		atr += trueRange(bars[i], bars[i-1].Close)
	}
	atr /= float64(period)

	// Wilder smoothing over the remainder of the window.
	for i := start + period + 1; i < len(bars); i++ {
		tr := trueRange(bars[i], bars[i-1].Close)
		atr = (atr*float64(period-1) + tr) / float64(period)
	}
	return atr, nil
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(bar types.PriceBar, prevClose float64) float64 {
	hl := bar.High - bar.Low
	hc := math.Abs(bar.High - prevClose)
	lc := math.Abs(bar.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
