package indicators

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/daytrader/pkg/types"
)

func constantRangeBars(n int, high, low, close float64) []types.PriceBar {
	bars := make([]types.PriceBar, n)
	for i := range bars {
		bars[i] = types.PriceBar{
			Timestamp: time.Now().Add(time.Duration(i) * 15 * time.Minute),
			Open:      close,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    1000,
		}
	}
	return bars
}

func TestATR_ConstantRange(t *testing.T) {
	// Every bar spans 95..105 and closes at 100, so each true range is 10
	// and both the seed average and the Wilder smoothing hold at 10.
	bars := constantRangeBars(20, 105, 95, 100)

	atr, err := ATR(bars, 14)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, atr, 1e-9)
}

func TestATR_GapDominatesRange(t *testing.T) {
	// A gap from the previous close can exceed the bar's own high-low span;
	// true range must use the larger of the two.
	bars := []types.PriceBar{
		{High: 101, Low: 99, Close: 100},
		{High: 101, Low: 99, Close: 100},
		{High: 111, Low: 109, Close: 110}, // gapped up 10 from prior close
		{High: 111, Low: 109, Close: 110},
	}

	atr, err := ATR(bars, 3)
	require.NoError(t, err)
	// True ranges: 2 (99..101 vs close 100), 11 (high 111 vs close 100), 2.
	assert.InDelta(t, (2.0+11.0+2.0)/3.0, atr, 1e-9)
}

func TestATR_InsufficientData(t *testing.T) {
	// period+1 bars are needed so every true range has a previous close.
	bars := constantRangeBars(14, 105, 95, 100)

	_, err := ATR(bars, 14)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestATR_InvalidPeriod(t *testing.T) {
	bars := constantRangeBars(5, 105, 95, 100)

	_, err := ATR(bars, 0)
	assert.Error(t, err)
}

func TestATR_WilderSmoothing(t *testing.T) {
	// Seed over the first 2 true ranges, then one smoothing step:
	// seed = (2+2)/2 = 2, next TR = 6, atr = (2*1 + 6)/2 = 4.
	bars := []types.PriceBar{
		{High: 101, Low: 99, Close: 100},
		{High: 101, Low: 99, Close: 100},
		{High: 101, Low: 99, Close: 100},
		{High: 103, Low: 97, Close: 100},
	}

	atr, err := ATR(bars, 2)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, atr, 1e-9)
}
