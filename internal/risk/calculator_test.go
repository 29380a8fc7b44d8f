package risk

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/daytrader/internal/broker"
	"github.com/tradeforge/daytrader/internal/errors"
	"github.com/tradeforge/daytrader/pkg/types"
)

// barsWithTrueRange builds a window whose every true range equals tr, so the
// smoothed ATR is exactly tr and the stop distance is predictable.
func barsWithTrueRange(n int, close, tr float64) []types.PriceBar {
	bars := make([]types.PriceBar, n)
	for i := range bars {
		bars[i] = types.PriceBar{
			Timestamp: time.Now().Add(time.Duration(i) * 15 * time.Minute),
			Open:      close,
			High:      close + tr/2,
			Low:       close - tr/2,
			Close:     close,
			Volume:    1000,
		}
	}
	return bars
}

func looseConfig() Config {
	// Count and notional caps wide open so individual tests can tighten
	// exactly one limit at a time.
	return Config{
		RiskPerTrade:        0.01,
		ATRPeriod:           14,
		ATRMultiplier:       1,
		RiskRewardRatio:     2,
		MaxPositionFraction: 1.0,
		MaxOpenPositions:    8,
		MaxNotionalRatio:    1.0,
	}
}

func TestCalculate_RiskBasedQuantity(t *testing.T) {
	// equity 100000, risk fraction 0.01, stop distance 2.0:
	// floor(1000 / 2.0) = 500 shares.
	calc, err := NewCalculator(looseConfig())
	require.NoError(t, err)

	bars := barsWithTrueRange(20, 100, 2.0)
	account := broker.AccountSnapshot{Equity: 100000}

	params, err := calc.Calculate(bars, 100, account, nil, broker.SideBuy)
	require.NoError(t, err)

	assert.Equal(t, int64(500), params.Quantity)
	assert.InDelta(t, 98.0, params.StopLossPrice, 1e-9)
	assert.InDelta(t, 104.0, params.TakeProfitPrice, 1e-9)
	assert.InDelta(t, 2.0, params.TrailAmount, 1e-9)
}

func TestCalculate_SellSideLevelsInverted(t *testing.T) {
	calc, err := NewCalculator(looseConfig())
	require.NoError(t, err)

	bars := barsWithTrueRange(20, 100, 2.0)
	account := broker.AccountSnapshot{Equity: 100000}

	params, err := calc.Calculate(bars, 100, account, nil, broker.SideSell)
	require.NoError(t, err)

	assert.InDelta(t, 102.0, params.StopLossPrice, 1e-9)
	assert.InDelta(t, 96.0, params.TakeProfitPrice, 1e-9)
	assert.Equal(t, int64(500), params.Quantity)
}

func TestCalculate_PositionFractionCap(t *testing.T) {
	// Risk sizing alone would allow 500 shares; the per-position notional
	// cap of 1% of equity allows only floor(1000/100) = 10.
	cfg := looseConfig()
	cfg.MaxPositionFraction = 0.01
	calc, err := NewCalculator(cfg)
	require.NoError(t, err)

	bars := barsWithTrueRange(20, 100, 2.0)
	account := broker.AccountSnapshot{Equity: 100000}

	params, err := calc.Calculate(bars, 100, account, nil, broker.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, int64(10), params.Quantity)
}

func TestCalculate_NotionalHeadroomCap(t *testing.T) {
	// Portfolio already carries 49000 of exposure against a 50% cap on
	// 100000 equity, leaving 1000 of headroom: floor(1000/100) = 10.
	cfg := looseConfig()
	cfg.MaxNotionalRatio = 0.50
	calc, err := NewCalculator(cfg)
	require.NoError(t, err)

	bars := barsWithTrueRange(20, 100, 2.0)
	account := broker.AccountSnapshot{Equity: 100000}
	open := []broker.Position{
		{Symbol: "AAPL", Quantity: 100, MarketValue: 24500},
		{Symbol: "MSFT", Quantity: -50, MarketValue: -24500},
	}

	params, err := calc.Calculate(bars, 100, account, open, broker.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, int64(10), params.Quantity)
}

func TestCalculate_NegativeHeadroomClampsToZero(t *testing.T) {
	cfg := looseConfig()
	cfg.MaxNotionalRatio = 0.50
	calc, err := NewCalculator(cfg)
	require.NoError(t, err)

	bars := barsWithTrueRange(20, 100, 2.0)
	account := broker.AccountSnapshot{Equity: 100000}
	open := []broker.Position{
		{Symbol: "NVDA", Quantity: 600, MarketValue: 60000},
	}

	params, err := calc.Calculate(bars, 100, account, open, broker.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, int64(0), params.Quantity)
}

func TestCalculate_PositionCountCapForcesZero(t *testing.T) {
	// The count cap is absolute: at the limit, quantity is zero no matter
	// how much equity or headroom remains.
	cfg := looseConfig()
	cfg.MaxOpenPositions = 2
	calc, err := NewCalculator(cfg)
	require.NoError(t, err)

	bars := barsWithTrueRange(20, 100, 2.0)
	account := broker.AccountSnapshot{Equity: 1000000}
	open := []broker.Position{
		{Symbol: "SPY", Quantity: 1, MarketValue: 100},
		{Symbol: "QQQ", Quantity: 1, MarketValue: 100},
	}

	params, err := calc.Calculate(bars, 100, account, open, broker.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, int64(0), params.Quantity)
	// Protection levels are still computed for visibility in logs.
	assert.InDelta(t, 98.0, params.StopLossPrice, 1e-9)
}

func TestCalculate_ZeroEquity(t *testing.T) {
	calc, err := NewCalculator(looseConfig())
	require.NoError(t, err)

	bars := barsWithTrueRange(20, 100, 2.0)

	params, err := calc.Calculate(bars, 100, broker.AccountSnapshot{Equity: 0}, nil, broker.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, int64(0), params.Quantity)
}

func TestCalculate_FlatWindowSkips(t *testing.T) {
	// A dead-flat bar window produces ATR 0; risk cannot be bounded
	// against a zero stop distance so the trade is skipped.
	calc, err := NewCalculator(looseConfig())
	require.NoError(t, err)

	bars := barsWithTrueRange(20, 100, 0)
	account := broker.AccountSnapshot{Equity: 100000}

	params, err := calc.Calculate(bars, 100, account, nil, broker.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, int64(0), params.Quantity)
}

func TestCalculate_InsufficientData(t *testing.T) {
	calc, err := NewCalculator(looseConfig())
	require.NoError(t, err)

	bars := barsWithTrueRange(10, 100, 2.0) // ATR period 14 needs 15

	_, err = calc.Calculate(bars, 100, broker.AccountSnapshot{Equity: 100000}, nil, broker.SideBuy)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInsufficientData))
}

func TestCalculate_Deterministic(t *testing.T) {
	// Identical inputs must produce identical outputs; the calculator
	// carries no state between calls.
	calc, err := NewCalculator(DefaultConfig())
	require.NoError(t, err)

	bars := barsWithTrueRange(30, 250, 3.5)
	account := broker.AccountSnapshot{Equity: 84211.50}
	open := []broker.Position{{Symbol: "AMZN", Quantity: 20, MarketValue: 4120}}

	first, err := calc.Calculate(bars, 251.42, account, open, broker.SideBuy)
	require.NoError(t, err)
	second, err := calc.Calculate(bars, 251.42, account, open, broker.SideBuy)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first.Quantity, int64(0))
}

func TestCalculate_InvalidEntryPrice(t *testing.T) {
	calc, err := NewCalculator(looseConfig())
	require.NoError(t, err)

	_, err = calc.Calculate(barsWithTrueRange(20, 100, 2.0), 0, broker.AccountSnapshot{Equity: 1000}, nil, broker.SideBuy)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero risk per trade", func(c *Config) { c.RiskPerTrade = 0 }},
		{"risk above one", func(c *Config) { c.RiskPerTrade = 1.5 }},
		{"zero atr period", func(c *Config) { c.ATRPeriod = 0 }},
		{"zero atr multiplier", func(c *Config) { c.ATRMultiplier = 0 }},
		{"zero risk reward", func(c *Config) { c.RiskRewardRatio = 0 }},
		{"zero position fraction", func(c *Config) { c.MaxPositionFraction = 0 }},
		{"zero open positions", func(c *Config) { c.MaxOpenPositions = 0 }},
		{"notional ratio above one", func(c *Config) { c.MaxNotionalRatio = 1.1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
