// Package risk computes bounded-risk trade parameters. The calculator is a
// pure function of market history, account state, and open positions; it has
// no side effects and no hidden state, so two identical calls always agree.
package risk

import (
	"fmt"
	"math"

	"github.com/tradeforge/daytrader/internal/broker"
	"github.com/tradeforge/daytrader/internal/errors"
	"github.com/tradeforge/daytrader/internal/indicators"
	"github.com/tradeforge/daytrader/pkg/types"
)

// Config holds the portfolio risk limits.
type Config struct {
	RiskPerTrade        float64 // fraction of equity risked per trade
	ATRPeriod           int     // volatility window in bars
	ATRMultiplier       float64 // stop distance in ATR units
	RiskRewardRatio     float64 // take-profit distance in stop distances
	MaxPositionFraction float64 // per-position notional cap vs equity
	MaxOpenPositions    int     // portfolio position count cap
	MaxNotionalRatio    float64 // portfolio notional cap vs equity
}

// DefaultConfig mirrors the production bot settings.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:        0.01,
		ATRPeriod:           14,
		ATRMultiplier:       1,
		RiskRewardRatio:     2,
		MaxPositionFraction: 0.01,
		MaxOpenPositions:    8,
		MaxNotionalRatio:    0.50,
	}
}

// Validate rejects configurations that would authorize unbounded risk.
func (c Config) Validate() error {
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return fmt.Errorf("risk_per_trade must be in (0, 1], got %v", c.RiskPerTrade)
	}
	if c.ATRPeriod <= 0 {
		return fmt.Errorf("atr_period must be positive, got %d", c.ATRPeriod)
	}
	if c.ATRMultiplier <= 0 {
		return fmt.Errorf("atr_multiplier must be positive, got %v", c.ATRMultiplier)
	}
	if c.RiskRewardRatio <= 0 {
		return fmt.Errorf("risk_reward_ratio must be positive, got %v", c.RiskRewardRatio)
	}
	if c.MaxPositionFraction <= 0 || c.MaxPositionFraction > 1 {
		return fmt.Errorf("max_position_fraction must be in (0, 1], got %v", c.MaxPositionFraction)
	}
	if c.MaxOpenPositions <= 0 {
		return fmt.Errorf("max_open_positions must be positive, got %d", c.MaxOpenPositions)
	}
	if c.MaxNotionalRatio <= 0 || c.MaxNotionalRatio > 1 {
		return fmt.Errorf("max_notional_ratio must be in (0, 1], got %v", c.MaxNotionalRatio)
	}
	return nil
}

// Parameters is the computed sizing for one candidate trade. Quantity zero
// means "do not trade"; it is a valid outcome, not an error.
type Parameters struct {
	EntryPrice      float64
	Quantity        int64
	StopLossPrice   float64
	TakeProfitPrice float64
	TrailAmount     float64
}

// Calculator sizes trades within the configured limits.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given limits.
func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg}, nil
}

// Calculate derives entry protection levels and a clamped position size.
// Returns errors.ErrInsufficientData when the bar window is shorter than the
// volatility period; the caller skips the symbol for the cycle.
func (c *Calculator) Calculate(
	bars []types.PriceBar,
	entryPrice float64,
	account broker.AccountSnapshot,
	openPositions []broker.Position,
	side broker.Side,
) (Parameters, error) {
	if entryPrice <= 0 {
		return Parameters{}, fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}

	atr, err := indicators.ATR(bars, c.cfg.ATRPeriod)
	if err != nil {
		return Parameters{}, fmt.Errorf("%w: have %d bars, need %d",
			errors.ErrInsufficientData, len(bars), c.cfg.ATRPeriod+1)
	}

	stopDistance := atr * c.cfg.ATRMultiplier
	targetDistance := stopDistance * c.cfg.RiskRewardRatio

	params := Parameters{
		EntryPrice:  entryPrice,
		TrailAmount: stopDistance,
	}
	if side == broker.SideBuy {
		params.StopLossPrice = entryPrice - stopDistance
		params.TakeProfitPrice = entryPrice + targetDistance
	} else {
		params.StopLossPrice = entryPrice + stopDistance
		params.TakeProfitPrice = entryPrice - targetDistance
	}

	// A dead-flat window yields a zero stop distance; there is no way to
	// bound risk against it, so the trade is skipped.
	if stopDistance <= 0 {
		return params, nil
	}

	// Hard cap: position count. Forces zero regardless of anything else.
	if len(openPositions) >= c.cfg.MaxOpenPositions {
		return params, nil
	}

	equity := account.Equity
	if equity <= 0 {
		return params, nil
	}

	rawQty := math.Floor(equity * c.cfg.RiskPerTrade / stopDistance)
	capQty := math.Floor(equity * c.cfg.MaxPositionFraction / entryPrice)

	currentNotional := 0.0
	for _, pos := range openPositions {
		currentNotional += pos.Notional()
	}
	headroom := equity*c.cfg.MaxNotionalRatio - currentNotional
	notionalQty := math.Floor(headroom / entryPrice)

	qty := math.Min(rawQty, math.Min(capQty, notionalQty))
	if qty < 0 {
		qty = 0
	}
	params.Quantity = int64(qty)
	return params, nil
}
