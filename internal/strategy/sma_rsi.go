package strategy

import (
	"github.com/tradeforge/daytrader/internal/indicators"
	"github.com/tradeforge/daytrader/pkg/types"
)

const maxBufferSize = 500

// SMACrossStrategy signals on a fast/slow moving-average crossover with an
// RSI filter to avoid chasing exhausted moves.
type SMACrossStrategy struct {
	fastPeriod int
	slowPeriod int
	rsiPeriod  int
	overbought float64
	oversold   float64

	buffers map[string][]float64
}

// NewSMACrossStrategy creates the default crossover strategy.
func NewSMACrossStrategy(fastPeriod, slowPeriod, rsiPeriod int) *SMACrossStrategy {
	return &SMACrossStrategy{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		rsiPeriod:  rsiPeriod,
		overbought: 70,
		oversold:   30,
		buffers:    make(map[string][]float64),
	}
}

func (s *SMACrossStrategy) GetName() string { return "sma_cross_rsi" }

// UpdateBuffer appends bar closes to the symbol's buffer, trimming it to the
// retention cap.
func (s *SMACrossStrategy) UpdateBuffer(symbol string, bars []types.PriceBar) {
	buf := s.buffers[symbol]
	for _, bar := range bars {
		buf = append(buf, bar.Close)
	}
	if len(buf) > maxBufferSize {
		buf = buf[len(buf)-maxBufferSize:]
	}
	s.buffers[symbol] = buf
}

// Signal evaluates the crossover. A short history yields HOLD rather than an
// error; the symbol simply is not ready yet.
func (s *SMACrossStrategy) Signal(symbol string) Signal {
	prices := s.buffers[symbol]
	need := s.slowPeriod + 1
	if s.rsiPeriod+1 > need {
		need = s.rsiPeriod + 1
	}
	if len(prices) < need {
		return SignalHold
	}

	fast, err := indicators.SMA(prices, s.fastPeriod)
	if err != nil {
		return SignalHold
	}
	slow, err := indicators.SMA(prices, s.slowPeriod)
	if err != nil {
		return SignalHold
	}
	rsi, err := indicators.RSI(prices, s.rsiPeriod)
	if err != nil {
		return SignalHold
	}

	// Previous-bar SMAs determine whether this bar is the crossover.
	prev := prices[:len(prices)-1]
	prevFast, err := indicators.SMA(prev, s.fastPeriod)
	if err != nil {
		return SignalHold
	}
	prevSlow, err := indicators.SMA(prev, s.slowPeriod)
	if err != nil {
		return SignalHold
	}

	crossedUp := prevFast <= prevSlow && fast > slow
	crossedDown := prevFast >= prevSlow && fast < slow

	if crossedUp && rsi < s.overbought {
		return SignalBuy
	}
	if crossedDown && rsi > s.oversold {
		return SignalSell
	}
	return SignalHold
}
