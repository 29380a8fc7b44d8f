// Package strategy turns buffered market data into directional signals. The
// session loop feeds bars into the buffer each cycle and asks for a signal;
// everything else about the trade is the risk calculator's business.
package strategy

import "github.com/tradeforge/daytrader/pkg/types"

// Signal is a directional trading signal.
type Signal int

const (
	SignalHold Signal = iota
	SignalBuy
	SignalSell
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Actionable reports whether the signal should trigger an order evaluation.
func (s Signal) Actionable() bool {
	return s == SignalBuy || s == SignalSell
}

// Strategy is the signal capability consumed by the session loop.
type Strategy interface {
	// UpdateBuffer appends bars to the per-symbol history buffer.
	UpdateBuffer(symbol string, bars []types.PriceBar)

	// Signal returns the current directional signal for a symbol.
	Signal(symbol string) Signal

	GetName() string
}
