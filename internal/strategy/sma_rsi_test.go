package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tradeforge/daytrader/pkg/types"
)

func barsFromCloses(closes []float64) []types.PriceBar {
	bars := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = types.PriceBar{
			Timestamp: time.Now().Add(time.Duration(i) * 15 * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func TestSignal_HoldOnShortHistory(t *testing.T) {
	s := NewSMACrossStrategy(2, 3, 3)
	s.UpdateBuffer("SPY", barsFromCloses([]float64{10, 9, 8}))

	assert.Equal(t, SignalHold, s.Signal("SPY"))
}

func TestSignal_HoldOnUnknownSymbol(t *testing.T) {
	s := NewSMACrossStrategy(2, 3, 3)
	assert.Equal(t, SignalHold, s.Signal("QQQ"))
}

func TestSignal_BuyOnCrossUp(t *testing.T) {
	// Declines push the fast average under the slow one, then a bounce on
	// the last bar lifts it back over with RSI still below overbought.
	s := NewSMACrossStrategy(2, 3, 3)
	s.UpdateBuffer("SPY", barsFromCloses([]float64{10, 9, 8, 7, 10}))

	assert.Equal(t, SignalBuy, s.Signal("SPY"))
}

func TestSignal_SellOnCrossDown(t *testing.T) {
	s := NewSMACrossStrategy(2, 3, 3)
	s.UpdateBuffer("SPY", barsFromCloses([]float64{10, 11, 12, 13, 10}))

	assert.Equal(t, SignalSell, s.Signal("SPY"))
}

func TestSignal_RSIFilterBlocksOverboughtBuy(t *testing.T) {
	// Same crossover shape, but the final surge drives RSI past 70:
	// changes -1, -1, +5 over the RSI window put RSI near 71.
	s := NewSMACrossStrategy(2, 3, 3)
	s.UpdateBuffer("SPY", barsFromCloses([]float64{10, 9, 8, 7, 12}))

	assert.Equal(t, SignalHold, s.Signal("SPY"))
}

func TestSignal_NoRepeatWithoutNewCross(t *testing.T) {
	// After the crossover bar, a continuation bar keeps fast above slow on
	// both the current and previous windows, so no fresh signal fires.
	s := NewSMACrossStrategy(2, 3, 3)
	s.UpdateBuffer("SPY", barsFromCloses([]float64{10, 9, 8, 7, 10}))
	assert.Equal(t, SignalBuy, s.Signal("SPY"))

	s.UpdateBuffer("SPY", barsFromCloses([]float64{11}))
	assert.Equal(t, SignalHold, s.Signal("SPY"))
}

func TestUpdateBuffer_TrimsToCap(t *testing.T) {
	s := NewSMACrossStrategy(2, 3, 3)

	closes := make([]float64, maxBufferSize+100)
	for i := range closes {
		closes[i] = 100 + float64(i%5)
	}
	s.UpdateBuffer("SPY", barsFromCloses(closes))

	assert.Len(t, s.buffers["SPY"], maxBufferSize)
}

func TestUpdateBuffer_SymbolsIsolated(t *testing.T) {
	s := NewSMACrossStrategy(2, 3, 3)
	s.UpdateBuffer("SPY", barsFromCloses([]float64{10, 9, 8, 7, 10}))
	s.UpdateBuffer("QQQ", barsFromCloses([]float64{10, 11, 12, 13, 10}))

	assert.Equal(t, SignalBuy, s.Signal("SPY"))
	assert.Equal(t, SignalSell, s.Signal("QQQ"))
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, "BUY", SignalBuy.String())
	assert.Equal(t, "SELL", SignalSell.String())
	assert.Equal(t, "HOLD", SignalHold.String())
	assert.True(t, SignalBuy.Actionable())
	assert.True(t, SignalSell.Actionable())
	assert.False(t, SignalHold.Actionable())
}
