// Package trade sequences the order lifecycle: entry submission, fill
// confirmation, and protective trailing-stop placement. One Manager serves
// the whole session; each trade attempt walks the state machine
//
//	PENDING_ENTRY -> SUBMITTED -> FILLED | REJECTED | CANCELED | EXPIRED | TIMEOUT
//	FILLED -> (trailing stop sized by filled qty) -> PROTECTED | PROTECTION_FAILED
package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeforge/daytrader/internal/broker"
	"github.com/tradeforge/daytrader/internal/errors"
	"github.com/tradeforge/daytrader/internal/logger"
)

const (
	// Broker minimum-distance rule: a stop must sit at least 0.3% away
	// from its reference price.
	minStopDistancePct = 0.003

	// Stop-limit offset from the stop price.
	stopLimitOffsetPct = 0.001
)

// Config holds lifecycle timing parameters.
type Config struct {
	FillWaitTimeout time.Duration // total wait for a fill, default 10s
	PollInterval    time.Duration // status poll cadence, default 1s
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		FillWaitTimeout: 10 * time.Second,
		PollInterval:    time.Second,
	}
}

// Manager executes trade attempts against the broker. It never panics into
// its caller: failures come back as errors and abandoned attempts.
type Manager struct {
	broker broker.Broker
	clock  Clock
	log    *logger.Logger
	cfg    Config
}

// NewManager creates an order lifecycle controller.
func NewManager(b broker.Broker, clock Clock, log *logger.Logger, cfg Config) *Manager {
	if cfg.FillWaitTimeout <= 0 {
		cfg.FillWaitTimeout = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Manager{broker: b, clock: clock, log: log, cfg: cfg}
}

// roundCents quantizes a price to the exchange tick.
func roundCents(price float64) float64 {
	v, _ := decimal.NewFromFloat(price).Round(2).Float64()
	return v
}

// PlaceMarketOrder submits an entry order, bracketed when both protective
// prices are supplied. Fails closed on exhausted buying power: no order is
// submitted and errors.ErrInvalidAccountState is returned.
func (m *Manager) PlaceMarketOrder(
	ctx context.Context,
	symbol string,
	qty int64,
	side broker.Side,
	stopLossPrice, takeProfitPrice *float64,
) (*broker.Order, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	account, err := m.broker.GetAccount(ctx)
	if err != nil {
		return nil, errors.NewTransportError("trade", "validate", err)
	}
	if account.BuyingPower <= 0 {
		return nil, fmt.Errorf("%w: buying power %.2f for %s %s",
			errors.ErrInvalidAccountState, account.BuyingPower, side, symbol)
	}

	req := broker.OrderRequest{
		Symbol:        symbol,
		Qty:           qty,
		Side:          side,
		Class:         broker.OrderClassSimple,
		ClientOrderID: uuid.NewString(),
	}
	if stopLossPrice != nil && takeProfitPrice != nil {
		req.Class = broker.OrderClassBracket
	}
	if takeProfitPrice != nil {
		tp := roundCents(*takeProfitPrice)
		req.TakeProfitLimit = &tp
	}
	if stopLossPrice != nil {
		stop, limit := protectiveStopPrices(*stopLossPrice, side)
		req.StopLossStop = &stop
		req.StopLossLimit = &limit
	}

	order, err := m.broker.SubmitOrder(ctx, req)
	if err != nil {
		return nil, errors.NewOrderError("trade", "submit", err)
	}

	m.log.Trade("Market order placed: %s %d %s (class=%s, id=%s)",
		side, qty, symbol, req.Class, order.ID)
	return order, nil
}

// protectiveStopPrices applies the broker minimum-distance rule and derives
// the stop-limit price, both directionally adjusted by entry side.
func protectiveStopPrices(stopLoss float64, side broker.Side) (stop, limit float64) {
	minDistance := stopLoss * minStopDistancePct
	if side == broker.SideBuy {
		stop = roundCents(stopLoss - minDistance)
		limit = roundCents(stop - stop*stopLimitOffsetPct)
	} else {
		stop = roundCents(stopLoss + minDistance)
		limit = roundCents(stop + stop*stopLimitOffsetPct)
	}
	return stop, limit
}

// WaitForFill polls order status once per poll interval until the order
// reaches a terminal state or the wait budget is spent. Returns the filled
// quantity on fill. Terminal failures and transport errors end the wait
// immediately; a timeout returns errors.ErrOrderTimeout, distinct from
// rejection.
func (m *Manager) WaitForFill(ctx context.Context, orderID string) (int64, error) {
	attempts := int(m.cfg.FillWaitTimeout / m.cfg.PollInterval)
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		order, err := m.broker.GetOrder(ctx, orderID)
		if err != nil {
			return 0, errors.NewTransportError("trade", "poll", err)
		}

		switch {
		case order.Status == broker.OrderStatusFilled:
			m.log.Trade("Order %s filled with %d shares", orderID, order.FilledQty)
			return order.FilledQty, nil
		case order.Status.Failed():
			return 0, fmt.Errorf("%w: order %s status %s",
				errors.ErrOrderRejected, orderID, order.Status)
		}

		if err := m.clock.Sleep(ctx, m.cfg.PollInterval); err != nil {
			return 0, err
		}
	}

	m.log.Warning("Order %s not filled within %s", orderID, m.cfg.FillWaitTimeout)
	return 0, fmt.Errorf("%w: order %s after %s",
		errors.ErrOrderTimeout, orderID, m.cfg.FillWaitTimeout)
}

// PlaceTrailingStop attaches a protective trailing stop sized by the actual
// filled quantity of the entry. The side is inverted: it is an exit order.
// A zero or unknown filled quantity must never produce a stop order; that is
// surfaced as errors.ErrUnprotectedPosition instead.
func (m *Manager) PlaceTrailingStop(
	ctx context.Context,
	symbol string,
	filledQty int64,
	entrySide broker.Side,
	trailAmount float64,
) (*broker.Order, error) {
	if filledQty <= 0 {
		return nil, fmt.Errorf("%w: filled quantity %d for %s",
			errors.ErrUnprotectedPosition, filledQty, symbol)
	}
	if trailAmount <= 0 {
		return nil, fmt.Errorf("trail amount must be positive, got %.4f", trailAmount)
	}

	req := broker.TrailingStopRequest{
		Symbol:        symbol,
		Qty:           filledQty,
		Side:          entrySide.Invert(),
		TrailAmount:   roundCents(trailAmount),
		ClientOrderID: uuid.NewString(),
	}

	order, err := m.broker.SubmitTrailingStop(ctx, req)
	if err != nil {
		return nil, errors.NewProtectionError("trade", "trailing_stop", err)
	}

	m.log.Trade("Trailing stop placed: %s %d %s at $%.2f offset",
		req.Side, filledQty, symbol, req.TrailAmount)
	return order, nil
}
