// Package paper provides an in-memory simulated broker for paper trading and
// tests. Market orders fill instantly at the last set price; protective
// orders rest open until canceled.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradeforge/daytrader/internal/broker"
)

// Broker simulates a brokerage account. All state is process-local.
type Broker struct {
	mu        sync.Mutex
	cash      float64
	positions map[string]*broker.Position
	orders    map[string]*broker.Order
	prices    map[string]float64
	clock     broker.Clock
	now       func() time.Time
}

// New creates a paper broker funded with the given cash balance.
func New(initialCash float64) *Broker {
	return &Broker{
		cash:      initialCash,
		positions: make(map[string]*broker.Position),
		orders:    make(map[string]*broker.Order),
		prices:    make(map[string]float64),
		now:       time.Now,
	}
}

func (b *Broker) Name() string { return "paper" }

// SetPrice sets the simulated last price for a symbol. Position marks are
// refreshed against it.
func (b *Broker) SetPrice(symbol string, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[symbol] = price
	if pos, ok := b.positions[symbol]; ok {
		b.markPosition(pos, price)
	}
}

// SetClock sets the simulated market clock returned by GetClock.
func (b *Broker) SetClock(clock broker.Clock) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = clock
}

func (b *Broker) markPosition(pos *broker.Position, price float64) {
	pos.MarketValue = price * float64(pos.Quantity)
	costBasis := pos.AvgEntryPrice * float64(pos.Quantity)
	pos.UnrealizedPnL = pos.MarketValue - costBasis
	if costBasis != 0 {
		pos.UnrealizedPnLPct = pos.UnrealizedPnL / costBasis * 100
	}
}

func (b *Broker) GetAccount(ctx context.Context) (broker.AccountSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	equity := b.cash
	for _, pos := range b.positions {
		equity += pos.MarketValue
	}
	return broker.AccountSnapshot{
		Equity:          equity,
		Cash:            b.cash,
		BuyingPower:     equity * 2, // standard margin account
		MarginAvailable: equity,
	}, nil
}

func (b *Broker) GetPositions(ctx context.Context) ([]broker.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]broker.Position, 0, len(b.positions))
	for _, pos := range b.positions {
		out = append(out, *pos)
	}
	return out, nil
}

func (b *Broker) GetClock(ctx context.Context) (broker.Clock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clock := b.clock
	if clock.Timestamp.IsZero() {
		clock.Timestamp = b.now()
	}
	return clock, nil
}

// SubmitOrder fills market orders immediately at the last set price. A symbol
// with no price is rejected the way a live broker rejects an unknown symbol.
func (b *Broker) SubmitOrder(ctx context.Context, req broker.OrderRequest) (*broker.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if req.Qty <= 0 {
		return nil, fmt.Errorf("invalid quantity %d for %s", req.Qty, req.Symbol)
	}

	price, ok := b.prices[req.Symbol]
	if !ok {
		return nil, fmt.Errorf("no market price for %s", req.Symbol)
	}

	order := &broker.Order{
		ID:             uuid.NewString(),
		ClientOrderID:  req.ClientOrderID,
		Symbol:         req.Symbol,
		Side:           req.Side,
		Type:           broker.OrderTypeMarket,
		Class:          req.Class,
		Qty:            req.Qty,
		FilledQty:      req.Qty,
		FilledAvgPrice: price,
		Status:         broker.OrderStatusFilled,
		CreatedAt:      b.now(),
		FilledAt:       b.now(),
	}
	b.orders[order.ID] = order
	b.applyFill(req.Symbol, req.Side, req.Qty, price)

	return copyOrder(order), nil
}

func (b *Broker) applyFill(symbol string, side broker.Side, qty int64, price float64) {
	signed := qty
	if side == broker.SideSell {
		signed = -qty
	}
	b.cash -= price * float64(signed)

	pos, ok := b.positions[symbol]
	if !ok {
		pos = &broker.Position{Symbol: symbol, AvgEntryPrice: price}
		b.positions[symbol] = pos
	}
	pos.Quantity += signed
	if pos.Quantity == 0 {
		delete(b.positions, symbol)
		return
	}
	b.markPosition(pos, price)
}

func (b *Broker) SubmitTrailingStop(ctx context.Context, req broker.TrailingStopRequest) (*broker.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if req.Qty <= 0 {
		return nil, fmt.Errorf("invalid quantity %d for %s", req.Qty, req.Symbol)
	}
	if req.TrailAmount <= 0 {
		return nil, fmt.Errorf("invalid trail amount %.4f for %s", req.TrailAmount, req.Symbol)
	}

	order := &broker.Order{
		ID:            uuid.NewString(),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          broker.OrderTypeTrailingStop,
		Class:         broker.OrderClassSimple,
		Qty:           req.Qty,
		Status:        broker.OrderStatusAccepted,
		TrailAmount:   req.TrailAmount,
		CreatedAt:     b.now(),
	}
	b.orders[order.ID] = order
	return copyOrder(order), nil
}

func (b *Broker) GetOrder(ctx context.Context, orderID string) (*broker.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	return copyOrder(order), nil
}

func (b *Broker) CancelOrder(ctx context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s not found", orderID)
	}
	if !order.Status.Terminal() {
		order.Status = broker.OrderStatusCanceled
	}
	return nil
}

func (b *Broker) CancelAllOrders(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, order := range b.orders {
		if !order.Status.Terminal() {
			order.Status = broker.OrderStatusCanceled
		}
	}
	return nil
}

// CloseAllPositions liquidates every open position at the last set price.
func (b *Broker) CloseAllPositions(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for symbol, pos := range b.positions {
		price, ok := b.prices[symbol]
		if !ok {
			price = pos.AvgEntryPrice
		}
		b.cash += price * float64(pos.Quantity)
		delete(b.positions, symbol)
	}
	return nil
}

// OpenOrders returns the orders still resting on the simulated book.
func (b *Broker) OpenOrders() []broker.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]broker.Order, 0, len(b.orders))
	for _, order := range b.orders {
		if !order.Status.Terminal() {
			out = append(out, *order)
		}
	}
	return out
}

func copyOrder(o *broker.Order) *broker.Order {
	dup := *o
	return &dup
}
