package broker

import "time"

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Invert returns the opposite side. A protective exit for a long entry is a
// sell, and vice versa.
func (s Side) Invert() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderStatus is the broker-reported order state.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusAccepted        OrderStatus = "accepted"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCanceled        OrderStatus = "canceled"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusExpired         OrderStatus = "expired"
)

// Terminal reports whether the order can no longer change state.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

// Failed reports a terminal state without a fill.
func (s OrderStatus) Failed() bool {
	switch s {
	case OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

// OrderClass distinguishes plain orders from bracket orders with attached
// protective legs.
type OrderClass string

const (
	OrderClassSimple  OrderClass = "simple"
	OrderClassBracket OrderClass = "bracket"
)

// OrderType is the execution type of an order.
type OrderType string

const (
	OrderTypeMarket       OrderType = "market"
	OrderTypeTrailingStop OrderType = "trailing_stop"
)

// AccountSnapshot is a read-only view of the account, refreshed from the
// broker before each risk computation and immediately superseded by the next
// fetch.
type AccountSnapshot struct {
	Equity           float64
	Cash             float64
	BuyingPower      float64
	MarginAvailable  float64
	RealizedPnLToday float64
}

// Position is an open position snapshot. Quantity is signed: positive long,
// negative short.
type Position struct {
	Symbol           string
	Quantity         int64
	AvgEntryPrice    float64
	MarketValue      float64
	UnrealizedPnL    float64
	UnrealizedPnLPct float64
}

// Notional returns the absolute market value of the position.
func (p Position) Notional() float64 {
	if p.MarketValue < 0 {
		return -p.MarketValue
	}
	return p.MarketValue
}

// Clock is the broker's view of the market calendar.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// Order is a broker-owned order. The engine observes status by polling and
// never mutates it.
type Order struct {
	ID             string
	ClientOrderID  string
	Symbol         string
	Side           Side
	Type           OrderType
	Class          OrderClass
	Qty            int64
	FilledQty      int64
	FilledAvgPrice float64
	Status         OrderStatus
	TrailAmount    float64
	CreatedAt      time.Time
	FilledAt       time.Time
	Legs           []Order
}

// OrderRequest is a market entry order, optionally bracketed with protective
// stop-loss and take-profit legs.
type OrderRequest struct {
	Symbol        string
	Qty           int64
	Side          Side
	Class         OrderClass
	ClientOrderID string

	// Bracket legs; nil means the leg is omitted.
	TakeProfitLimit *float64
	StopLossStop    *float64
	StopLossLimit   *float64
}

// TrailingStopRequest is an exit order whose trigger trails the favorable
// price movement by a fixed currency offset.
type TrailingStopRequest struct {
	Symbol        string
	Qty           int64
	Side          Side
	TrailAmount   float64
	ClientOrderID string
}
