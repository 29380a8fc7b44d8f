package broker

import "context"

// Broker is the brokerage capability consumed by the trading engine. The
// broker owns all order and position state; the engine only reads snapshots
// that may be stale by the time it acts on them.
type Broker interface {
	Name() string

	// Account and portfolio state
	GetAccount(ctx context.Context) (AccountSnapshot, error)
	GetPositions(ctx context.Context) ([]Position, error)
	GetClock(ctx context.Context) (Clock, error)

	// Trading operations
	SubmitOrder(ctx context.Context, req OrderRequest) (*Order, error)
	SubmitTrailingStop(ctx context.Context, req TrailingStopRequest) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	CancelAllOrders(ctx context.Context) error
	CloseAllPositions(ctx context.Context) error
}
