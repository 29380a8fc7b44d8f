package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeforge/daytrader/internal/broker"
)

type orderPayload struct {
	Symbol        string         `json:"symbol"`
	Qty           string         `json:"qty"`
	Side          string         `json:"side"`
	Type          string         `json:"type"`
	TimeInForce   string         `json:"time_in_force"`
	OrderClass    string         `json:"order_class,omitempty"`
	ClientOrderID string         `json:"client_order_id,omitempty"`
	TakeProfit    *takeProfitLeg `json:"take_profit,omitempty"`
	StopLoss      *stopLossLeg   `json:"stop_loss,omitempty"`
	TrailPrice    string         `json:"trail_price,omitempty"`
}

type takeProfitLeg struct {
	LimitPrice string `json:"limit_price"`
}

type stopLossLeg struct {
	StopPrice  string `json:"stop_price"`
	LimitPrice string `json:"limit_price,omitempty"`
}

type orderResponse struct {
	ID             string          `json:"id"`
	ClientOrderID  string          `json:"client_order_id"`
	Symbol         string          `json:"symbol"`
	Side           string          `json:"side"`
	Type           string          `json:"type"`
	OrderClass     string          `json:"order_class"`
	Qty            string          `json:"qty"`
	FilledQty      string          `json:"filled_qty"`
	FilledAvgPrice string          `json:"filled_avg_price"`
	Status         string          `json:"status"`
	TrailPrice     string          `json:"trail_price"`
	CreatedAt      time.Time       `json:"created_at"`
	FilledAt       *time.Time      `json:"filled_at"`
	Legs           []orderResponse `json:"legs"`
}

// cents quantizes a price to two decimal places, the API's tick size for
// equities above $1.
func cents(price float64) string {
	return decimal.NewFromFloat(price).Round(2).String()
}

func (c *Client) SubmitOrder(ctx context.Context, req broker.OrderRequest) (*broker.Order, error) {
	payload := orderPayload{
		Symbol:        req.Symbol,
		Qty:           fmt.Sprintf("%d", req.Qty),
		Side:          string(req.Side),
		Type:          "market",
		TimeInForce:   "gtc",
		ClientOrderID: req.ClientOrderID,
	}
	if payload.ClientOrderID == "" {
		payload.ClientOrderID = uuid.NewString()
	}

	if req.Class == broker.OrderClassBracket {
		payload.OrderClass = "bracket"
	}
	if req.TakeProfitLimit != nil {
		payload.TakeProfit = &takeProfitLeg{LimitPrice: cents(*req.TakeProfitLimit)}
	}
	if req.StopLossStop != nil {
		leg := &stopLossLeg{StopPrice: cents(*req.StopLossStop)}
		if req.StopLossLimit != nil {
			leg.LimitPrice = cents(*req.StopLossLimit)
		}
		payload.StopLoss = leg
	}

	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v2/orders", payload, &resp); err != nil {
		return nil, err
	}
	return mapOrder(resp), nil
}

func (c *Client) SubmitTrailingStop(ctx context.Context, req broker.TrailingStopRequest) (*broker.Order, error) {
	payload := orderPayload{
		Symbol:        req.Symbol,
		Qty:           fmt.Sprintf("%d", req.Qty),
		Side:          string(req.Side),
		Type:          "trailing_stop",
		TimeInForce:   "gtc",
		TrailPrice:    cents(req.TrailAmount),
		ClientOrderID: req.ClientOrderID,
	}
	if payload.ClientOrderID == "" {
		payload.ClientOrderID = uuid.NewString()
	}

	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v2/orders", payload, &resp); err != nil {
		return nil, err
	}
	return mapOrder(resp), nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*broker.Order, error) {
	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v2/orders/"+orderID, nil, &resp); err != nil {
		return nil, err
	}
	return mapOrder(resp), nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.doRequest(ctx, http.MethodDelete, "/v2/orders/"+orderID, nil, nil)
}

func (c *Client) CancelAllOrders(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodDelete, "/v2/orders", nil, nil)
}

func mapOrder(resp orderResponse) *broker.Order {
	order := &broker.Order{
		ID:             resp.ID,
		ClientOrderID:  resp.ClientOrderID,
		Symbol:         resp.Symbol,
		Side:           broker.Side(resp.Side),
		Type:           broker.OrderType(resp.Type),
		Class:          broker.OrderClass(resp.OrderClass),
		Qty:            parseInt(resp.Qty),
		FilledQty:      parseInt(resp.FilledQty),
		FilledAvgPrice: parseFloat(resp.FilledAvgPrice),
		Status:         broker.OrderStatus(resp.Status),
		TrailAmount:    parseFloat(resp.TrailPrice),
		CreatedAt:      resp.CreatedAt,
	}
	if resp.OrderClass == "" {
		order.Class = broker.OrderClassSimple
	}
	if resp.FilledAt != nil {
		order.FilledAt = *resp.FilledAt
	}
	for _, leg := range resp.Legs {
		order.Legs = append(order.Legs, *mapOrder(leg))
	}
	return order
}
