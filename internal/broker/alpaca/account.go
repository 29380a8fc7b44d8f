package alpaca

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tradeforge/daytrader/internal/broker"
)

type accountResponse struct {
	Equity          string `json:"equity"`
	Cash            string `json:"cash"`
	BuyingPower     string `json:"buying_power"`
	LastEquity      string `json:"last_equity"`
	RegTBuyingPower string `json:"regt_buying_power"`
}

func (c *Client) GetAccount(ctx context.Context) (broker.AccountSnapshot, error) {
	var resp accountResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v2/account", nil, &resp); err != nil {
		return broker.AccountSnapshot{}, err
	}

	equity := parseFloat(resp.Equity)
	lastEquity := parseFloat(resp.LastEquity)

	return broker.AccountSnapshot{
		Equity:           equity,
		Cash:             parseFloat(resp.Cash),
		BuyingPower:      parseFloat(resp.BuyingPower),
		MarginAvailable:  parseFloat(resp.RegTBuyingPower),
		RealizedPnLToday: equity - lastEquity,
	}, nil
}

type positionResponse struct {
	Symbol           string `json:"symbol"`
	Qty              string `json:"qty"`
	AvgEntryPrice    string `json:"avg_entry_price"`
	MarketValue      string `json:"market_value"`
	UnrealizedPL     string `json:"unrealized_pl"`
	UnrealizedPLPerc string `json:"unrealized_plpc"`
}

func (c *Client) GetPositions(ctx context.Context) ([]broker.Position, error) {
	var resp []positionResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v2/positions", nil, &resp); err != nil {
		return nil, err
	}

	positions := make([]broker.Position, 0, len(resp))
	for _, p := range resp {
		positions = append(positions, broker.Position{
			Symbol:           p.Symbol,
			Quantity:         parseInt(p.Qty),
			AvgEntryPrice:    parseFloat(p.AvgEntryPrice),
			MarketValue:      parseFloat(p.MarketValue),
			UnrealizedPnL:    parseFloat(p.UnrealizedPL),
			UnrealizedPnLPct: parseFloat(p.UnrealizedPLPerc) * 100,
		})
	}
	return positions, nil
}

type clockResponse struct {
	Timestamp time.Time `json:"timestamp"`
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

func (c *Client) GetClock(ctx context.Context) (broker.Clock, error) {
	var resp clockResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v2/clock", nil, &resp); err != nil {
		return broker.Clock{}, err
	}
	return broker.Clock{
		Timestamp: resp.Timestamp,
		IsOpen:    resp.IsOpen,
		NextOpen:  resp.NextOpen,
		NextClose: resp.NextClose,
	}, nil
}

func (c *Client) CloseAllPositions(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodDelete, "/v2/positions", nil, nil)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Fractional position sizes are truncated toward zero.
		return int64(parseFloat(s))
	}
	return v
}
