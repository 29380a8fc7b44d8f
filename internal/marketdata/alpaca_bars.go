package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tradeforge/daytrader/pkg/types"
)

const (
	dataBaseURL    = "https://data.alpaca.markets"
	defaultTimeout = 15 * time.Second
	pageLimit      = 10000
)

// AlpacaBars fetches historical bars from the Alpaca market data API.
type AlpacaBars struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	apiSecret  string
	feed       string
}

// NewAlpacaBars constructs a bar provider. The free IEX feed is the default.
func NewAlpacaBars(apiKey, apiSecret string) (*AlpacaBars, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing API credentials")
	}
	return &AlpacaBars{
		baseURL:    dataBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		feed:       "iex",
	}, nil
}

// SetBaseURL overrides the data endpoint, used by tests.
func (p *AlpacaBars) SetBaseURL(raw string) { p.baseURL = raw }

type barResponse struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type barsResponse struct {
	Bars          []barResponse `json:"bars"`
	Symbol        string        `json:"symbol"`
	NextPageToken *string       `json:"next_page_token"`
}

// GetBars returns chronological bars for the lookback window. Symbols with no
// data return an empty slice, not an error.
func (p *AlpacaBars) GetBars(ctx context.Context, symbol string, timeframe types.Timeframe, lookbackDays int) ([]types.PriceBar, error) {
	start := time.Now().AddDate(0, 0, -lookbackDays)

	query := url.Values{}
	query.Set("timeframe", string(timeframe))
	query.Set("start", start.Format(time.RFC3339))
	query.Set("limit", strconv.Itoa(pageLimit))
	query.Set("feed", p.feed)
	query.Set("adjustment", "raw")

	endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", p.baseURL, url.PathEscape(symbol), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", p.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", p.apiSecret)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bars response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bars request for %s returned status %d", symbol, resp.StatusCode)
	}

	var parsed barsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode bars response: %w", err)
	}

	bars := make([]types.PriceBar, 0, len(parsed.Bars))
	for _, b := range parsed.Bars {
		bars = append(bars, types.PriceBar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return bars, nil
}
