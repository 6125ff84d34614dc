package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/httputil"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// QuotesClient pulls daily bars from the quotes API.
type QuotesClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewQuotesClient creates a client against the configured quotes API.
func NewQuotesClient(cfg config.QuotesConfig, httpClient *httputil.Client, log *logger.Logger) *QuotesClient {
	return &QuotesClient{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// candlesResponse mirrors the quotes API's parallel-array JSON. Index i of
// every array describes the same bar.
type candlesResponse struct {
	Status string    `json:"s"`
	Time   []int64   `json:"t"`
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Volume []int64   `json:"v"`
}

// endpoint builds the daily candles URL for a ticker and window.
func (c *QuotesClient) endpoint(ticker string, from, to time.Time) string {
	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	if c.apiKey != "" {
		q.Set("token", c.apiKey)
	}
	return fmt.Sprintf("%s/v1/stocks/candles/D/%s?%s", c.baseURL, ticker, q.Encode())
}

// FetchDaily returns daily bars for [from, to] in ascending day order. A
// ticker with no bars in the window is an empty result, not an error.
func (c *QuotesClient) FetchDaily(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.DailyPrice, error) {
	resp, err := c.httpClient.Get(ctx, c.endpoint(ticker, from, to))
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var candles candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&candles); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}

	if candles.Status == "no_data" {
		return nil, nil
	}
	if candles.Status != "ok" {
		return nil, fmt.Errorf("quotes API status %q", candles.Status)
	}

	n := len(candles.Time)
	if len(candles.Open) != n || len(candles.High) != n || len(candles.Low) != n ||
		len(candles.Close) != n || len(candles.Volume) != n {
		return nil, fmt.Errorf("candle arrays disagree on length")
	}

	prices := make([]*contracts.DailyPrice, 0, n)
	for i := 0; i < n; i++ {
		prices = append(prices, &contracts.DailyPrice{
			Ticker: ticker,
			Day:    time.Unix(candles.Time[i], 0).UTC().Truncate(24 * time.Hour),
			Open:   candles.Open[i],
			High:   candles.High[i],
			Low:    candles.Low[i],
			Close:  candles.Close[i],
			Volume: candles.Volume[i],
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   len(prices),
	}).Debug("Fetched daily bars")

	return prices, nil
}
