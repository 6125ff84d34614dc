package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/redis"
)

type stubPrices struct {
	history      map[string][]*contracts.DailyPrice
	latest       map[string]*contracts.PricePoint
	historyErr   error
	historyCalls int
	upsertErr    error
	upserted     map[string]int
}

func newStubPrices() *stubPrices {
	return &stubPrices{
		history:  make(map[string][]*contracts.DailyPrice),
		latest:   make(map[string]*contracts.PricePoint),
		upserted: make(map[string]int),
	}
}

func (s *stubPrices) History(_ context.Context, ticker string, _, _ time.Time) ([]*contracts.DailyPrice, error) {
	s.historyCalls++
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history[ticker], nil
}

func (s *stubPrices) CloseOnOrBefore(_ context.Context, ticker string, _ time.Time) (*contracts.PricePoint, error) {
	return s.latest[ticker], nil
}

func (s *stubPrices) NthCloseAfter(context.Context, string, time.Time, int) (*contracts.PricePoint, error) {
	return nil, nil
}

func (s *stubPrices) UpsertBatch(_ context.Context, prices []*contracts.DailyPrice) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for _, p := range prices {
		s.upserted[p.Ticker]++
	}
	return nil
}

type stubCompanies struct {
	companies map[string]*contracts.Company
	active    []*contracts.Company
	err       error
}

func (s *stubCompanies) GetByTicker(_ context.Context, ticker string) (*contracts.Company, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.companies[ticker], nil
}

func (s *stubCompanies) FindByName(context.Context, string) (*contracts.Company, error) {
	return nil, nil
}

func (s *stubCompanies) ListActive(context.Context) ([]*contracts.Company, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.active, nil
}

func (s *stubCompanies) Upsert(context.Context, *contracts.Company) error { return nil }

func disabledCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

func newTestProvider(t *testing.T, prices *stubPrices, companies *stubCompanies) *Provider {
	t.Helper()
	cfg := &config.Config{Scoring: config.ScoringConfig{BenchmarkTicker: "SPY"}}
	return NewProvider(prices, companies, disabledCache(t), cfg, testLogger())
}

// alternatingBars builds n bars on consecutive days whose close moves up
// stepPct on odd days and down stepPct on even days, starting at 100. Two
// series built with the same n move on the same days, so their regression
// slope is exactly the ratio of their steps.
func alternatingBars(ticker string, n int, stepPct float64) []*contracts.DailyPrice {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]*contracts.DailyPrice, 0, n)
	price := 100.0
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%2 == 1 {
				price *= 1 + stepPct/100
			} else {
				price *= 1 - stepPct/100
			}
		}
		bars = append(bars, &contracts.DailyPrice{
			Ticker: ticker,
			Day:    start.AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1000,
		})
	}
	return bars
}

// wideningBars builds n flat-close bars whose intraday range grows every
// day, so the true range series is strictly increasing.
func wideningBars(ticker string, n int) []*contracts.DailyPrice {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]*contracts.DailyPrice, 0, n)
	for i := 0; i < n; i++ {
		spread := 0.1 * float64(i+1)
		bars = append(bars, &contracts.DailyPrice{
			Ticker: ticker,
			Day:    start.AddDate(0, 0, i),
			Open:   100,
			High:   100 + spread,
			Low:    100 - spread,
			Close:  100,
			Volume: 1000,
		})
	}
	return bars
}

func barsWithCloses(ticker string, closes ...float64) []*contracts.DailyPrice {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]*contracts.DailyPrice, 0, len(closes))
	for i, c := range closes {
		bars = append(bars, &contracts.DailyPrice{
			Ticker: ticker,
			Day:    start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		})
	}
	return bars
}

func TestRollingBetaDoublesBenchmark(t *testing.T) {
	stock := alternatingBars("ACME", 80, 2.0)
	bench := alternatingBars("SPY", 80, 1.0)

	beta, ok := rollingBeta(stock, bench)
	require.True(t, ok)
	assert.InDelta(t, 2.0, beta, 1e-9)
}

func TestRollingBetaThinHistory(t *testing.T) {
	stock := alternatingBars("ACME", 20, 2.0)
	bench := alternatingBars("SPY", 20, 1.0)

	_, ok := rollingBeta(stock, bench)
	assert.False(t, ok)
}

func TestRollingBetaFlatBenchmark(t *testing.T) {
	stock := alternatingBars("ACME", 80, 2.0)
	bench := alternatingBars("SPY", 80, 0)

	_, ok := rollingBeta(stock, bench)
	assert.False(t, ok)
}

func TestATRPercentileRisingVolatility(t *testing.T) {
	pct, ok := atrPercentile(wideningBars("ACME", 60))
	require.True(t, ok)
	assert.InDelta(t, 100.0, pct, 1e-9)
}

func TestATRPercentileThinHistory(t *testing.T) {
	_, ok := atrPercentile(wideningBars("ACME", 20))
	assert.False(t, ok)
}

func TestTrailingReturn(t *testing.T) {
	bars := barsWithCloses("SPY", 100, 102, 101, 103, 105, 104, 110)

	ret, ok := trailingReturn(bars, 1)
	require.True(t, ok)
	assert.InDelta(t, (110.0-104.0)/104.0*100, ret, 1e-9)

	ret, ok = trailingReturn(bars, 5)
	require.True(t, ok)
	assert.InDelta(t, (110.0-102.0)/102.0*100, ret, 1e-9)

	ret, ok = trailingReturn(bars, 6)
	require.True(t, ok)
	assert.InDelta(t, 10.0, ret, 1e-9)

	_, ok = trailingReturn(bars, 7)
	assert.False(t, ok)
}

func TestContextAssemblesSignals(t *testing.T) {
	prices := newStubPrices()
	prices.history["ACME"] = alternatingBars("ACME", 120, 2.0)
	prices.history["SPY"] = alternatingBars("SPY", 120, 1.0)
	companies := &stubCompanies{companies: map[string]*contracts.Company{
		"ACME": {Ticker: "ACME", Name: "Acme Corp", Sector: "Biotechnology", Active: true},
	}}

	p := newTestProvider(t, prices, companies)

	mctx, err := p.Context(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, mctx)

	assert.Equal(t, "ACME", mctx.Ticker)
	assert.Equal(t, "Biotechnology", mctx.Sector)

	require.NotNil(t, mctx.Beta)
	assert.InDelta(t, 2.0, *mctx.Beta, 1e-9)

	require.NotNil(t, mctx.ATRPercentile)
	assert.GreaterOrEqual(t, *mctx.ATRPercentile, 0.0)
	assert.LessOrEqual(t, *mctx.ATRPercentile, 100.0)

	assert.NotNil(t, mctx.Bench1D)
	assert.NotNil(t, mctx.Bench5D)
	assert.NotNil(t, mctx.Bench20D)

	assert.InDelta(t, 1.0, mctx.Completeness(), 1e-9)
	assert.WithinDuration(t, time.Now(), mctx.AsOf, time.Minute)
}

func TestContextPartialWhenHistoryThin(t *testing.T) {
	prices := newStubPrices()
	prices.history["ACME"] = alternatingBars("ACME", 5, 2.0)
	prices.history["SPY"] = alternatingBars("SPY", 120, 1.0)
	companies := &stubCompanies{companies: map[string]*contracts.Company{
		"ACME": {Ticker: "ACME", Sector: "Biotechnology", Active: true},
	}}

	p := newTestProvider(t, prices, companies)

	mctx, err := p.Context(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Nil(t, mctx.Beta)
	assert.Nil(t, mctx.ATRPercentile)
	assert.NotNil(t, mctx.Bench5D)
	assert.Equal(t, "Biotechnology", mctx.Sector)
	assert.InDelta(t, 1.0/3.0, mctx.Completeness(), 1e-9)
}

func TestContextSurvivesStoreFailures(t *testing.T) {
	prices := newStubPrices()
	prices.historyErr = errors.New("connection refused")
	companies := &stubCompanies{err: errors.New("connection refused")}

	p := newTestProvider(t, prices, companies)

	mctx, err := p.Context(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Equal(t, "ACME", mctx.Ticker)
	assert.Empty(t, mctx.Sector)
	assert.Nil(t, mctx.Beta)
	assert.Nil(t, mctx.ATRPercentile)
	assert.Nil(t, mctx.Bench5D)
	assert.Zero(t, mctx.Completeness())
}

func TestContextMemoizesPerTicker(t *testing.T) {
	prices := newStubPrices()
	prices.history["ACME"] = alternatingBars("ACME", 120, 2.0)
	prices.history["SPY"] = alternatingBars("SPY", 120, 1.0)

	p := newTestProvider(t, prices, &stubCompanies{})

	_, err := p.Context(context.Background(), "ACME")
	require.NoError(t, err)
	require.Equal(t, 2, prices.historyCalls)

	_, err = p.Context(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 2, prices.historyCalls)
}

func TestContextHandsOutCopies(t *testing.T) {
	prices := newStubPrices()
	prices.history["ACME"] = alternatingBars("ACME", 120, 2.0)
	prices.history["SPY"] = alternatingBars("SPY", 120, 1.0)

	p := newTestProvider(t, prices, &stubCompanies{})

	first, err := p.Context(context.Background(), "ACME")
	require.NoError(t, err)
	first.RecentSimilarCount = 7

	second, err := p.Context(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Zero(t, second.RecentSimilarCount)
}

func TestContextNormalizesTicker(t *testing.T) {
	prices := newStubPrices()
	prices.history["ACME"] = alternatingBars("ACME", 120, 2.0)
	prices.history["SPY"] = alternatingBars("SPY", 120, 1.0)

	p := newTestProvider(t, prices, &stubCompanies{})

	mctx, err := p.Context(context.Background(), "  acme ")
	require.NoError(t, err)

	assert.Equal(t, "ACME", mctx.Ticker)
	assert.NotNil(t, mctx.Beta)
}
