package marketdata

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/redis"
)

// Tunables for the context math. The ATR percentile wants roughly 200
// trading days of distribution; 450 calendar days of history covers that
// plus the true-range warmup and market holidays.
const (
	contextTTL      = 15 * time.Minute
	historyLookback = 450

	betaWindow     = 60
	betaMinSamples = 30

	atrWindow       = 14
	atrDistribution = 200
	atrMinSamples   = 30
)

// Provider assembles market context from stored price history. Contexts are
// memoized in-process and in Redis for contextTTL, so a burst of events on
// one ticker computes the signals once.
type Provider struct {
	prices    contracts.PriceRepository
	companies contracts.CompanyRepository
	cache     *redis.Cache
	benchmark string
	logger    *logger.Logger

	mu   sync.Mutex
	memo map[string]memoEntry
}

type memoEntry struct {
	mctx    contracts.MarketContext
	expires time.Time
}

// NewProvider creates a market context provider.
func NewProvider(prices contracts.PriceRepository, companies contracts.CompanyRepository, cache *redis.Cache, cfg *config.Config, log *logger.Logger) *Provider {
	return &Provider{
		prices:    prices,
		companies: companies,
		cache:     cache,
		benchmark: cfg.Scoring.BenchmarkTicker,
		logger:    log.WithField("module", "marketdata"),
		memo:      make(map[string]memoEntry),
	}
}

// Context builds the market context for a ticker. It never fails: every
// input that cannot be fetched or computed degrades to a nil field, and
// scoring reads the gaps through Completeness.
func (p *Provider) Context(ctx context.Context, ticker string) (*contracts.MarketContext, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if mctx := p.fromMemo(ticker); mctx != nil {
		return mctx, nil
	}

	var cached contracts.MarketContext
	if found, err := p.cache.Get(ctx, redis.MarketContextKey(ticker), &cached); err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Debug("Market context cache read failed")
	} else if found {
		p.remember(ticker, &cached)
		return &cached, nil
	}

	mctx := p.compute(ctx, ticker)
	p.remember(ticker, mctx)

	if err := p.cache.Set(ctx, redis.MarketContextKey(ticker), mctx, contextTTL); err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Debug("Market context cache write failed")
	}

	return mctx, nil
}

// fromMemo returns a copy of the fresh memoized context, nil on miss.
// Callers stamp RecentSimilarCount onto what they get back, so the memo
// never hands out its own struct.
func (p *Provider) fromMemo(ticker string) *contracts.MarketContext {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.memo[ticker]
	if !ok || time.Now().After(entry.expires) {
		return nil
	}
	mctx := entry.mctx
	return &mctx
}

func (p *Provider) remember(ticker string, mctx *contracts.MarketContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.memo[ticker] = memoEntry{mctx: *mctx, expires: time.Now().Add(contextTTL)}
}

func (p *Provider) compute(ctx context.Context, ticker string) *contracts.MarketContext {
	now := time.Now()
	mctx := &contracts.MarketContext{Ticker: ticker, AsOf: now}

	if company, err := p.companies.GetByTicker(ctx, ticker); err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("Company lookup failed")
	} else if company != nil {
		mctx.Sector = company.Sector
	}

	from := now.AddDate(0, 0, -historyLookback)

	bars, err := p.prices.History(ctx, ticker, from, now)
	if err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("Price history unavailable")
		bars = nil
	}
	bench, err := p.prices.History(ctx, p.benchmark, from, now)
	if err != nil {
		p.logger.WithError(err).WithField("ticker", p.benchmark).Warn("Benchmark history unavailable")
		bench = nil
	}

	if beta, ok := rollingBeta(bars, bench); ok {
		mctx.Beta = contracts.Float64(beta)
	}
	if pct, ok := atrPercentile(bars); ok {
		mctx.ATRPercentile = contracts.Float64(pct)
	}
	if ret, ok := trailingReturn(bench, 1); ok {
		mctx.Bench1D = contracts.Float64(ret)
	}
	if ret, ok := trailingReturn(bench, 5); ok {
		mctx.Bench5D = contracts.Float64(ret)
	}
	if ret, ok := trailingReturn(bench, 20); ok {
		mctx.Bench20D = contracts.Float64(ret)
	}

	return mctx
}

// rollingBeta regresses the ticker's daily returns on the benchmark's over
// the last betaWindow aligned trading days.
func rollingBeta(bars, bench []*contracts.DailyPrice) (float64, bool) {
	stock := returnsByDay(bars)
	index := returnsByDay(bench)

	days := make([]string, 0, len(stock))
	for day := range stock {
		if _, ok := index[day]; ok {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	if len(days) > betaWindow {
		days = days[len(days)-betaWindow:]
	}
	if len(days) < betaMinSamples {
		return 0, false
	}

	var sumS, sumB float64
	for _, d := range days {
		sumS += stock[d]
		sumB += index[d]
	}
	n := float64(len(days))
	meanS, meanB := sumS/n, sumB/n

	var cov, varB float64
	for _, d := range days {
		cov += (stock[d] - meanS) * (index[d] - meanB)
		varB += (index[d] - meanB) * (index[d] - meanB)
	}
	if varB == 0 {
		return 0, false
	}

	return cov / varB, true
}

// returnsByDay maps ISO day to close-to-close percent return. Bars with a
// non-positive previous close are skipped.
func returnsByDay(bars []*contracts.DailyPrice) map[string]float64 {
	returns := make(map[string]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev <= 0 {
			continue
		}
		returns[bars[i].Day.Format("2006-01-02")] = (bars[i].Close - prev) / prev * 100
	}
	return returns
}

// atrPercentile places the current 14-day average true range within the
// ticker's own trailing distribution. Returns a 0-100 percentile.
func atrPercentile(bars []*contracts.DailyPrice) (float64, bool) {
	trs := trueRanges(bars)
	if len(trs) < atrWindow {
		return 0, false
	}

	atrs := make([]float64, 0, len(trs)-atrWindow+1)
	for i := atrWindow; i <= len(trs); i++ {
		var sum float64
		for _, tr := range trs[i-atrWindow : i] {
			sum += tr
		}
		atrs = append(atrs, sum/float64(atrWindow))
	}
	if len(atrs) > atrDistribution {
		atrs = atrs[len(atrs)-atrDistribution:]
	}
	if len(atrs) < atrMinSamples {
		return 0, false
	}

	current := atrs[len(atrs)-1]
	rank := 0
	for _, v := range atrs {
		if v <= current {
			rank++
		}
	}

	return float64(rank) / float64(len(atrs)) * 100, true
}

// trueRanges computes the daily true range series, oldest first.
func trueRanges(bars []*contracts.DailyPrice) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		high, low, prev := bars[i].High, bars[i].Low, bars[i-1].Close
		tr := high - low
		if d := math.Abs(high - prev); d > tr {
			tr = d
		}
		if d := math.Abs(low - prev); d > tr {
			tr = d
		}
		out = append(out, tr)
	}
	return out
}

// trailingReturn is the percent move over the last n bars.
func trailingReturn(bars []*contracts.DailyPrice, n int) (float64, bool) {
	if len(bars) <= n {
		return 0, false
	}
	last := bars[len(bars)-1].Close
	base := bars[len(bars)-1-n].Close
	if base <= 0 {
		return 0, false
	}
	return (last - base) / base * 100, true
}
