package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

const (
	// backfillDays seeds a ticker with enough history for the context
	// math and 20-day outcome windows.
	backfillDays = historyLookback

	// refreshDays is the steady-state lookback. A week absorbs holidays,
	// weekends, and late restatements from the quotes API.
	refreshDays = 7
)

// Syncer keeps daily price history current for every active ticker and the
// benchmark.
type Syncer struct {
	quotes    *QuotesClient
	prices    contracts.PriceRepository
	companies contracts.CompanyRepository
	benchmark string
	logger    *logger.Logger
}

// NewSyncer creates a price syncer.
func NewSyncer(quotes *QuotesClient, prices contracts.PriceRepository, companies contracts.CompanyRepository, cfg *config.Config, log *logger.Logger) *Syncer {
	return &Syncer{
		quotes:    quotes,
		prices:    prices,
		companies: companies,
		benchmark: cfg.Scoring.BenchmarkTicker,
		logger:    log.WithField("module", "pricesync"),
	}
}

// Sync pulls daily bars for the benchmark and every active ticker, and
// returns how many bars were written. Individual tickers fail soft; the
// benchmark goes first because outcome labeling is dead without it.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	companies, err := s.companies.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active companies: %w", err)
	}

	tickers := make([]string, 0, len(companies)+1)
	tickers = append(tickers, s.benchmark)
	for _, c := range companies {
		if c.Ticker != s.benchmark {
			tickers = append(tickers, c.Ticker)
		}
	}

	var total, failed int
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := s.syncTicker(ctx, ticker)
		if err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Price sync failed for ticker")
			failed++
			continue
		}
		total += n
	}

	s.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"failed":  failed,
		"bars":    total,
	}).Info("Price sync completed")

	if failed == len(tickers) {
		return total, fmt.Errorf("all %d tickers failed to sync", failed)
	}

	return total, nil
}

// syncTicker fetches the missing window for one ticker. A ticker with no
// stored bars gets the full backfill; otherwise a short refresh window is
// enough, and the upsert makes re-fetched days harmless.
func (s *Syncer) syncTicker(ctx context.Context, ticker string) (int, error) {
	now := time.Now()

	lookback := refreshDays
	latest, err := s.prices.CloseOnOrBefore(ctx, ticker, now)
	if err != nil {
		return 0, fmt.Errorf("latest stored bar: %w", err)
	}
	if latest == nil {
		lookback = backfillDays
	}

	bars, err := s.quotes.FetchDaily(ctx, ticker, now.AddDate(0, 0, -lookback), now)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}

	if err := s.prices.UpsertBatch(ctx, bars); err != nil {
		return 0, err
	}

	return len(bars), nil
}
