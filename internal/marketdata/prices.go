// Package marketdata maintains daily price history and derives the market
// context consumed by scoring: rolling beta, ATR percentile, and benchmark
// trailing returns. History arrives from the quotes API via the Syncer and
// is read back by the context Provider and the outcome labeler.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/database"
)

// PriceRepository stores daily bars keyed by (ticker, day).
type PriceRepository struct {
	pool database.Pool
}

// NewPriceRepository creates a price repository on the given pool.
func NewPriceRepository(pool database.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// History returns bars for [from, to] in ascending day order.
func (r *PriceRepository) History(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.DailyPrice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker, day, open, high, low, close, volume
		FROM radar.daily_prices
		WHERE ticker = $1 AND day BETWEEN $2 AND $3
		ORDER BY day`,
		ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	var prices []*contracts.DailyPrice
	for rows.Next() {
		var p contracts.DailyPrice
		if err := rows.Scan(&p.Ticker, &p.Day, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		prices = append(prices, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return prices, nil
}

// CloseOnOrBefore returns the last stored close at or before day, nil when
// no bar exists that early.
func (r *PriceRepository) CloseOnOrBefore(ctx context.Context, ticker string, day time.Time) (*contracts.PricePoint, error) {
	var p contracts.PricePoint
	err := r.pool.QueryRow(ctx, `
		SELECT day, close
		FROM radar.daily_prices
		WHERE ticker = $1 AND day <= $2
		ORDER BY day DESC
		LIMIT 1`,
		ticker, day).Scan(&p.Day, &p.Close)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query close on or before: %w", err)
	}

	return &p, nil
}

// NthCloseAfter returns the close on the nth stored trading day after day,
// nil when history has not reached that far yet.
func (r *PriceRepository) NthCloseAfter(ctx context.Context, ticker string, day time.Time, n int) (*contracts.PricePoint, error) {
	if n < 1 {
		return nil, fmt.Errorf("horizon must be positive, got %d", n)
	}

	var p contracts.PricePoint
	err := r.pool.QueryRow(ctx, `
		SELECT day, close
		FROM radar.daily_prices
		WHERE ticker = $1 AND day > $2
		ORDER BY day
		LIMIT 1 OFFSET $3`,
		ticker, day, n-1).Scan(&p.Day, &p.Close)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query nth close after: %w", err)
	}

	return &p, nil
}

// UpsertBatch writes bars in one round trip. Re-synced days overwrite the
// stored bar, so late restatements from the quotes API win.
func (r *PriceRepository) UpsertBatch(ctx context.Context, prices []*contracts.DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}

	query := `
		INSERT INTO radar.daily_prices (ticker, day, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, day) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume`

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(query, p.Ticker, p.Day, p.Open, p.High, p.Low, p.Close, p.Volume)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range prices {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert price batch: %w", err)
		}
	}

	return nil
}
