// Package outcomes labels realized price behavior for scored events and
// aggregates backtest accuracy. Outcome rows are append-only training data:
// once written they are never updated or deleted.
package outcomes

import (
	"context"
	"fmt"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/database"
)

const outcomeColumns = `event_id, horizon_days, price_before, price_after,
	benchmark_before, benchmark_after, raw_return_pct, benchmark_return_pct,
	abnormal_return_pct, direction_correct, computed_at`

// Repository persists outcome rows in radar.event_outcomes.
type Repository struct {
	pool database.Pool
}

// NewRepository creates an outcome repository backed by pool.
func NewRepository(pool database.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one outcome. The (event_id, horizon_days) primary key turns
// a relabel attempt into an error instead of a silent overwrite.
func (r *Repository) Insert(ctx context.Context, outcome *contracts.EventOutcome) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO radar.event_outcomes (`+outcomeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		outcome.EventID, outcome.HorizonDays,
		outcome.PriceBefore, outcome.PriceAfter,
		outcome.BenchBefore, outcome.BenchAfter,
		outcome.RawReturn, outcome.BenchReturn, outcome.AbnormalRet,
		outcome.DirCorrect, outcome.ComputedAt)
	if err != nil {
		return fmt.Errorf("insert outcome %d/%dd: %w", outcome.EventID, outcome.HorizonDays, err)
	}
	return nil
}

// ListByEvent returns all labeled horizons for one event, shortest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]*contracts.EventOutcome, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+outcomeColumns+` FROM radar.event_outcomes WHERE event_id = $1 ORDER BY horizon_days`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var outcomes []*contracts.EventOutcome
	for rows.Next() {
		o := &contracts.EventOutcome{}
		if err := rows.Scan(&o.EventID, &o.HorizonDays,
			&o.PriceBefore, &o.PriceAfter, &o.BenchBefore, &o.BenchAfter,
			&o.RawReturn, &o.BenchReturn, &o.AbnormalRet,
			&o.DirCorrect, &o.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// PendingEvents returns events whose horizon elapsed with no outcome row for
// it yet. The calendar-day cutoff is a coarse pre-filter; whether enough
// trading days exist is decided by the labeler's price join. Only the fields
// labeling reads are hydrated.
func (r *Repository) PendingEvents(ctx context.Context, horizonDays int, asOf time.Time, limit int) ([]*contracts.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.ticker, e.event_type, e.event_date, e.direction
		FROM radar.events e
		LEFT JOIN radar.event_outcomes o
			ON o.event_id = e.id AND o.horizon_days = $1
		WHERE o.event_id IS NULL
			AND e.event_date <= $2 - make_interval(days => $1)
		ORDER BY e.event_date
		LIMIT $3`,
		horizonDays, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	defer rows.Close()

	var events []*contracts.Event
	for rows.Next() {
		event := &contracts.Event{}
		if err := rows.Scan(&event.ID, &event.Ticker, &event.EventType,
			&event.EventDate, &event.Direction); err != nil {
			return nil, fmt.Errorf("scan pending event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// SummaryByEventType aggregates hit rate and average abnormal return per
// event type for one horizon. Feeds the external retraining pipeline.
func (r *Repository) SummaryByEventType(ctx context.Context, horizonDays int) ([]contracts.OutcomeSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.event_type,
			COUNT(*) AS samples,
			AVG(CASE WHEN o.direction_correct THEN 1.0 ELSE 0.0 END) AS hit_rate,
			AVG(o.abnormal_return_pct) AS avg_abnormal_return
		FROM radar.event_outcomes o
		JOIN radar.events e ON e.id = o.event_id
		WHERE o.horizon_days = $1
		GROUP BY e.event_type
		ORDER BY e.event_type`,
		horizonDays)
	if err != nil {
		return nil, fmt.Errorf("summarize outcomes: %w", err)
	}
	defer rows.Close()

	var summaries []contracts.OutcomeSummary
	for rows.Next() {
		s := contracts.OutcomeSummary{HorizonDays: horizonDays}
		if err := rows.Scan(&s.EventType, &s.Samples, &s.HitRate, &s.AvgAbnormalRet); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
