package outcomes

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
)

// defaultBatchSize bounds one labeling pass per horizon.
const defaultBatchSize = 500

// Stats counts one labeling run.
type Stats struct {
	Examined int
	Labeled  int
	Skipped  int
}

// Labeler computes realized outcomes for scored events whose horizon has
// elapsed. An event is labeled against its own close and the benchmark close
// on the same trading days; a skip is a silent retry, the event stays pending
// until price coverage arrives.
type Labeler struct {
	outcomes  contracts.OutcomeRepository
	prices    contracts.PriceRepository
	benchmark string
	batchSize int
	log       zerolog.Logger
}

// NewLabeler wires the labeler. The benchmark ticker is the configured index
// proxy (SPY by default).
func NewLabeler(outcomeRepo contracts.OutcomeRepository, priceRepo contracts.PriceRepository, cfg *config.Config, log zerolog.Logger) *Labeler {
	return &Labeler{
		outcomes:  outcomeRepo,
		prices:    priceRepo,
		benchmark: cfg.Scoring.BenchmarkTicker,
		batchSize: defaultBatchSize,
		log:       log.With().Str("component", "outcomes.labeler").Logger(),
	}
}

// Run labels pending events across all horizons. Per-event failures are
// logged and skipped; only a failure to list pending work stops the pass.
func (l *Labeler) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	now := time.Now()

	for _, horizon := range contracts.OutcomeHorizons {
		events, err := l.outcomes.PendingEvents(ctx, horizon, now, l.batchSize)
		if err != nil {
			return stats, fmt.Errorf("list pending events for %dd: %w", horizon, err)
		}

		for _, event := range events {
			stats.Examined++

			outcome, err := l.label(ctx, event, horizon, now)
			if err != nil {
				l.log.Warn().Err(err).
					Int64("event_id", event.ID).
					Str("ticker", event.Ticker).
					Int("horizon_days", horizon).
					Msg("labeling failed")
				stats.Skipped++
				continue
			}
			if outcome == nil {
				stats.Skipped++
				continue
			}

			if err := l.outcomes.Insert(ctx, outcome); err != nil {
				l.log.Warn().Err(err).
					Int64("event_id", event.ID).
					Int("horizon_days", horizon).
					Msg("outcome insert failed")
				stats.Skipped++
				continue
			}
			stats.Labeled++
		}
	}

	l.log.Info().
		Int("examined", stats.Examined).
		Int("labeled", stats.Labeled).
		Int("skipped", stats.Skipped).
		Msg("labeling pass completed")

	return stats, nil
}

// label joins the event with its price context. A nil outcome means coverage
// is incomplete for this horizon.
func (l *Labeler) label(ctx context.Context, event *contracts.Event, horizon int, now time.Time) (*contracts.EventOutcome, error) {
	before, err := l.prices.CloseOnOrBefore(ctx, event.Ticker, event.EventDate)
	if err != nil {
		return nil, fmt.Errorf("price before: %w", err)
	}
	if before == nil || before.Close <= 0 {
		return nil, nil
	}

	after, err := l.prices.NthCloseAfter(ctx, event.Ticker, before.Day, horizon)
	if err != nil {
		return nil, fmt.Errorf("price after: %w", err)
	}
	if after == nil {
		return nil, nil
	}

	// The benchmark window is anchored on the stock's own before-day so both
	// legs span the same trading days.
	benchBefore, err := l.prices.CloseOnOrBefore(ctx, l.benchmark, before.Day)
	if err != nil {
		return nil, fmt.Errorf("benchmark before: %w", err)
	}
	if benchBefore == nil || benchBefore.Close <= 0 {
		return nil, nil
	}

	benchAfter, err := l.prices.NthCloseAfter(ctx, l.benchmark, benchBefore.Day, horizon)
	if err != nil {
		return nil, fmt.Errorf("benchmark after: %w", err)
	}
	if benchAfter == nil {
		return nil, nil
	}

	outcome := &contracts.EventOutcome{
		EventID:     event.ID,
		HorizonDays: horizon,
		PriceBefore: before.Close,
		PriceAfter:  after.Close,
		BenchBefore: benchBefore.Close,
		BenchAfter:  benchAfter.Close,
		ComputedAt:  now,
	}
	outcome.Derive(event.Direction)
	return outcome, nil
}
