package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// Scorer assigns the score sub-record to a normalized event before storage.
type Scorer interface {
	Score(ctx context.Context, event *contracts.Event, mctx *contracts.MarketContext) error
}

// Stats summarizes one pipeline run over a batch of raw records. Inserted
// counts only newly stored events; duplicates were found but already known.
// Rescored counts duplicates whose stored score was refreshed.
type Stats struct {
	Fetched    int `json:"fetched"`
	Rejected   int `json:"rejected"`
	Duplicates int `json:"duplicates"`
	Inserted   int `json:"inserted"`
	Rescored   int `json:"rescored"`
}

// Add accumulates another run's counters, for jobs spanning several sources.
func (s *Stats) Add(other Stats) {
	s.Fetched += other.Fetched
	s.Rejected += other.Rejected
	s.Duplicates += other.Duplicates
	s.Inserted += other.Inserted
	s.Rescored += other.Rescored
}

// Pipeline runs normalize, score, dedup-insert, publish for each raw record
// a scanner produced. Insertion order follows upstream order.
type Pipeline struct {
	normalizer *Normalizer
	events     contracts.EventRepository
	provider   contracts.ContextProvider
	scorer     Scorer
	publisher  contracts.Publisher
	logger     *logger.Logger

	// duplicateWindow is the trailing window for the duplicate penalty
	// input handed to the scorer.
	duplicateWindow time.Duration
}

// NewPipeline wires the ingestion stages together. The publisher may be nil
// for batch/CLI use.
func NewPipeline(
	normalizer *Normalizer,
	events contracts.EventRepository,
	provider contracts.ContextProvider,
	scorer Scorer,
	publisher contracts.Publisher,
	duplicateWindow time.Duration,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		normalizer:      normalizer,
		events:          events,
		provider:        provider,
		scorer:          scorer,
		publisher:       publisher,
		duplicateWindow: duplicateWindow,
		logger:          log.WithField("module", "ingest"),
	}
}

// Run processes one batch. Rejections and duplicates are normal outcomes;
// the returned error reports storage failures only, with everything already
// inserted staying committed.
func (p *Pipeline) Run(ctx context.Context, source string, records []contracts.RawRecord) (Stats, error) {
	return p.run(ctx, source, records, false)
}

// Rescore processes one batch like Run but refreshes stored events the
// batch rediscovers: a duplicate hit re-scores the existing event against
// current market context, keeping the prior score in its history. Targeted
// company scans come through here so a rescan updates stale scores instead
// of discarding everything already known.
func (p *Pipeline) Rescore(ctx context.Context, source string, records []contracts.RawRecord) (Stats, error) {
	return p.run(ctx, source, records, true)
}

func (p *Pipeline) run(ctx context.Context, source string, records []contracts.RawRecord, rescore bool) (Stats, error) {
	stats := Stats{Fetched: len(records)}

	for _, raw := range records {
		event, err := p.normalizer.Normalize(ctx, raw, source)
		if err != nil {
			stats.Rejected++
			var rej *RejectError
			if errors.As(err, &rej) {
				p.logger.WithFields(map[string]interface{}{
					"source": source,
					"title":  raw.Title,
					"reason": rej.Reason,
				}).Debug("Record rejected")
			} else {
				p.logger.WithError(err).WithField("source", source).Warn("Normalization failed")
			}
			continue
		}

		if err := p.scoreEvent(ctx, event, false); err != nil {
			// A record that cannot be scored is dropped, never stored
			// with an empty score sub-record.
			stats.Rejected++
			p.logger.WithError(err).WithFields(map[string]interface{}{
				"ticker":      event.Ticker,
				"fingerprint": event.Fingerprint,
			}).Warn("Scoring failed, record dropped")
			continue
		}

		inserted, id, err := p.events.Insert(ctx, event)
		if err != nil {
			return stats, fmt.Errorf("insert event %s: %w", event.Fingerprint, err)
		}

		if !inserted {
			stats.Duplicates++
			if rescore {
				ok, err := p.rescoreExisting(ctx, id)
				if err != nil {
					return stats, err
				}
				if ok {
					stats.Rescored++
				}
				continue
			}
			p.logger.WithFields(map[string]interface{}{
				"ticker":      event.Ticker,
				"fingerprint": event.Fingerprint,
			}).Debug("Duplicate event skipped")
			continue
		}

		stats.Inserted++
		event.ID = id
		if p.publisher != nil {
			p.publisher.Publish(event)
		}

		p.logger.WithFields(map[string]interface{}{
			"ticker":     event.Ticker,
			"event_type": event.EventType,
			"score":      event.ImpactScore,
			"direction":  event.Direction,
		}).Info("Event ingested")
	}

	return stats, nil
}

// rescoreExisting loads a stored event, scores it against current market
// context, and persists the result with the prior score appended to its
// history. A scoring failure keeps the stored score and is not fatal; a
// storage failure aborts the batch like a failed insert.
func (p *Pipeline) rescoreExisting(ctx context.Context, id int64) (bool, error) {
	stored, err := p.events.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load event %d for rescore: %w", id, err)
	}
	if stored == nil {
		return false, nil
	}

	if err := p.scoreEvent(ctx, stored, true); err != nil {
		p.logger.WithError(err).WithFields(map[string]interface{}{
			"ticker":      stored.Ticker,
			"fingerprint": stored.Fingerprint,
		}).Warn("Rescore failed, stored score kept")
		return false, nil
	}

	if err := p.events.UpdateScore(ctx, stored); err != nil {
		return false, fmt.Errorf("update score for event %d: %w", id, err)
	}

	p.logger.WithFields(map[string]interface{}{
		"ticker":     stored.Ticker,
		"event_type": stored.EventType,
		"score":      stored.ImpactScore,
		"direction":  stored.Direction,
	}).Info("Event rescored")
	return true, nil
}

// scoreEvent gathers market context and runs the scorer. Context gathering
// is best-effort: scoring proceeds on a bare context when signals are
// unavailable. stored marks an event already in the table, whose own row
// must not count toward its similar-event penalty.
func (p *Pipeline) scoreEvent(ctx context.Context, event *contracts.Event, stored bool) error {
	mctx := p.marketContext(ctx, event.Ticker)
	if mctx.Sector == "" {
		mctx.Sector = event.Sector
	}

	since := time.Now().Add(-p.duplicateWindow)
	count, err := p.events.CountRecentSimilar(ctx, event.Ticker, event.EventType, since)
	if err != nil {
		p.logger.WithError(err).WithField("ticker", event.Ticker).Warn("Recent-similar count unavailable")
	} else {
		if stored && count > 0 && event.CreatedAt.After(since) {
			count--
		}
		mctx.RecentSimilarCount = count
	}

	return p.scorer.Score(ctx, event, mctx)
}

func (p *Pipeline) marketContext(ctx context.Context, ticker string) *contracts.MarketContext {
	mctx, err := p.provider.Context(ctx, ticker)
	if err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("Market context unavailable, scoring degraded")
	}
	if mctx == nil {
		mctx = &contracts.MarketContext{Ticker: ticker, AsOf: time.Now()}
	}
	return mctx
}
