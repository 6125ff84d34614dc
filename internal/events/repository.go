// Package events owns the canonical event store and the company directory.
// The fingerprint uniqueness constraint lives here and nowhere else; every
// other dedup layer is advisory.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/database"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// eventColumns is the full select list, kept in scan order.
const eventColumns = `id, fingerprint, ticker, company_name, event_type, title, description,
	event_date, source, source_url, sector, info_tier, info_subtype,
	impact_score, direction, confidence, rationale, p_move, p_up, p_down,
	bearish_signal, bearish_score, bearish_confidence, bearish_rationale,
	ml_adjusted_score, ml_confidence, ml_model_version, model_source,
	delta_applied, scored_at, created_at`

// Repository implements contracts.EventRepository over radar.events.
type Repository struct {
	pool database.Pool
}

// NewRepository creates the event repository.
func NewRepository(pool database.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores the event unless its fingerprint already exists. The
// ON CONFLICT clause makes the check-and-insert atomic; concurrent workers
// racing on the same fingerprint get exactly one inserted=true.
func (r *Repository) Insert(ctx context.Context, event *contracts.Event) (bool, int64, error) {
	rationale, err := marshalStrings(event.Rationale)
	if err != nil {
		return false, 0, fmt.Errorf("encode rationale: %w", err)
	}
	bearishRationale, err := marshalStrings(event.BearishRationale)
	if err != nil {
		return false, 0, fmt.Errorf("encode bearish rationale: %w", err)
	}

	query := `
		INSERT INTO radar.events (
			fingerprint, ticker, company_name, event_type, title, description,
			event_date, source, source_url, sector, info_tier, info_subtype,
			impact_score, direction, confidence, rationale, p_move, p_up, p_down,
			bearish_signal, bearish_score, bearish_confidence, bearish_rationale,
			ml_adjusted_score, ml_confidence, ml_model_version, model_source,
			delta_applied, scored_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
		)
		ON CONFLICT (fingerprint) DO NOTHING
		RETURNING id, created_at
	`

	var id int64
	var createdAt time.Time
	err = r.pool.QueryRow(ctx, query,
		event.Fingerprint, event.Ticker, event.CompanyName, event.EventType,
		event.Title, event.Description, event.EventDate, event.Source,
		event.SourceURL, event.Sector, event.InfoTier, event.InfoSubtype,
		event.ImpactScore, event.Direction, event.Confidence, rationale,
		event.PMove, event.PUp, event.PDown,
		event.BearishSignal, event.BearishScore, event.BearishConfidence,
		bearishRationale,
		event.MLAdjustedScore, event.MLConfidence, event.MLModelVersion,
		event.ModelSource, event.DeltaApplied, event.ScoredAt,
	).Scan(&id, &createdAt)

	if errors.Is(err, pgx.ErrNoRows) {
		// Fingerprint already stored; surface the existing row's id.
		var existing int64
		selErr := r.pool.QueryRow(ctx,
			`SELECT id FROM radar.events WHERE fingerprint = $1`,
			event.Fingerprint,
		).Scan(&existing)
		if selErr != nil {
			return false, 0, fmt.Errorf("resolve duplicate event: %w", selErr)
		}
		return false, existing, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("insert event: %w", err)
	}

	event.CreatedAt = createdAt
	return true, id, nil
}

// UpdateScore replaces the score sub-record in place and appends the prior
// values to radar.event_score_history, both inside one transaction.
func (r *Repository) UpdateScore(ctx context.Context, event *contracts.Event) error {
	rationale, err := marshalStrings(event.Rationale)
	if err != nil {
		return fmt.Errorf("encode rationale: %w", err)
	}
	bearishRationale, err := marshalStrings(event.BearishRationale)
	if err != nil {
		return fmt.Errorf("encode bearish rationale: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update score: %w", err)
	}
	defer tx.Rollback(ctx)

	historyQuery := `
		INSERT INTO radar.event_score_history (
			event_id, impact_score, direction, confidence, rationale,
			model_source, ml_adjusted_score, delta_applied, scored_at
		)
		SELECT id, impact_score, direction, confidence, rationale,
			model_source, ml_adjusted_score, delta_applied, scored_at
		FROM radar.events
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, historyQuery, event.ID)
	if err != nil {
		return fmt.Errorf("append score history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %d not found", event.ID)
	}

	updateQuery := `
		UPDATE radar.events SET
			impact_score = $2, direction = $3, confidence = $4, rationale = $5,
			p_move = $6, p_up = $7, p_down = $8,
			bearish_signal = $9, bearish_score = $10, bearish_confidence = $11,
			bearish_rationale = $12,
			ml_adjusted_score = $13, ml_confidence = $14, ml_model_version = $15,
			model_source = $16, delta_applied = $17, scored_at = $18
		WHERE id = $1
	`
	_, err = tx.Exec(ctx, updateQuery,
		event.ID,
		event.ImpactScore, event.Direction, event.Confidence, rationale,
		event.PMove, event.PUp, event.PDown,
		event.BearishSignal, event.BearishScore, event.BearishConfidence,
		bearishRationale,
		event.MLAdjustedScore, event.MLConfidence, event.MLModelVersion,
		event.ModelSource, event.DeltaApplied, event.ScoredAt,
	)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update score: %w", err)
	}
	return nil
}

// GetByID returns the event, nil when the id is unknown.
func (r *Repository) GetByID(ctx context.Context, id int64) (*contracts.Event, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM radar.events WHERE id = $1`, id)

	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return event, nil
}

// GetByFingerprint returns the event, nil when the fingerprint is unknown.
func (r *Repository) GetByFingerprint(ctx context.Context, fingerprint string) (*contracts.Event, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM radar.events WHERE fingerprint = $1`, fingerprint)

	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event by fingerprint: %w", err)
	}
	return event, nil
}

// List returns events matching the filter, newest event date first.
func (r *Repository) List(ctx context.Context, filter contracts.EventFilter) ([]*contracts.Event, error) {
	qb := sq.Select(eventColumns).
		From("radar.events").
		PlaceholderFormat(sq.Dollar).
		OrderBy("event_date DESC", "id DESC")

	if filter.Ticker != "" {
		qb = qb.Where(sq.Eq{"ticker": filter.Ticker})
	}
	if filter.Sector != "" {
		qb = qb.Where(sq.Eq{"sector": filter.Sector})
	}
	if filter.EventType != "" {
		qb = qb.Where(sq.Eq{"event_type": filter.EventType})
	}
	if filter.Direction != "" {
		qb = qb.Where(sq.Eq{"direction": filter.Direction})
	}
	if filter.InfoTier != "" {
		qb = qb.Where(sq.Eq{"info_tier": filter.InfoTier})
	}
	if filter.MinScore > 0 {
		qb = qb.Where(sq.GtOrEq{"impact_score": filter.MinScore})
	}
	if !filter.From.IsZero() {
		qb = qb.Where(sq.GtOrEq{"event_date": filter.From})
	}
	if !filter.To.IsZero() {
		qb = qb.Where(sq.LtOrEq{"event_date": filter.To})
	}
	if !filter.Since.IsZero() {
		qb = qb.Where(sq.Gt{"created_at": filter.Since})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	qb = qb.Limit(uint64(limit))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build event query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*contracts.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}

// CountRecentSimilar counts events sharing ticker and type created after
// since. Feeds the duplicate scoring penalty.
func (r *Repository) CountRecentSimilar(ctx context.Context, ticker string, eventType contracts.EventType, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM radar.events
		 WHERE ticker = $1 AND event_type = $2 AND created_at > $3`,
		ticker, eventType, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count similar events: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*contracts.Event, error) {
	var event contracts.Event
	var rationale, bearishRationale []byte

	err := row.Scan(
		&event.ID, &event.Fingerprint, &event.Ticker, &event.CompanyName,
		&event.EventType, &event.Title, &event.Description,
		&event.EventDate, &event.Source, &event.SourceURL, &event.Sector,
		&event.InfoTier, &event.InfoSubtype,
		&event.ImpactScore, &event.Direction, &event.Confidence, &rationale,
		&event.PMove, &event.PUp, &event.PDown,
		&event.BearishSignal, &event.BearishScore, &event.BearishConfidence,
		&bearishRationale,
		&event.MLAdjustedScore, &event.MLConfidence, &event.MLModelVersion,
		&event.ModelSource, &event.DeltaApplied, &event.ScoredAt, &event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rationale, &event.Rationale); err != nil {
		return nil, fmt.Errorf("decode rationale: %w", err)
	}
	if err := json.Unmarshal(bearishRationale, &event.BearishRationale); err != nil {
		return nil, fmt.Errorf("decode bearish rationale: %w", err)
	}

	return &event, nil
}

// marshalStrings encodes a rationale for a jsonb column, mapping nil to an
// empty array so the column never holds SQL-visible null.
func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}
