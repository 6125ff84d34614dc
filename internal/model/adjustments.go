package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/database"
)

// AdjustmentRepository implements contracts.AdjustmentRepository over
// radar.model_adjustments. Rows are written by the external retraining
// pipeline; this side only reads.
type AdjustmentRepository struct {
	pool database.Pool
}

// NewAdjustmentRepository creates the stored-model reader.
func NewAdjustmentRepository(pool database.Pool) *AdjustmentRepository {
	return &AdjustmentRepository{pool: pool}
}

// Get returns the adjustment for (eventType, sector), nil when absent.
func (r *AdjustmentRepository) Get(ctx context.Context, eventType contracts.EventType, sector string) (*contracts.ModelAdjustment, error) {
	var adj contracts.ModelAdjustment
	err := r.pool.QueryRow(ctx,
		`SELECT event_type, sector, delta, confidence, version, sample_count, trained_at
		 FROM radar.model_adjustments
		 WHERE event_type = $1 AND sector = $2`,
		eventType, sector,
	).Scan(&adj.EventType, &adj.Sector, &adj.Delta, &adj.Confidence,
		&adj.Version, &adj.SampleCount, &adj.TrainedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get model adjustment: %w", err)
	}
	return &adj, nil
}
