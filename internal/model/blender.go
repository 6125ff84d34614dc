// Package model applies stored model adjustments on top of deterministic
// scores. Training happens in an external pipeline; this package only reads
// the resulting adjustment rows and blends them in, failing open to the
// deterministic score on any miss or error.
package model

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// defaultMinSamples is the evidence floor: adjustment rows trained on fewer
// labeled outcomes than this are ignored.
const defaultMinSamples = 25

// Blender looks up the stored adjustment for an event and writes the
// model-adjusted fields. Lookup order: (event_type, sector) first, then the
// global (event_type, "*") row, else the deterministic score stands.
type Blender struct {
	adjustments contracts.AdjustmentRepository
	minSamples  int
	log         zerolog.Logger
}

// NewBlender wires the adjustment store. minSamples <= 0 selects the
// default evidence floor.
func NewBlender(adjustments contracts.AdjustmentRepository, minSamples int, log zerolog.Logger) *Blender {
	if minSamples <= 0 {
		minSamples = defaultMinSamples
	}
	return &Blender{
		adjustments: adjustments,
		minSamples:  minSamples,
		log:         log.With().Str("component", "model.blender").Logger(),
	}
}

// Blend applies the stored adjustment to an already-scored event. The event
// arrives with deterministic fields set and model fields cleared; on any
// failure it is left that way.
func (b *Blender) Blend(ctx context.Context, event *contracts.Event) {
	adj, source := b.lookup(ctx, event)
	if adj == nil {
		return
	}

	adjusted := float64(event.ImpactScore) + adj.Delta
	if adjusted < 0 {
		adjusted = 0
	}
	if adjusted > 100 {
		adjusted = 100
	}

	event.MLAdjustedScore = &adjusted
	event.MLConfidence = contracts.Float64(adj.Confidence)
	event.MLModelVersion = adj.Version
	event.ModelSource = source
	// Clamping can shrink the stored delta; record what actually moved the
	// score so adjusted == impact_score + delta_applied always holds.
	event.DeltaApplied = adjusted - float64(event.ImpactScore)

	b.log.Debug().
		Str("ticker", event.Ticker).
		Str("event_type", string(event.EventType)).
		Str("model_source", string(source)).
		Float64("delta_applied", event.DeltaApplied).
		Msg("model adjustment applied")
}

// lookup resolves family-specific then global, skipping rows below the
// sample floor. Store errors log at warn and resolve to nil.
func (b *Blender) lookup(ctx context.Context, event *contracts.Event) (*contracts.ModelAdjustment, contracts.ModelSource) {
	if sector := strings.ToLower(strings.TrimSpace(event.Sector)); sector != "" && sector != "*" {
		adj, err := b.adjustments.Get(ctx, event.EventType, sector)
		if err != nil {
			b.warnLookup(event, sector, err)
			return nil, contracts.SourceDeterministic
		}
		if b.usable(adj) {
			return adj, contracts.SourceFamilySpecific
		}
	}

	adj, err := b.adjustments.Get(ctx, event.EventType, "*")
	if err != nil {
		b.warnLookup(event, "*", err)
		return nil, contracts.SourceDeterministic
	}
	if b.usable(adj) {
		return adj, contracts.SourceGlobal
	}

	return nil, contracts.SourceDeterministic
}

func (b *Blender) usable(adj *contracts.ModelAdjustment) bool {
	return adj != nil && adj.SampleCount >= b.minSamples
}

func (b *Blender) warnLookup(event *contracts.Event, sector string, err error) {
	b.log.Warn().Err(err).
		Str("ticker", event.Ticker).
		Str("event_type", string(event.EventType)).
		Str("sector", sector).
		Msg("adjustment lookup failed, keeping deterministic score")
}
