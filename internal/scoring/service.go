package scoring

import (
	"context"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// Blender applies the stored model adjustment to an already-scored event.
// Implementations must fail open: on any internal failure the deterministic
// result stands.
type Blender interface {
	Blend(ctx context.Context, event *contracts.Event)
}

// Service writes the score sub-record onto events: deterministic engine
// first, then the optional model blend. Used for both first-time scoring
// and rescoring jobs.
type Service struct {
	engine  *Engine
	blender Blender
	logger  *logger.Logger
}

// NewService wires the engine and optional blender. A nil blender means
// deterministic-only scoring.
func NewService(engine *Engine, blender Blender, log *logger.Logger) *Service {
	s := &Service{
		engine:  engine,
		blender: blender,
		logger:  log.WithField("module", "scoring"),
	}

	if hash, err := Hash(engine.table); err == nil {
		s.logger.WithFields(map[string]interface{}{
			"factor_version": engine.table.Version,
			"factor_hash":    hash[:12],
		}).Info("Scoring service ready")
	}

	return s
}

// Score assigns the full score sub-record. Stale model fields from a prior
// scoring pass are cleared before the blend so a rescore never inherits them.
func (s *Service) Score(ctx context.Context, event *contracts.Event, mctx *contracts.MarketContext) error {
	res := s.engine.Score(event, mctx)

	event.ImpactScore = res.Score
	event.Direction = res.Direction
	event.Confidence = res.Confidence
	event.Rationale = res.Rationale
	event.PMove = res.PMove
	event.PUp = res.PUp
	event.PDown = res.PDown

	event.BearishSignal = res.BearishSignal
	event.BearishScore = res.BearishScore
	event.BearishConfidence = res.BearishConfidence
	event.BearishRationale = res.BearishRationale

	event.ModelSource = contracts.SourceDeterministic
	event.MLAdjustedScore = nil
	event.MLConfidence = nil
	event.MLModelVersion = ""
	event.DeltaApplied = 0

	event.ScoredAt = time.Now()

	if s.blender != nil {
		s.blender.Blend(ctx, event)
	}

	return nil
}
