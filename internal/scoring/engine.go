package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// Result is the output of one deterministic scoring pass.
type Result struct {
	Score      int
	Direction  contracts.Direction
	Confidence float64
	Rationale  []string

	PMove float64
	PUp   float64
	PDown float64

	BearishSignal     bool
	BearishScore      int
	BearishConfidence float64
	BearishRationale  []string
}

// Engine scores events against a factor table. Scoring is pure and total
// over well-formed input: missing context degrades confidence, never errors.
type Engine struct {
	table *FactorTable
}

// NewEngine creates an engine over a validated factor table.
func NewEngine(table *FactorTable) *Engine {
	return &Engine{table: table}
}

// Score runs the deterministic pass: base score by type, sector weighting,
// duplicate penalty, bounded market-context adjustments, tier penalty, then
// clamp to [0,100]. The rationale carries one line per factor that actually
// contributed.
func (e *Engine) Score(event *contracts.Event, mctx *contracts.MarketContext) Result {
	t := e.table

	base := t.Base[event.EventType]
	direction := t.Polarity[event.EventType]
	if direction == "" {
		direction = contracts.DirectionUncertain
	}

	score := float64(base)
	rationale := []string{fmt.Sprintf("base %s score %d", event.EventType, base)}

	if sector := eventSector(event, mctx); sector != "" {
		if mult := t.sectorMultiplier(sector, event.EventType); mult != 1.0 {
			score *= mult
			rationale = append(rationale, fmt.Sprintf("sector %s weighting x%.2f", sector, mult))
		}
	}

	if mctx != nil && mctx.RecentSimilarCount > 0 {
		penalty := t.Duplicate.PenaltyPerHit * mctx.RecentSimilarCount
		if penalty > t.Duplicate.Cap {
			penalty = t.Duplicate.Cap
		}
		score -= float64(penalty)
		rationale = append(rationale, fmt.Sprintf("duplicate penalty -%d (%d similar in window)", penalty, mctx.RecentSimilarCount))
	}

	if mctx != nil && mctx.Beta != nil {
		switch beta := *mctx.Beta; {
		case beta > t.Beta.HighThreshold:
			score += float64(t.Beta.HighBonus)
			rationale = append(rationale, fmt.Sprintf("high beta bonus +%d (beta %.2f)", t.Beta.HighBonus, beta))
		case beta >= t.Beta.MidThreshold:
			score += float64(t.Beta.MidBonus)
			rationale = append(rationale, fmt.Sprintf("moderate beta bonus +%d (beta %.2f)", t.Beta.MidBonus, beta))
		}
	}

	if mctx != nil && mctx.ATRPercentile != nil {
		pct := normalizePercentile(*mctx.ATRPercentile)
		bonus := float64(t.ATR.MaxBonus) * pct / 100
		if bonus > 0 {
			score += bonus
			rationale = append(rationale, fmt.Sprintf("volatility bonus +%.1f (ATR percentile %.0f)", bonus, pct))
		}
	}

	if mctx != nil && mctx.Bench5D != nil && direction == contracts.DirectionPositive {
		if adjust := t.regimeAdjust(*mctx.Bench5D); adjust != 0 {
			score += float64(adjust)
			rationale = append(rationale, fmt.Sprintf("market regime %+d (benchmark 5d %+.1f%%)", adjust, *mctx.Bench5D))
		}
	}

	if event.InfoTier == contracts.TierSecondary && t.SecondaryTierPenalty > 0 {
		score -= float64(t.SecondaryTierPenalty)
		rationale = append(rationale, fmt.Sprintf("secondary source penalty -%d", t.SecondaryTierPenalty))
	}

	final := int(math.Round(score))
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	conf := t.Confidence[event.EventType]
	conf -= t.MissingDataPenalty * (1 - mctx.Completeness())
	conf = clampFloat(conf, 0.05, 0.99)

	pMove, pUp, pDown := probabilities(final, direction, conf)

	result := Result{
		Score:      final,
		Direction:  direction,
		Confidence: conf,
		Rationale:  rationale,
		PMove:      pMove,
		PUp:        pUp,
		PDown:      pDown,
	}

	if direction == contracts.DirectionNegative {
		result.BearishSignal = true
		result.BearishScore = final
		result.BearishConfidence = conf
		result.BearishRationale = append([]string(nil), rationale...)
	}

	return result
}

// sectorMultiplier looks up the (sector, family) weighting, 1.0 when absent.
func (t *FactorTable) sectorMultiplier(sector string, eventType contracts.EventType) float64 {
	families, ok := t.SectorFamilyMultipliers[strings.ToLower(sector)]
	if !ok {
		return 1.0
	}
	mult, ok := families[family(eventType)]
	if !ok {
		return 1.0
	}
	return mult
}

// regimeAdjust bands the benchmark 5-day return into a bounded adjustment.
func (t *FactorTable) regimeAdjust(bench5d float64) int {
	switch {
	case bench5d >= t.Regime.StrongMovePct:
		return t.Regime.StrongAdjust
	case bench5d >= t.Regime.MildMovePct:
		return t.Regime.MildAdjust
	case bench5d <= -t.Regime.StrongMovePct:
		return -t.Regime.StrongAdjust
	case bench5d <= -t.Regime.MildMovePct:
		return -t.Regime.MildAdjust
	default:
		return 0
	}
}

// normalizePercentile maps an ATR percentile onto the 0-100 scale. Historic
// producers emitted both 0-1 fractions and 0-100 percentiles; magnitude
// decides which encoding arrived.
func normalizePercentile(v float64) float64 {
	if v <= 1.0 {
		v *= 100
	}
	return clampFloat(v, 0, 100)
}

// eventSector prefers the live context's sector over the stored one.
func eventSector(event *contracts.Event, mctx *contracts.MarketContext) string {
	if mctx != nil && mctx.Sector != "" {
		return mctx.Sector
	}
	return event.Sector
}

// probabilities derives the optional probabilistic fields from the final
// score, direction, and confidence.
func probabilities(score int, direction contracts.Direction, conf float64) (pMove, pUp, pDown float64) {
	pMove = 0.15 + 0.70*float64(score)/100

	switch direction {
	case contracts.DirectionPositive:
		pUp = pMove * (0.5 + 0.35*conf)
		pDown = pMove - pUp
	case contracts.DirectionNegative:
		pDown = pMove * (0.5 + 0.35*conf)
		pUp = pMove - pDown
	default:
		pUp = pMove / 2
		pDown = pMove - pUp
	}

	return pMove, pUp, pDown
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
