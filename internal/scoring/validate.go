package scoring

import (
	"fmt"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// ValidationError names the factor-table field that failed its constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a factor table against its constraints. Every event type
// in the taxonomy must be fully covered; partial tables fail loudly at load
// time instead of scoring garbage at runtime.
func Validate(t *FactorTable) error {
	for _, et := range contracts.EventTypes() {
		base, ok := t.Base[et]
		if !ok {
			return ValidationError{fmt.Sprintf("base_scores.%s", et), "missing"}
		}
		if base < 0 || base > 100 {
			return ValidationError{fmt.Sprintf("base_scores.%s", et), "must be in [0,100]"}
		}

		polarity, ok := t.Polarity[et]
		if !ok {
			return ValidationError{fmt.Sprintf("polarity.%s", et), "missing"}
		}
		switch polarity {
		case contracts.DirectionPositive, contracts.DirectionNegative,
			contracts.DirectionNeutral, contracts.DirectionUncertain:
		default:
			return ValidationError{fmt.Sprintf("polarity.%s", et), fmt.Sprintf("unknown direction %q", polarity)}
		}

		conf, ok := t.Confidence[et]
		if !ok {
			return ValidationError{fmt.Sprintf("confidence.%s", et), "missing"}
		}
		if conf < 0 || conf > 1 {
			return ValidationError{fmt.Sprintf("confidence.%s", et), "must be in [0,1]"}
		}
	}

	for sector, families := range t.SectorFamilyMultipliers {
		for fam, mult := range families {
			switch fam {
			case "sec", "fda", "press", "earnings":
			default:
				return ValidationError{fmt.Sprintf("sector_family_multipliers.%s.%s", sector, fam), "unknown family"}
			}
			if mult <= 0 || mult > 2 {
				return ValidationError{fmt.Sprintf("sector_family_multipliers.%s.%s", sector, fam), "must be in (0,2]"}
			}
		}
	}

	if t.Duplicate.PenaltyPerHit < 0 {
		return ValidationError{"duplicate.penalty_per_hit", "must be >= 0"}
	}
	if t.Duplicate.Cap < t.Duplicate.PenaltyPerHit {
		return ValidationError{"duplicate.cap", "must be >= penalty_per_hit"}
	}

	if t.Beta.MidThreshold >= t.Beta.HighThreshold {
		return ValidationError{"beta.mid_threshold", "must be < high_threshold"}
	}
	if t.Beta.HighBonus < 0 || t.Beta.MidBonus < 0 {
		return ValidationError{"beta", "bonuses must be >= 0"}
	}

	if t.ATR.MaxBonus < 0 {
		return ValidationError{"atr.max_bonus", "must be >= 0"}
	}

	if t.Regime.MildMovePct <= 0 || t.Regime.StrongMovePct <= t.Regime.MildMovePct {
		return ValidationError{"regime", "0 < mild_move_pct < strong_move_pct required"}
	}
	if t.Regime.StrongAdjust < t.Regime.MildAdjust {
		return ValidationError{"regime.strong_adjust", "must be >= mild_adjust"}
	}

	if t.SecondaryTierPenalty < 0 {
		return ValidationError{"secondary_tier_penalty", "must be >= 0"}
	}
	if t.MissingDataPenalty < 0 || t.MissingDataPenalty > 1 {
		return ValidationError{"missing_data_penalty", "must be in [0,1]"}
	}

	return nil
}
