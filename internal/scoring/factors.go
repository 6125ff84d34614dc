// Package scoring implements the deterministic impact scorer: a pure
// function from (event, market context) to a bounded score, direction,
// confidence, and an auditable factor-by-factor rationale. All tunables
// live in the factor table, overridable from a YAML file.
package scoring

import "github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"

// FactorTable holds every tunable the scorer consumes. The zero value is
// unusable; start from Defaults or a validated YAML file.
type FactorTable struct {
	Version string `yaml:"version" json:"version"`

	// Base is the starting score per event type, 0-100.
	Base map[contracts.EventType]int `yaml:"base_scores" json:"base_scores"`

	// Polarity is the canonical direction per event type.
	Polarity map[contracts.EventType]contracts.Direction `yaml:"polarity" json:"polarity"`

	// Confidence is the per-type confidence baseline, 0-1.
	Confidence map[contracts.EventType]float64 `yaml:"confidence" json:"confidence"`

	// SectorFamilyMultipliers scales the base score per (sector, event
	// family). Families are "sec", "fda", "press", "earnings". Missing
	// entries mean 1.0.
	SectorFamilyMultipliers map[string]map[string]float64 `yaml:"sector_family_multipliers" json:"sector_family_multipliers"`

	Duplicate DuplicateFactor `yaml:"duplicate" json:"duplicate"`
	Beta      BetaFactor      `yaml:"beta" json:"beta"`
	ATR       ATRFactor       `yaml:"atr" json:"atr"`
	Regime    RegimeFactor    `yaml:"regime" json:"regime"`

	// SecondaryTierPenalty docks secondary-source events, applied inside
	// the deterministic score before any model delta.
	SecondaryTierPenalty int `yaml:"secondary_tier_penalty" json:"secondary_tier_penalty"`

	// MissingDataPenalty is the confidence reduction at zero context
	// completeness, scaled linearly to zero at full completeness.
	MissingDataPenalty float64 `yaml:"missing_data_penalty" json:"missing_data_penalty"`
}

// DuplicateFactor penalizes clusters of near-identical events.
type DuplicateFactor struct {
	PenaltyPerHit int `yaml:"penalty_per_hit" json:"penalty_per_hit"`
	Cap           int `yaml:"cap" json:"cap"`
}

// BetaFactor rewards high-beta names, where the same event moves the price
// more.
type BetaFactor struct {
	HighThreshold float64 `yaml:"high_threshold" json:"high_threshold"`
	HighBonus     int     `yaml:"high_bonus" json:"high_bonus"`
	MidThreshold  float64 `yaml:"mid_threshold" json:"mid_threshold"`
	MidBonus      int     `yaml:"mid_bonus" json:"mid_bonus"`
}

// ATRFactor interpolates a bonus across the volatility percentile range.
type ATRFactor struct {
	MaxBonus int `yaml:"max_bonus" json:"max_bonus"`
}

// RegimeFactor adjusts bullish events by the benchmark's trailing 5-day
// move, banded and bounded.
type RegimeFactor struct {
	StrongMovePct float64 `yaml:"strong_move_pct" json:"strong_move_pct"`
	StrongAdjust  int     `yaml:"strong_adjust" json:"strong_adjust"`
	MildMovePct   float64 `yaml:"mild_move_pct" json:"mild_move_pct"`
	MildAdjust    int     `yaml:"mild_adjust" json:"mild_adjust"`
}

// Defaults returns the built-in factor table.
func Defaults() *FactorTable {
	return &FactorTable{
		Version: "builtin-1",

		Base: map[contracts.EventType]int{
			contracts.EventSEC8K:  55,
			contracts.EventSEC10K: 30,
			contracts.EventSEC10Q: 25,
			contracts.EventSECS1:  45,
			contracts.EventSEC13D: 60,

			contracts.EventFDAApproval:  80,
			contracts.EventFDARejection: 75,
			contracts.EventFDAClearance: 60,
			contracts.EventFDARecall:    65,

			contracts.EventProductLaunch:   50,
			contracts.EventPartnership:     45,
			contracts.EventMergerAcq:       75,
			contracts.EventLawsuit:         50,
			contracts.EventExecutiveChange: 40,

			contracts.EventEarnings:      50,
			contracts.EventGuidanceRaise: 65,
			contracts.EventGuidanceCut:   70,
		},

		Polarity: map[contracts.EventType]contracts.Direction{
			contracts.EventSEC8K:  contracts.DirectionUncertain,
			contracts.EventSEC10K: contracts.DirectionNeutral,
			contracts.EventSEC10Q: contracts.DirectionNeutral,
			contracts.EventSECS1:  contracts.DirectionUncertain,
			contracts.EventSEC13D: contracts.DirectionPositive,

			contracts.EventFDAApproval:  contracts.DirectionPositive,
			contracts.EventFDARejection: contracts.DirectionNegative,
			contracts.EventFDAClearance: contracts.DirectionPositive,
			contracts.EventFDARecall:    contracts.DirectionNegative,

			contracts.EventProductLaunch:   contracts.DirectionPositive,
			contracts.EventPartnership:     contracts.DirectionPositive,
			contracts.EventMergerAcq:       contracts.DirectionPositive,
			contracts.EventLawsuit:         contracts.DirectionNegative,
			contracts.EventExecutiveChange: contracts.DirectionUncertain,

			contracts.EventEarnings:      contracts.DirectionUncertain,
			contracts.EventGuidanceRaise: contracts.DirectionPositive,
			contracts.EventGuidanceCut:   contracts.DirectionNegative,
		},

		Confidence: map[contracts.EventType]float64{
			contracts.EventSEC8K:  0.50,
			contracts.EventSEC10K: 0.60,
			contracts.EventSEC10Q: 0.60,
			contracts.EventSECS1:  0.55,
			contracts.EventSEC13D: 0.70,

			contracts.EventFDAApproval:  0.85,
			contracts.EventFDARejection: 0.85,
			contracts.EventFDAClearance: 0.70,
			contracts.EventFDARecall:    0.75,

			contracts.EventProductLaunch:   0.50,
			contracts.EventPartnership:     0.50,
			contracts.EventMergerAcq:       0.70,
			contracts.EventLawsuit:         0.55,
			contracts.EventExecutiveChange: 0.45,

			contracts.EventEarnings:      0.60,
			contracts.EventGuidanceRaise: 0.75,
			contracts.EventGuidanceCut:   0.80,
		},

		SectorFamilyMultipliers: map[string]map[string]float64{
			"biotech":    {"fda": 1.25, "press": 1.05},
			"pharma":     {"fda": 1.20},
			"medical":    {"fda": 1.15},
			"technology": {"press": 1.10},
			"energy":     {"sec": 1.05},
		},

		Duplicate: DuplicateFactor{PenaltyPerHit: 8, Cap: 24},

		Beta: BetaFactor{
			HighThreshold: 1.2,
			HighBonus:     8,
			MidThreshold:  0.8,
			MidBonus:      4,
		},

		ATR: ATRFactor{MaxBonus: 10},

		Regime: RegimeFactor{
			StrongMovePct: 3.0,
			StrongAdjust:  5,
			MildMovePct:   1.0,
			MildAdjust:    2,
		},

		SecondaryTierPenalty: 10,
		MissingDataPenalty:   0.20,
	}
}

// family groups event types for the sector weighting table.
func family(t contracts.EventType) string {
	switch t {
	case contracts.EventSEC8K, contracts.EventSEC10K, contracts.EventSEC10Q,
		contracts.EventSECS1, contracts.EventSEC13D:
		return "sec"
	case contracts.EventFDAApproval, contracts.EventFDARejection,
		contracts.EventFDAClearance, contracts.EventFDARecall:
		return "fda"
	case contracts.EventEarnings, contracts.EventGuidanceRaise, contracts.EventGuidanceCut:
		return "earnings"
	default:
		return "press"
	}
}
