package contracts

import (
	"fmt"
	"regexp"
	"time"
)

// Direction is the polarity of the expected price reaction to an event.
type Direction string

const (
	DirectionPositive  Direction = "positive"
	DirectionNegative  Direction = "negative"
	DirectionNeutral   Direction = "neutral"
	DirectionUncertain Direction = "uncertain"
)

// InfoTier classifies the authority of an event's source material.
// Primary means a regulatory or issuer-originated document; secondary means
// third-party reporting about one.
type InfoTier string

const (
	TierPrimary   InfoTier = "primary"
	TierSecondary InfoTier = "secondary"
)

// ModelSource records which scoring path produced the adjusted score.
type ModelSource string

const (
	SourceDeterministic  ModelSource = "deterministic"
	SourceFamilySpecific ModelSource = "family-specific"
	SourceGlobal         ModelSource = "global"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{1,6}$`)

// ValidTicker reports whether s is an uppercase 1-6 char alphanumeric ticker.
func ValidTicker(s string) bool {
	return tickerPattern.MatchString(s)
}

// Event is the canonical unit flowing through the pipeline: one market-moving
// occurrence for one ticker, identified by its content fingerprint.
type Event struct {
	ID          int64     `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Ticker      string    `json:"ticker"`
	CompanyName string    `json:"company_name,omitempty"`
	EventType   EventType `json:"event_type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	EventDate   time.Time `json:"event_date"`
	Source      string    `json:"source"`
	SourceURL   string    `json:"source_url,omitempty"`
	Sector      string    `json:"sector,omitempty"`
	InfoTier    InfoTier  `json:"info_tier"`
	InfoSubtype string    `json:"info_subtype,omitempty"`

	// Scoring sub-record. Replaced as a unit on rescore; prior values are
	// appended to the score history table.
	ImpactScore int       `json:"impact_score"`
	Direction   Direction `json:"direction"`
	Confidence  float64   `json:"confidence"`
	Rationale   []string  `json:"rationale"`
	PMove       float64   `json:"p_move"`
	PUp         float64   `json:"p_up"`
	PDown       float64   `json:"p_down"`

	// Bearish sub-signal, populated for negative-polarity results.
	BearishSignal     bool     `json:"bearish_signal"`
	BearishScore      int      `json:"bearish_score,omitempty"`
	BearishConfidence float64  `json:"bearish_confidence,omitempty"`
	BearishRationale  []string `json:"bearish_rationale,omitempty"`

	// Model blend fields. Nil/empty when the deterministic path was used.
	MLAdjustedScore *float64    `json:"ml_adjusted_score,omitempty"`
	MLConfidence    *float64    `json:"ml_confidence,omitempty"`
	MLModelVersion  string      `json:"ml_model_version,omitempty"`
	ModelSource     ModelSource `json:"model_source"`
	DeltaApplied    float64     `json:"delta_applied"`

	ScoredAt  time.Time `json:"scored_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the invariants every stored Event must satisfy.
func (e *Event) Validate() error {
	if !ValidTicker(e.Ticker) {
		return fmt.Errorf("invalid ticker %q", e.Ticker)
	}
	if e.Title == "" {
		return fmt.Errorf("empty title")
	}
	if e.EventDate.IsZero() {
		return fmt.Errorf("missing event date")
	}
	if e.ImpactScore < 0 || e.ImpactScore > 100 {
		return fmt.Errorf("impact score %d out of range [0,100]", e.ImpactScore)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of range [0,1]", e.Confidence)
	}
	if e.ModelSource != "" && e.ModelSource != SourceDeterministic && e.MLAdjustedScore == nil {
		return fmt.Errorf("model source %s without adjusted score", e.ModelSource)
	}
	return nil
}

// HasModelScore reports whether a model adjustment was applied.
func (e *Event) HasModelScore() bool {
	return e.ModelSource != "" && e.ModelSource != SourceDeterministic && e.MLAdjustedScore != nil
}

// DisplayScore returns the score consumers should prefer: the model-adjusted
// score when one exists, the deterministic score otherwise.
func (e *Event) DisplayScore() float64 {
	if e.HasModelScore() {
		return *e.MLAdjustedScore
	}
	return float64(e.ImpactScore)
}
