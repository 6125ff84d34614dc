package contracts

import "time"

// MarketContext carries the optional market-data signals the scoring engine
// consumes. Every field except Ticker is best-effort: a nil pointer means
// the signal could not be computed, and scoring degrades confidence instead
// of failing.
type MarketContext struct {
	Ticker string `json:"ticker"`
	Sector string `json:"sector,omitempty"`

	// Beta is the 60-day rolling beta versus the benchmark index.
	Beta *float64 `json:"beta,omitempty"`

	// ATRPercentile places the 14-day average true range within the
	// ticker's own 200-day distribution. Historic producers emitted both
	// 0-1 fractions and 0-100 percentiles; consumers must normalize.
	ATRPercentile *float64 `json:"atr_percentile,omitempty"`

	// Benchmark trailing returns, in percent.
	Bench1D  *float64 `json:"benchmark_1d,omitempty"`
	Bench5D  *float64 `json:"benchmark_5d,omitempty"`
	Bench20D *float64 `json:"benchmark_20d,omitempty"`

	// RecentSimilarCount is how many events of the same (ticker, type)
	// were ingested within the trailing duplicate-penalty window.
	RecentSimilarCount int `json:"recent_similar_count"`

	AsOf time.Time `json:"as_of"`
}

// Completeness returns the fraction of optional market signals present,
// in [0,1]. Used to degrade scoring confidence when inputs are missing.
func (c *MarketContext) Completeness() float64 {
	if c == nil {
		return 0
	}
	present := 0
	for _, p := range []*float64{c.Beta, c.ATRPercentile, c.Bench5D} {
		if p != nil {
			present++
		}
	}
	return float64(present) / 3.0
}

// Float64 returns a pointer to v. Helper for building contexts in tests and
// providers.
func Float64(v float64) *float64 {
	return &v
}
