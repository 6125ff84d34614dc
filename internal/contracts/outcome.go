package contracts

import "time"

// OutcomeHorizons are the trading-day horizons the labeler computes, in days.
var OutcomeHorizons = []int{1, 5, 20}

// EventOutcome records the realized price behavior following an Event over
// one horizon. Rows are append-only: once computed they are never updated,
// preserving training-data integrity. Outcomes reference events by id only;
// deleting an outcome never touches the event.
type EventOutcome struct {
	EventID     int64     `json:"event_id"`
	HorizonDays int       `json:"horizon_days"`
	PriceBefore float64   `json:"price_before"`
	PriceAfter  float64   `json:"price_after"`
	BenchBefore float64   `json:"benchmark_before"`
	BenchAfter  float64   `json:"benchmark_after"`
	RawReturn   float64   `json:"raw_return_pct"`
	BenchReturn float64   `json:"benchmark_return_pct"`
	AbnormalRet float64   `json:"abnormal_return_pct"`
	DirCorrect  bool      `json:"direction_correct"`
	ComputedAt  time.Time `json:"computed_at"`
}

// Derive fills the return fields from the four prices and judges whether the
// event's predicted direction matched the abnormal move.
func (o *EventOutcome) Derive(predicted Direction) {
	if o.PriceBefore > 0 {
		o.RawReturn = (o.PriceAfter - o.PriceBefore) / o.PriceBefore * 100
	}
	if o.BenchBefore > 0 {
		o.BenchReturn = (o.BenchAfter - o.BenchBefore) / o.BenchBefore * 100
	}
	o.AbnormalRet = o.RawReturn - o.BenchReturn

	switch predicted {
	case DirectionPositive:
		o.DirCorrect = o.AbnormalRet > 0
	case DirectionNegative:
		o.DirCorrect = o.AbnormalRet < 0
	default:
		// Neutral and uncertain calls count as correct when the abnormal
		// move stayed small either way.
		o.DirCorrect = o.AbnormalRet > -1.0 && o.AbnormalRet < 1.0
	}
}

// OutcomeSummary aggregates labeled outcomes per event type for one horizon.
type OutcomeSummary struct {
	EventType      EventType `json:"event_type"`
	HorizonDays    int       `json:"horizon_days"`
	Samples        int       `json:"samples"`
	HitRate        float64   `json:"hit_rate"`
	AvgAbnormalRet float64   `json:"avg_abnormal_return_pct"`
}
