package contracts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFilter narrows an event listing. Zero values mean "no constraint".
type EventFilter struct {
	Ticker    string
	Sector    string
	EventType EventType
	Direction Direction
	InfoTier  InfoTier
	MinScore  int
	From      time.Time
	To        time.Time
	Since     time.Time // created_at cursor for stream catch-up
	Limit     int
}

// EventRepository manages the canonical event store. It is the only place
// the fingerprint uniqueness invariant is enforced.
type EventRepository interface {
	// Insert stores the event unless the fingerprint exists; atomic with
	// the uniqueness check via the storage constraint.
	Insert(ctx context.Context, event *Event) (inserted bool, id int64, err error)

	// UpdateScore replaces the score sub-record and appends the previous
	// values to the score history.
	UpdateScore(ctx context.Context, event *Event) error

	GetByID(ctx context.Context, id int64) (*Event, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*Event, error)
	List(ctx context.Context, filter EventFilter) ([]*Event, error)

	// CountRecentSimilar counts stored events with the same ticker and
	// type created after since. Feeds the duplicate penalty.
	CountRecentSimilar(ctx context.Context, ticker string, eventType EventType, since time.Time) (int, error)
}

// Company is a directory row used to resolve names, sectors, and upstream
// identifiers. CIK is the zero-padded SEC registrant number.
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
	CIK    string `json:"cik,omitempty"`
	Active bool   `json:"active"`
}

// CompanyRepository manages the ticker directory.
type CompanyRepository interface {
	GetByTicker(ctx context.Context, ticker string) (*Company, error)

	// FindByName resolves a company by case-insensitive name match,
	// nil when no unambiguous match exists.
	FindByName(ctx context.Context, name string) (*Company, error)

	ListActive(ctx context.Context) ([]*Company, error)
	Upsert(ctx context.Context, company *Company) error
}

// JobRepository manages the scan job queue.
type JobRepository interface {
	// EnqueueWithCooldown inserts the job unless another job for the same
	// (scope, key) was created inside the cooldown window. The check and
	// insert are serialized against concurrent admissions.
	EnqueueWithCooldown(ctx context.Context, job *ScanJob, cooldown time.Duration) error

	// ClaimNext atomically claims the oldest queued job and marks it
	// running. Returns nil when the queue is empty.
	ClaimNext(ctx context.Context) (*ScanJob, error)

	MarkSuccess(ctx context.Context, id uuid.UUID, itemsFound, itemsFetched int) error
	MarkError(ctx context.Context, id uuid.UUID, msg string) error

	GetByID(ctx context.Context, id uuid.UUID) (*ScanJob, error)
	List(ctx context.Context, filter JobFilter) ([]*ScanJob, error)

	// FailStale marks jobs stuck in running longer than maxAge as error.
	// Returns the number repaired.
	FailStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// OutcomeRepository manages backtest ground-truth labels.
type OutcomeRepository interface {
	// Insert appends an outcome; a duplicate (event, horizon) is an error.
	Insert(ctx context.Context, outcome *EventOutcome) error

	ListByEvent(ctx context.Context, eventID int64) ([]*EventOutcome, error)

	// PendingEvents lists scored events older than the horizon that have
	// no outcome row for it yet.
	PendingEvents(ctx context.Context, horizonDays int, asOf time.Time, limit int) ([]*Event, error)

	SummaryByEventType(ctx context.Context, horizonDays int) ([]OutcomeSummary, error)
}

// ModelAdjustment is one stored model row: a score delta learned for an
// (event_type, sector) family. The global row uses sector "*".
type ModelAdjustment struct {
	EventType   EventType `json:"event_type"`
	Sector      string    `json:"sector"`
	Delta       float64   `json:"delta"`
	Confidence  float64   `json:"confidence"`
	Version     string    `json:"version"`
	SampleCount int       `json:"sample_count"`
	TrainedAt   time.Time `json:"trained_at"`
}

// AdjustmentRepository reads the stored model. Training happens outside this
// core; rows appear via the external retraining pipeline.
type AdjustmentRepository interface {
	// Get returns the adjustment for (eventType, sector), nil when absent.
	Get(ctx context.Context, eventType EventType, sector string) (*ModelAdjustment, error)
}

// DailyPrice is one daily bar for a ticker (or the benchmark proxy).
type DailyPrice struct {
	Ticker string    `json:"ticker"`
	Day    time.Time `json:"day"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PricePoint is a (day, close) pair used by outcome labeling.
type PricePoint struct {
	Day   time.Time `json:"day"`
	Close float64   `json:"close"`
}

// PriceRepository manages daily price history.
type PriceRepository interface {
	// History returns bars for [from, to] in ascending day order.
	History(ctx context.Context, ticker string, from, to time.Time) ([]*DailyPrice, error)

	// CloseOnOrBefore returns the last close at or before day.
	CloseOnOrBefore(ctx context.Context, ticker string, day time.Time) (*PricePoint, error)

	// NthCloseAfter returns the close on the nth trading day after day,
	// counting only days with stored bars.
	NthCloseAfter(ctx context.Context, ticker string, day time.Time, n int) (*PricePoint, error)

	UpsertBatch(ctx context.Context, prices []*DailyPrice) error
}

// UserRepository resolves authenticated callers from authoritative state.
type UserRepository interface {
	// GetByAPIKeyHash returns the active caller owning the hashed key,
	// nil when unknown or deactivated.
	GetByAPIKeyHash(ctx context.Context, hash string) (*Caller, error)
}

// AuditEntry is one admission-control decision record.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Scope     string    `json:"scope"`
	ScopeKey  string    `json:"scope_key"`
	Decision  string    `json:"decision"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditRepository appends admission decisions. Append-only.
type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]*AuditEntry, error)
}
