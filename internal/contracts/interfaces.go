package contracts

import "context"

// Publisher fans newly scored events out to live subscribers. The ingestion
// pipeline publishes through this interface so it never depends on the hub
// implementation.
type Publisher interface {
	Publish(event *Event)
}

// ContextProvider supplies market context for scoring. Implementations are
// best-effort: a partially filled context with a nil error is the expected
// result when history is thin.
type ContextProvider interface {
	Context(ctx context.Context, ticker string) (*MarketContext, error)
}
