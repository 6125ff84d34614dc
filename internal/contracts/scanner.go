package contracts

import (
	"context"
	"time"
)

// RawRecord is a loosely-structured candidate event emitted by a scanner
// before normalization. Fields the upstream does not provide stay zero;
// the normalizer decides whether the record is usable.
type RawRecord struct {
	Ticker      string
	CompanyName string
	EventType   EventType
	Title       string
	Description string
	EventDate   time.Time
	URL         string
	InfoTier    InfoTier
	InfoSubtype string
}

// Scanner polls one external source for candidate events. Implementations
// are registered under their key at startup; dispatch is by registry lookup,
// never reflection.
type Scanner interface {
	// Key is the registry identifier, e.g. "edgar".
	Key() string

	// Name is the human-readable source name for listings and logs.
	Name() string

	// EventTypes lists the canonical types this scanner can emit.
	EventTypes() []EventType

	// Scan fetches the newest candidate records across the scanner's
	// coverage, in upstream-provided order.
	Scan(ctx context.Context) ([]RawRecord, error)

	// ScanTicker fetches candidate records for a single ticker.
	ScanTicker(ctx context.Context, ticker string) ([]RawRecord, error)
}
