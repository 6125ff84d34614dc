package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

type memCompanies struct {
	byTicker map[string]*contracts.Company
}

func (m *memCompanies) GetByTicker(ctx context.Context, ticker string) (*contracts.Company, error) {
	return m.byTicker[ticker], nil
}

func (m *memCompanies) FindByName(ctx context.Context, name string) (*contracts.Company, error) {
	for _, c := range m.byTicker {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memCompanies) ListActive(ctx context.Context) ([]*contracts.Company, error) {
	var out []*contracts.Company
	for _, c := range m.byTicker {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCompanies) Upsert(ctx context.Context, c *contracts.Company) error {
	m.byTicker[c.Ticker] = c
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "fatal", LogFormat: "json"})
}

func testDirectory() *memCompanies {
	return &memCompanies{byTicker: map[string]*contracts.Company{
		"ACME": {Ticker: "ACME", Name: "Acme Pharmaceuticals Inc", Sector: "biotech", Active: true},
	}}
}

func validRaw() contracts.RawRecord {
	return contracts.RawRecord{
		Ticker:      "ACME",
		EventType:   contracts.EventSEC8K,
		Title:       "Material Definitive Agreement",
		EventDate:   time.Date(2025, 8, 20, 13, 0, 0, 0, time.UTC),
		URL:         "https://www.sec.gov/Archives/acme-8k.htm",
		InfoTier:    contracts.TierPrimary,
		InfoSubtype: "8-K",
	}
}

func TestNormalizeValidRecord(t *testing.T) {
	n := NewNormalizer(testDirectory(), testLogger())

	event, err := n.Normalize(context.Background(), validRaw(), "edgar")
	require.NoError(t, err)

	assert.Equal(t, "ACME", event.Ticker)
	assert.Equal(t, "edgar", event.Source)
	assert.Equal(t, contracts.TierPrimary, event.InfoTier)
	assert.NotEmpty(t, event.Fingerprint)
	assert.Equal(t, "biotech", event.Sector, "sector backfilled from the directory")
	assert.Equal(t, "Acme Pharmaceuticals Inc", event.CompanyName, "name backfilled from the directory")
}

func TestNormalizeResolvesNameToTicker(t *testing.T) {
	n := NewNormalizer(testDirectory(), testLogger())

	raw := validRaw()
	raw.Ticker = ""
	raw.CompanyName = "Acme Pharmaceuticals Inc"
	raw.EventType = contracts.EventFDAApproval
	raw.Title = "FDA approval: EXEMPLAR"

	event, err := n.Normalize(context.Background(), raw, "fda")
	require.NoError(t, err)

	assert.Equal(t, "ACME", event.Ticker)
	assert.Equal(t, "biotech", event.Sector)
}

func TestNormalizeUppercasesTicker(t *testing.T) {
	n := NewNormalizer(testDirectory(), testLogger())

	raw := validRaw()
	raw.Ticker = " acme "

	event, err := n.Normalize(context.Background(), raw, "edgar")
	require.NoError(t, err)
	assert.Equal(t, "ACME", event.Ticker)
}

func TestNormalizeDefaultsTierToSecondary(t *testing.T) {
	n := NewNormalizer(testDirectory(), testLogger())

	raw := validRaw()
	raw.InfoTier = ""

	event, err := n.Normalize(context.Background(), raw, "edgar")
	require.NoError(t, err)
	assert.Equal(t, contracts.TierSecondary, event.InfoTier)
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*contracts.RawRecord)
		reason string
	}{
		{
			name:   "no ticker and unknown name",
			mutate: func(r *contracts.RawRecord) { r.Ticker = ""; r.CompanyName = "Unknown Widgets LLC" },
			reason: "no resolvable ticker",
		},
		{
			name:   "no ticker and no name",
			mutate: func(r *contracts.RawRecord) { r.Ticker = ""; r.CompanyName = "" },
			reason: "no resolvable ticker",
		},
		{
			name:   "malformed ticker",
			mutate: func(r *contracts.RawRecord) { r.Ticker = "TOOLONGTICKER" },
			reason: "malformed ticker",
		},
		{
			name:   "missing date",
			mutate: func(r *contracts.RawRecord) { r.EventDate = time.Time{} },
			reason: "missing event date",
		},
		{
			name:   "empty title",
			mutate: func(r *contracts.RawRecord) { r.Title = "   " },
			reason: "empty title",
		},
		{
			name:   "unknown event type",
			mutate: func(r *contracts.RawRecord) { r.EventType = "stock_split" },
			reason: "unknown event type",
		},
	}

	n := NewNormalizer(testDirectory(), testLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)

			_, err := n.Normalize(context.Background(), raw, "edgar")
			require.Error(t, err)

			var rej *RejectError
			require.True(t, errors.As(err, &rej), "rejections must be typed, got %v", err)
			assert.Contains(t, rej.Reason, tt.reason)
		})
	}
}
