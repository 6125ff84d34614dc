package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// NormalizeTitle lowercases a title and collapses punctuation and whitespace
// runs to single spaces, so trivial formatting differences between refetches
// of the same upstream item produce the same fingerprint.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingSpace := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			pendingSpace = false
			continue
		}
		pendingSpace = true
	}

	return b.String()
}

// Fingerprint derives the content identity of an event. Stable across
// re-ingestion of the same item; an edit that changes the title or shifts
// the date to another day yields a new identity.
func Fingerprint(ticker string, eventType contracts.EventType, title string, date time.Time) string {
	payload := strings.Join([]string{
		ticker,
		string(eventType),
		NormalizeTitle(title),
		date.UTC().Format("2006-01-02"),
	}, "|")

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
