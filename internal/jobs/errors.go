// Package jobs owns the scan job queue: admission (admin gate + cooldown),
// the Postgres-backed queue, and the worker pool that drains it.
package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// ErrForbidden rejects enqueue requests from non-admin callers.
var ErrForbidden = errors.New("admin role required")

// ErrInvalidRequest marks admission failures caused by the request itself,
// as opposed to queue or storage faults.
var ErrInvalidRequest = errors.New("invalid scan request")

// CooldownError rejects an enqueue inside the per-scope cooldown window.
// RetryAfter tells the caller when the window reopens.
type CooldownError struct {
	Scope      contracts.JobScope
	Key        string
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s %s is cooling down, retry in %s", e.Scope, e.Key, e.RetryAfter)
}
