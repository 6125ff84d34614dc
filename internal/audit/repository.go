// Package audit persists admission-control decisions. Every scan request,
// whether accepted, rejected, or throttled, leaves a row here.
package audit

import (
	"context"
	"fmt"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/database"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// Repository implements contracts.AuditRepository over radar.audit_log.
type Repository struct {
	pool database.Pool
}

// NewRepository creates the audit repository.
func NewRepository(pool database.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record appends one decision. The entry's ID and CreatedAt are filled from
// the inserted row.
func (r *Repository) Record(ctx context.Context, entry *contracts.AuditEntry) error {
	query := `
		INSERT INTO radar.audit_log (actor, action, scope, scope_key, decision, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		entry.Actor, entry.Action, entry.Scope, entry.ScopeKey,
		entry.Decision, entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	return nil
}

// ListRecent returns the newest entries first. A non-positive limit falls
// back to the default; oversized limits are clamped.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*contracts.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	query := `
		SELECT id, actor, action, scope, scope_key, decision, detail, created_at
		FROM radar.audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]*contracts.AuditEntry, 0)
	for rows.Next() {
		var entry contracts.AuditEntry
		err := rows.Scan(
			&entry.ID, &entry.Actor, &entry.Action, &entry.Scope,
			&entry.ScopeKey, &entry.Decision, &entry.Detail, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}
