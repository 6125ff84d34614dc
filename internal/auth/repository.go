package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/database"
)

// Repository implements contracts.UserRepository over radar.users. The table
// is written by the external billing layer; this side only reads it.
type Repository struct {
	pool database.Pool
}

// NewRepository creates the user repository.
func NewRepository(pool database.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByAPIKeyHash resolves the active caller owning the hashed key. Unknown
// or deactivated keys return nil with no error.
func (r *Repository) GetByAPIKeyHash(ctx context.Context, hash string) (*contracts.Caller, error) {
	query := `
		SELECT id, email, is_admin, plan
		FROM radar.users
		WHERE api_key_hash = $1 AND active`

	var caller contracts.Caller
	err := r.pool.QueryRow(ctx, query, hash).Scan(
		&caller.UserID, &caller.Email, &caller.IsAdmin, &caller.Plan,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve api key: %w", err)
	}

	return &caller, nil
}
