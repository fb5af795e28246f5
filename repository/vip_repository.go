package repository

import (
	"context"
	"fmt"

	"casino/database"
	"casino/domain/entities"
	"casino/domain/interfaces"
)

type vipRepository struct {
	q        Queryable
	tenantID string
}

// NewVIPRepository creates a new VIP progression repository
func NewVIPRepository(db *database.DB, tenantID string) interfaces.VIPRepository {
	return &vipRepository{q: db.Pool, tenantID: tenantID}
}

// newVIPRepository creates a new VIP progression repository with a transaction and tenant scope
func newVIPRepository(tx Queryable, tenantID string) interfaces.VIPRepository {
	return &vipRepository{
		q:        tx,
		tenantID: tenantID,
	}
}

// GetOrCreateForUpdate upserts the user's progress row and holds its lock
// so concurrent settlements accrue XP serially.
func (r *vipRepository) GetOrCreateForUpdate(ctx context.Context, userID string) (*entities.VIPProgress, error) {
	insert := `
		INSERT INTO vip_progress (tenant_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id, user_id) DO NOTHING`

	if _, err := r.q.Exec(ctx, insert, r.tenantID, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure vip progress: %w", err)
	}

	query := `
		SELECT tenant_id, user_id, xp, level, updated_at
		FROM vip_progress
		WHERE tenant_id = $1 AND user_id = $2
		FOR UPDATE`

	var progress entities.VIPProgress
	err := r.q.QueryRow(ctx, query, r.tenantID, userID).Scan(
		&progress.TenantID,
		&progress.UserID,
		&progress.XP,
		&progress.Level,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock vip progress: %w", err)
	}

	return &progress, nil
}

func (r *vipRepository) Update(ctx context.Context, progress *entities.VIPProgress) error {
	query := `
		UPDATE vip_progress
		SET xp = $1, level = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND user_id = $4`

	tag, err := r.q.Exec(ctx, query,
		progress.XP,
		progress.Level,
		r.tenantID,
		progress.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update vip progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vip progress for user %s not found", progress.UserID)
	}
	return nil
}
