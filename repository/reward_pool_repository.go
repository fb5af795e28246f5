package repository

import (
	"context"
	"fmt"

	"casino/database"
	"casino/domain/entities"
	"casino/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type rewardPoolRepository struct {
	q        Queryable
	tenantID string
}

// NewRewardPoolRepository creates a new reward pool repository
func NewRewardPoolRepository(db *database.DB, tenantID string) interfaces.RewardPoolRepository {
	return &rewardPoolRepository{q: db.Pool, tenantID: tenantID}
}

// newRewardPoolRepository creates a new reward pool repository with a transaction and tenant scope
func newRewardPoolRepository(tx Queryable, tenantID string) interfaces.RewardPoolRepository {
	return &rewardPoolRepository{
		q:        tx,
		tenantID: tenantID,
	}
}

func scanRewardPool(row pgx.Row) (*entities.RewardPoolAccount, error) {
	var pool entities.RewardPoolAccount
	err := row.Scan(
		&pool.TenantID,
		&pool.AccumulatedContributions,
		&pool.Distributable,
		&pool.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// GetOrCreateForUpdate upserts the tenant's pool row and holds its lock.
// Every distribution in the tenant serializes on this row.
func (r *rewardPoolRepository) GetOrCreateForUpdate(ctx context.Context) (*entities.RewardPoolAccount, error) {
	insert := `
		INSERT INTO reward_pools (tenant_id)
		VALUES ($1)
		ON CONFLICT (tenant_id) DO NOTHING`

	if _, err := r.q.Exec(ctx, insert, r.tenantID); err != nil {
		return nil, fmt.Errorf("failed to ensure reward pool: %w", err)
	}

	query := `
		SELECT tenant_id, accumulated_contributions, distributable, updated_at
		FROM reward_pools
		WHERE tenant_id = $1
		FOR UPDATE`

	pool, err := scanRewardPool(r.q.QueryRow(ctx, query, r.tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock reward pool: %w", err)
	}
	return pool, nil
}

func (r *rewardPoolRepository) Get(ctx context.Context) (*entities.RewardPoolAccount, error) {
	query := `
		SELECT tenant_id, accumulated_contributions, distributable, updated_at
		FROM reward_pools
		WHERE tenant_id = $1`

	pool, err := scanRewardPool(r.q.QueryRow(ctx, query, r.tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to get reward pool: %w", err)
	}
	if pool == nil {
		return &entities.RewardPoolAccount{TenantID: r.tenantID}, nil
	}
	return pool, nil
}

func (r *rewardPoolRepository) Update(ctx context.Context, pool *entities.RewardPoolAccount) error {
	query := `
		UPDATE reward_pools
		SET accumulated_contributions = $1, distributable = $2, updated_at = NOW()
		WHERE tenant_id = $3`

	tag, err := r.q.Exec(ctx, query,
		pool.AccumulatedContributions,
		pool.Distributable,
		r.tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reward pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reward pool for tenant %s not found", r.tenantID)
	}
	return nil
}
