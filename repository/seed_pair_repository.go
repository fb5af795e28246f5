package repository

import (
	"context"
	"fmt"
	"time"

	"casino/database"
	"casino/domain/entities"
	"casino/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type seedPairRepository struct {
	q        Queryable
	tenantID string
}

// NewSeedPairRepository creates a new seed pair repository
func NewSeedPairRepository(db *database.DB, tenantID string) interfaces.SeedPairRepository {
	return &seedPairRepository{q: db.Pool, tenantID: tenantID}
}

// newSeedPairRepository creates a new seed pair repository with a transaction and tenant scope
func newSeedPairRepository(tx Queryable, tenantID string) interfaces.SeedPairRepository {
	return &seedPairRepository{
		q:        tx,
		tenantID: tenantID,
	}
}

const seedPairColumns = `id, tenant_id, user_id, server_seed, server_seed_hash, client_seed,
	nonce, active, revealed_at, created_at`

func scanSeedPair(row pgx.Row) (*entities.SeedPair, error) {
	var pair entities.SeedPair
	err := row.Scan(
		&pair.ID,
		&pair.TenantID,
		&pair.UserID,
		&pair.ServerSeed,
		&pair.ServerSeedHash,
		&pair.ClientSeed,
		&pair.Nonce,
		&pair.Active,
		&pair.RevealedAt,
		&pair.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (r *seedPairRepository) Create(ctx context.Context, pair *entities.SeedPair) error {
	query := `
		INSERT INTO seed_pairs (id, tenant_id, user_id, server_seed, server_seed_hash, client_seed, nonce, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.q.QueryRow(ctx, query,
		pair.ID,
		r.tenantID,
		pair.UserID,
		pair.ServerSeed,
		pair.ServerSeedHash,
		pair.ClientSeed,
		pair.Nonce,
		pair.Active,
	).Scan(&pair.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create seed pair: %w", err)
	}

	return nil
}

func (r *seedPairRepository) GetActiveByUser(ctx context.Context, userID string) (*entities.SeedPair, error) {
	query := `
		SELECT ` + seedPairColumns + `
		FROM seed_pairs
		WHERE tenant_id = $1 AND user_id = $2 AND active`

	pair, err := scanSeedPair(r.q.QueryRow(ctx, query, r.tenantID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get active seed pair: %w", err)
	}
	return pair, nil
}

func (r *seedPairRepository) GetByID(ctx context.Context, id string) (*entities.SeedPair, error) {
	query := `
		SELECT ` + seedPairColumns + `
		FROM seed_pairs
		WHERE id = $1 AND tenant_id = $2`

	pair, err := scanSeedPair(r.q.QueryRow(ctx, query, id, r.tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to get seed pair: %w", err)
	}
	return pair, nil
}

// IncrementNonce advances the nonce atomically in the database so
// concurrent placements never share an outcome.
func (r *seedPairRepository) IncrementNonce(ctx context.Context, id string) (int64, error) {
	query := `
		UPDATE seed_pairs
		SET nonce = nonce + 1
		WHERE id = $1 AND tenant_id = $2
		RETURNING nonce`

	var nonce int64
	err := r.q.QueryRow(ctx, query, id, r.tenantID).Scan(&nonce)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("seed pair %s not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment nonce: %w", err)
	}
	return nonce, nil
}

func (r *seedPairRepository) Retire(ctx context.Context, id string, revealedAt time.Time) error {
	query := `
		UPDATE seed_pairs
		SET active = FALSE, revealed_at = $1
		WHERE id = $2 AND tenant_id = $3 AND active`

	tag, err := r.q.Exec(ctx, query, revealedAt, id, r.tenantID)
	if err != nil {
		return fmt.Errorf("failed to retire seed pair: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seed pair %s is not active", id)
	}
	return nil
}

func (r *seedPairRepository) SetClientSeed(ctx context.Context, id, clientSeed string) error {
	query := `
		UPDATE seed_pairs
		SET client_seed = $1
		WHERE id = $2 AND tenant_id = $3 AND active`

	tag, err := r.q.Exec(ctx, query, clientSeed, id, r.tenantID)
	if err != nil {
		return fmt.Errorf("failed to set client seed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seed pair %s is not active", id)
	}
	return nil
}
