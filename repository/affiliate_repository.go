package repository

import (
	"context"
	"fmt"

	"casino/database"
	"casino/domain/entities"
	"casino/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type affiliateRepository struct {
	q        Queryable
	tenantID string
}

// NewAffiliateRepository creates a new affiliate repository
func NewAffiliateRepository(db *database.DB, tenantID string) interfaces.AffiliateRepository {
	return &affiliateRepository{q: db.Pool, tenantID: tenantID}
}

// newAffiliateRepository creates a new affiliate repository with a transaction and tenant scope
func newAffiliateRepository(tx Queryable, tenantID string) interfaces.AffiliateRepository {
	return &affiliateRepository{
		q:        tx,
		tenantID: tenantID,
	}
}

func (r *affiliateRepository) CreateEntry(ctx context.Context, entry *entities.AffiliateEntry) error {
	query := `
		INSERT INTO affiliate_entries (tenant_id, referrer_id, referred_user_id, source_bet_id, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		r.tenantID,
		entry.ReferrerID,
		entry.ReferredUserID,
		entry.SourceBetID,
		entry.Amount,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create affiliate entry: %w", err)
	}

	return nil
}

func (r *affiliateRepository) GetReferrer(ctx context.Context, userID string) (*entities.Referral, error) {
	query := `
		SELECT tenant_id, referred_user_id, referrer_id, created_at
		FROM referrals
		WHERE tenant_id = $1 AND referred_user_id = $2`

	var referral entities.Referral
	err := r.q.QueryRow(ctx, query, r.tenantID, userID).Scan(
		&referral.TenantID,
		&referral.UserID,
		&referral.ReferrerID,
		&referral.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referrer: %w", err)
	}

	return &referral, nil
}

func (r *affiliateRepository) GetEntriesByReferrer(ctx context.Context, referrerID string, limit int) ([]*entities.AffiliateEntry, error) {
	query := `
		SELECT id, tenant_id, referrer_id, referred_user_id, source_bet_id, amount, created_at
		FROM affiliate_entries
		WHERE tenant_id = $1 AND referrer_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.q.Query(ctx, query, r.tenantID, referrerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query affiliate entries: %w", err)
	}
	defer rows.Close()

	var entries []*entities.AffiliateEntry
	for rows.Next() {
		var entry entities.AffiliateEntry
		err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.ReferrerID,
			&entry.ReferredUserID,
			&entry.SourceBetID,
			&entry.Amount,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan affiliate entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

func (r *affiliateRepository) TotalCommission(ctx context.Context, referrerID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM affiliate_entries
		WHERE tenant_id = $1 AND referrer_id = $2`

	var total decimal.Decimal
	err := r.q.QueryRow(ctx, query, r.tenantID, referrerID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum commission: %w", err)
	}

	return total, nil
}
