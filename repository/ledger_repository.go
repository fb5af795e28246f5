package repository

import (
	"context"
	"fmt"

	"casino/database"
	"casino/domain/entities"
	"casino/domain/interfaces"
)

type ledgerRepository struct {
	q        Queryable
	tenantID string
}

// NewLedgerRepository creates a new wallet ledger repository
func NewLedgerRepository(db *database.DB, tenantID string) interfaces.LedgerRepository {
	return &ledgerRepository{q: db.Pool, tenantID: tenantID}
}

// newLedgerRepository creates a new wallet ledger repository with a transaction and tenant scope
func newLedgerRepository(tx Queryable, tenantID string) interfaces.LedgerRepository {
	return &ledgerRepository{
		q:        tx,
		tenantID: tenantID,
	}
}

func (r *ledgerRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	query := `
		INSERT INTO wallet_ledger (wallet_id, tenant_id, balance_before, balance_after,
			change_amount, transaction_type, related_bet_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	err := r.q.QueryRow(ctx, query,
		entry.WalletID,
		r.tenantID,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.ChangeAmount,
		entry.TransactionType,
		entry.RelatedBetID,
		metadata,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return nil
}

func (r *ledgerRepository) GetByWallet(ctx context.Context, walletID string, limit int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, wallet_id, tenant_id, balance_before, balance_after, change_amount,
			transaction_type, related_bet_id, metadata, created_at
		FROM wallet_ledger
		WHERE wallet_id = $1 AND tenant_id = $2
		ORDER BY id DESC
		LIMIT $3`

	rows, err := r.q.Query(ctx, query, walletID, r.tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		var entry entities.LedgerEntry
		err := rows.Scan(
			&entry.ID,
			&entry.WalletID,
			&entry.TenantID,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.ChangeAmount,
			&entry.TransactionType,
			&entry.RelatedBetID,
			&entry.Metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}

	return entries, nil
}
