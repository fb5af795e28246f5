package repository

import (
	"context"
	"fmt"

	"casino/database"
	"casino/domain/entities"
	"casino/domain/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type walletRepository struct {
	q        Queryable
	tenantID string
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB, tenantID string) interfaces.WalletRepository {
	return &walletRepository{q: db.Pool, tenantID: tenantID}
}

// newWalletRepository creates a new wallet repository with a transaction and tenant scope
func newWalletRepository(tx Queryable, tenantID string) interfaces.WalletRepository {
	return &walletRepository{
		q:        tx,
		tenantID: tenantID,
	}
}

const walletColumns = `id, tenant_id, user_id, currency, balance, bonus_balance, locked_balance, created_at, updated_at`

func scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var wallet entities.Wallet
	err := row.Scan(
		&wallet.ID,
		&wallet.TenantID,
		&wallet.UserID,
		&wallet.Currency,
		&wallet.Balance,
		&wallet.BonusBalance,
		&wallet.LockedBalance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepository) GetByID(ctx context.Context, walletID string) (*entities.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE id = $1 AND tenant_id = $2`

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, walletID, r.tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) GetByUser(ctx context.Context, userID, currency string) (*entities.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE tenant_id = $1 AND user_id = $2 AND currency = $3`

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, r.tenantID, userID, currency))
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user: %w", err)
	}
	return wallet, nil
}

// GetForUpdate locks the wallet row for the remainder of the transaction.
// Every money path serializes here.
func (r *walletRepository) GetForUpdate(ctx context.Context, walletID string) (*entities.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE`

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, walletID, r.tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) Create(ctx context.Context, userID, currency string) (*entities.Wallet, error) {
	query := `
		INSERT INTO wallets (id, tenant_id, user_id, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + walletColumns

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, uuid.New().String(), r.tenantID, userID, currency))
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) UpdateBalances(ctx context.Context, wallet *entities.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $1, bonus_balance = $2, locked_balance = $3, updated_at = NOW()
		WHERE id = $4 AND tenant_id = $5`

	tag, err := r.q.Exec(ctx, query,
		wallet.Balance,
		wallet.BonusBalance,
		wallet.LockedBalance,
		wallet.ID,
		r.tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrWalletNotFound
	}
	return nil
}

func (r *walletRepository) GetBonusStats(ctx context.Context, walletID string) (*entities.BonusStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN transaction_type IN ('payout_bonus', 'level_up_bonus', 'bonus_grant') THEN change_amount ELSE 0 END), 0) AS bonus_granted,
			COALESCE(SUM(CASE WHEN transaction_type = 'stake_settled' THEN (metadata->>'bonus_portion')::NUMERIC ELSE 0 END), 0) AS bonus_wagered
		FROM wallet_ledger
		WHERE wallet_id = $1 AND tenant_id = $2`

	stats := entities.BonusStats{WalletID: walletID}
	err := r.q.QueryRow(ctx, query, walletID, r.tenantID).Scan(
		&stats.BonusGranted,
		&stats.BonusWagered,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get bonus stats: %w", err)
	}

	wallet, err := r.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, entities.ErrWalletNotFound
	}
	stats.BonusBalance = wallet.BonusBalance

	return &stats, nil
}
