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

type betRepository struct {
	q        Queryable
	tenantID string
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB, tenantID string) interfaces.BetRepository {
	return &betRepository{q: db.Pool, tenantID: tenantID}
}

// newBetRepository creates a new bet repository with a transaction and tenant scope
func newBetRepository(tx Queryable, tenantID string) interfaces.BetRepository {
	return &betRepository{
		q:        tx,
		tenantID: tenantID,
	}
}

const betColumns = `id, tenant_id, user_id, wallet_id, currency, game_type, stake, bonus_stake,
	status, outcome, multiplier, payout, seed_pair_id, nonce, distributed, game_params,
	created_at, settled_at`

func scanBet(row pgx.Row) (*entities.Bet, error) {
	var bet entities.Bet
	err := row.Scan(
		&bet.ID,
		&bet.TenantID,
		&bet.UserID,
		&bet.WalletID,
		&bet.Currency,
		&bet.GameType,
		&bet.Stake,
		&bet.BonusStake,
		&bet.Status,
		&bet.Outcome,
		&bet.Multiplier,
		&bet.Payout,
		&bet.SeedPairID,
		&bet.Nonce,
		&bet.Distributed,
		&bet.GameParams,
		&bet.CreatedAt,
		&bet.SettledAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

func (r *betRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (id, tenant_id, user_id, wallet_id, currency, game_type, stake,
			bonus_stake, status, outcome, multiplier, payout, seed_pair_id, nonce, game_params)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at`

	err := r.q.QueryRow(ctx, query,
		bet.ID,
		r.tenantID,
		bet.UserID,
		bet.WalletID,
		bet.Currency,
		bet.GameType,
		bet.Stake,
		bet.BonusStake,
		bet.Status,
		bet.Outcome,
		bet.Multiplier,
		bet.Payout,
		bet.SeedPairID,
		bet.Nonce,
		bet.GameParams,
	).Scan(&bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return nil
}

func (r *betRepository) GetByID(ctx context.Context, id string) (*entities.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE id = $1 AND tenant_id = $2`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id, r.tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	return bet, nil
}

func (r *betRepository) Update(ctx context.Context, bet *entities.Bet) error {
	query := `
		UPDATE bets
		SET status = $1, outcome = $2, multiplier = $3, payout = $4, distributed = $5, settled_at = $6
		WHERE id = $7 AND tenant_id = $8`

	tag, err := r.q.Exec(ctx, query,
		bet.Status,
		bet.Outcome,
		bet.Multiplier,
		bet.Payout,
		bet.Distributed,
		bet.SettledAt,
		bet.ID,
		r.tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %s not found", bet.ID)
	}
	return nil
}

func (r *betRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*entities.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.q.Query(ctx, query, r.tenantID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()

	return collectBets(rows)
}

func (r *betRepository) GetUndistributed(ctx context.Context, limit int) ([]*entities.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE tenant_id = $1 AND status IN ('won', 'lost') AND NOT distributed
		ORDER BY created_at
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, r.tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query undistributed bets: %w", err)
	}
	defer rows.Close()

	return collectBets(rows)
}

func (r *betRepository) GetStuckPending(ctx context.Context, cutoff time.Time) ([]*entities.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE tenant_id = $1 AND status = 'pending' AND created_at < $2
		ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, r.tenantID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck bets: %w", err)
	}
	defer rows.Close()

	return collectBets(rows)
}

func collectBets(rows pgx.Rows) ([]*entities.Bet, error) {
	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bets: %w", err)
	}
	return bets, nil
}
