package interfaces

import (
	"context"

	"casino/domain/entities"

	"github.com/shopspring/decimal"
)

// WalletService owns every mutation of wallet balance fields. All methods
// run inside the caller's unit of work and serialize on the wallet row.
type WalletService interface {
	// ReserveStake locks amount against the wallet. Idempotent per betID:
	// replaying an existing reservation is a no-op.
	ReserveStake(ctx context.Context, walletID, betID string, amount decimal.Decimal) error

	// SettleStake releases the reservation and consumes the stake from the
	// balance. bonusPortion is the bonus-funded share of the stake, burned
	// from bonusBalance here (bonus is consumed only through play).
	// Exactly once per bet, paired with ReserveStake.
	SettleStake(ctx context.Context, walletID, betID string, amount, bonusPortion decimal.Decimal) error

	// Credit adds amount to the wallet. PortionBonus keeps the credited
	// funds sticky by raising bonusBalance alongside balance.
	Credit(ctx context.Context, walletID string, amount decimal.Decimal, portion entities.CreditPortion, txType entities.TransactionType, relatedBetID *string) error

	// DebitForWithdrawal removes amount after the withdrawal guard passes,
	// inside the same transaction as the guard evaluation.
	DebitForWithdrawal(ctx context.Context, walletID string, amount decimal.Decimal) error

	// GetWithdrawable returns the total/bonus/locked/withdrawable
	// breakdown. The withdrawable figure applies the same formula as the
	// withdrawal guard, so a pre-flight check never overstates what a
	// withdrawal will accept.
	GetWithdrawable(ctx context.Context, walletID string) (*entities.WithdrawableView, error)
}

// SettlementService drives the per-bet state machine
// INIT -> STAKE_RESERVED -> OUTCOME_RESOLVED -> SETTLED -> DISTRIBUTED.
type SettlementService interface {
	// PlaceBet validates parameters, reserves the stake and creates the
	// pending bet plus, for multi-step games, an active session.
	PlaceBet(ctx context.Context, req entities.PlaceBetRequest) (*entities.BetResult, error)

	// ResolveSingleShot resolves and settles a one-decision bet.
	ResolveSingleShot(ctx context.Context, betID string) (*entities.BetResult, error)

	// RevealStep applies one reveal to an active multi-step session.
	RevealStep(ctx context.Context, gameID string, position int) (*entities.SessionView, error)

	// CashOut settles an active session at its current multiplier.
	CashOut(ctx context.Context, gameID string) (*entities.SessionView, error)
}

// FairnessService derives provably fair outcomes from committed seeds.
// Pure given its inputs; identical inputs always yield identical outcomes.
type FairnessService interface {
	// NewServerSeed generates a fresh server seed and its commitment hash.
	NewServerSeed() (seed, hash string, err error)

	// Outcome derives a uniform float in [0,1) from the seed triple and
	// step index.
	Outcome(serverSeed, clientSeed string, nonce int64, step int) float64

	// MinePositions fixes the full hazard map for a mines session.
	MinePositions(serverSeed, clientSeed string, nonce int64, tiles, mines int) []int
}

// DistributionService fans the house-edge share of a settled bet out to
// VIP progression, the tenant reward pool and affiliate commission.
// Idempotent per betID; never reverses settlement on failure.
type DistributionService interface {
	Distribute(ctx context.Context, bet *entities.Bet) error

	// ClaimRewardPool decrements the tenant's distributable pot for an
	// externally triggered rakeback payout. Over-claims are rejected.
	ClaimRewardPool(ctx context.Context, amount decimal.Decimal) (*entities.RewardPoolAccount, error)
}
