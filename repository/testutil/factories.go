package testutil

import (
	"casino/domain/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTestSeedPair creates an active seed pair with fixed seeds so tests
// can reproduce oracle outcomes.
func CreateTestSeedPair(tenantID, userID string) *entities.SeedPair {
	return &entities.SeedPair{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		UserID:         userID,
		ServerSeed:     "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		ServerSeedHash: "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210",
		ClientSeed:     "test-client-seed",
		Active:         true,
	}
}

// CreateTestBet creates a pending dice bet with default values
func CreateTestBet(tenantID, userID, walletID, seedPairID string) *entities.Bet {
	return &entities.Bet{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		UserID:     userID,
		WalletID:   walletID,
		Currency:   "USDT",
		GameType:   entities.GameDice,
		Stake:      decimal.RequireFromString("25"),
		BonusStake: decimal.Zero,
		Status:     entities.BetPending,
		Multiplier: decimal.Zero,
		Payout:     decimal.Zero,
		SeedPairID: seedPairID,
		Nonce:      1,
		GameParams: map[string]any{"target": 50.0},
	}
}

// CreateTestBetWithStatus creates a bet in a specific status
func CreateTestBetWithStatus(tenantID, userID, walletID, seedPairID string, status entities.BetStatus) *entities.Bet {
	bet := CreateTestBet(tenantID, userID, walletID, seedPairID)
	bet.Status = status
	return bet
}
