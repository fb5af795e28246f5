package services

import (
	"context"
	"testing"

	"casino/config"
	"casino/domain/entities"
	"casino/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type settlementMocks struct {
	betRepo        *testhelpers.MockBetRepository
	sessionRepo    *testhelpers.MockGameSessionRepository
	seedRepo       *testhelpers.MockSeedPairRepository
	walletRepo     *testhelpers.MockWalletRepository
	walletService  *testhelpers.MockWalletService
	eventPublisher *testhelpers.MockEventPublisher
}

func newSettlementService(t *testing.T) (*settlementMocks, *settlementService) {
	t.Helper()
	m := &settlementMocks{
		betRepo:        new(testhelpers.MockBetRepository),
		sessionRepo:    new(testhelpers.MockGameSessionRepository),
		seedRepo:       new(testhelpers.MockSeedPairRepository),
		walletRepo:     new(testhelpers.MockWalletRepository),
		walletService:  new(testhelpers.MockWalletService),
		eventPublisher: new(testhelpers.MockEventPublisher),
	}
	service := NewSettlementService(
		m.betRepo, m.sessionRepo, m.seedRepo, m.walletRepo,
		m.walletService, NewFairnessService(), m.eventPublisher,
	).(*settlementService)
	return m, service
}

func testSeedPair() *entities.SeedPair {
	return &entities.SeedPair{
		ID:         "seed-1",
		TenantID:   "tenant-1",
		UserID:     "user-1",
		ServerSeed: "server-seed",
		ClientSeed: "client-seed",
		Active:     true,
	}
}

func TestSettlementService_PlaceBet_Mines(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)

	wallet := newTestWallet("100", "40", "0")
	m.betRepo.On("GetByID", ctx, "bet-1").Return(nil, nil)
	m.walletRepo.On("GetByUser", ctx, "user-1", "USDT").Return(wallet, nil)
	m.walletRepo.On("GetForUpdate", ctx, "wallet-1").Return(wallet, nil)
	m.sessionRepo.On("GetActiveByUser", ctx, "user-1", entities.GameMines).Return(nil, nil)
	m.seedRepo.On("GetActiveByUser", ctx, "user-1").Return(testSeedPair(), nil)
	m.seedRepo.On("IncrementNonce", ctx, "seed-1").Return(int64(5), nil)
	m.walletService.On("ReserveStake", ctx, "wallet-1", "bet-1",
		decimal.RequireFromString("60")).Return(nil)

	m.betRepo.On("Create", ctx, mock.MatchedBy(func(b *entities.Bet) bool {
		// Bonus-first funding: 40 of the 60 stake comes from sticky bonus
		return b.ID == "bet-1" &&
			b.Status == entities.BetPending &&
			b.Stake.Equal(decimal.RequireFromString("60")) &&
			b.BonusStake.Equal(decimal.RequireFromString("40")) &&
			b.Nonce == 5 &&
			b.SeedPairID == "seed-1"
	})).Return(nil)

	m.sessionRepo.On("Create", ctx, mock.MatchedBy(func(s *entities.GameSession) bool {
		return s.BetID == "bet-1" &&
			s.GridSize == 5 &&
			s.MineCount == 3 &&
			s.Status == entities.SessionActive &&
			len(s.Revealed) == 0
	})).Return(nil)

	result, err := service.PlaceBet(ctx, entities.PlaceBetRequest{
		BetID:      "bet-1",
		UserID:     "user-1",
		Currency:   "USDT",
		GameType:   entities.GameMines,
		Stake:      decimal.RequireFromString("60"),
		GameParams: map[string]any{"mineCount": 3},
	})

	require.NoError(t, err)
	assert.Equal(t, "bet-1", result.BetID)
	assert.Equal(t, entities.BetPending, result.Status)
	m.betRepo.AssertExpectations(t)
	m.sessionRepo.AssertExpectations(t)
	m.walletService.AssertExpectations(t)
}

func TestSettlementService_PlaceBet_BonusSplitUsesLockedRow(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)

	// A concurrent settlement burned bonus between the lookup and the
	// reservation taking the row lock
	stale := newTestWallet("100", "40", "0")
	locked := newTestWallet("100", "10", "60")
	m.betRepo.On("GetByID", ctx, "bet-1").Return(nil, nil)
	m.walletRepo.On("GetByUser", ctx, "user-1", "USDT").Return(stale, nil)
	m.walletRepo.On("GetForUpdate", ctx, "wallet-1").Return(locked, nil)
	m.seedRepo.On("GetActiveByUser", ctx, "user-1").Return(testSeedPair(), nil)
	m.seedRepo.On("IncrementNonce", ctx, "seed-1").Return(int64(6), nil)
	m.walletService.On("ReserveStake", ctx, "wallet-1", "bet-1",
		decimal.RequireFromString("60")).Return(nil)

	m.betRepo.On("Create", ctx, mock.MatchedBy(func(b *entities.Bet) bool {
		return b.BonusStake.Equal(decimal.RequireFromString("10"))
	})).Return(nil)

	result, err := service.PlaceBet(ctx, entities.PlaceBetRequest{
		BetID:      "bet-1",
		UserID:     "user-1",
		Currency:   "USDT",
		GameType:   entities.GameDice,
		Stake:      decimal.RequireFromString("60"),
		GameParams: map[string]any{"target": 50.0},
	})

	require.NoError(t, err)
	assert.Equal(t, entities.BetPending, result.Status)
	m.betRepo.AssertExpectations(t)
}

func TestSettlementService_PlaceBet_RejectsSecondActiveGame(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)

	wallet := newTestWallet("100", "0", "0")
	m.betRepo.On("GetByID", ctx, "bet-2").Return(nil, nil)
	m.walletRepo.On("GetByUser", ctx, "user-1", "USDT").Return(wallet, nil)
	m.sessionRepo.On("GetActiveByUser", ctx, "user-1", entities.GameMines).
		Return(&entities.GameSession{ID: "game-1", Status: entities.SessionActive}, nil)

	_, err := service.PlaceBet(ctx, entities.PlaceBetRequest{
		BetID:      "bet-2",
		UserID:     "user-1",
		Currency:   "USDT",
		GameType:   entities.GameMines,
		Stake:      decimal.RequireFromString("10"),
		GameParams: map[string]any{"mineCount": 3},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInvalidBetParameters)
	m.walletService.AssertNotCalled(t, "ReserveStake", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_PlaceBet_ReplayReturnsExistingBet(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)

	existing := &entities.Bet{
		ID:       "bet-1",
		WalletID: "wallet-1",
		Status:   entities.BetWon,
		Stake:    decimal.RequireFromString("60"),
		Payout:   decimal.RequireFromString("120"),
	}
	m.betRepo.On("GetByID", ctx, "bet-1").Return(existing, nil)
	m.walletRepo.On("GetByID", ctx, "wallet-1").Return(newTestWallet("160", "0", "0"), nil)

	result, err := service.PlaceBet(ctx, entities.PlaceBetRequest{
		BetID:      "bet-1",
		UserID:     "user-1",
		Currency:   "USDT",
		GameType:   entities.GameDice,
		Stake:      decimal.RequireFromString("60"),
		GameParams: map[string]any{"target": 50.0},
	})

	require.NoError(t, err)
	assert.Equal(t, entities.BetWon, result.Status)
	assert.True(t, result.Payout.Equal(decimal.RequireFromString("120")))
	m.walletService.AssertNotCalled(t, "ReserveStake", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_PlaceBet_InvalidStake(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	_, service := newSettlementService(t)

	_, err := service.PlaceBet(context.Background(), entities.PlaceBetRequest{
		BetID:    "bet-1",
		UserID:   "user-1",
		GameType: entities.GameDice,
		Stake:    decimal.Zero,
	})

	assert.ErrorIs(t, err, entities.ErrInvalidBetParameters)
}

func TestSettlementService_ResolveSingleShot_Dice(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)

	params := map[string]any{"target": 50.0}
	bet := &entities.Bet{
		ID:         "bet-1",
		TenantID:   "tenant-1",
		UserID:     "user-1",
		WalletID:   "wallet-1",
		GameType:   entities.GameDice,
		Stake:      decimal.RequireFromString("100"),
		BonusStake: decimal.RequireFromString("40"),
		Status:     entities.BetPending,
		SeedPairID: "seed-1",
		Nonce:      5,
		GameParams: params,
	}

	// The oracle and pay table are deterministic, so the expected result can
	// be derived up front from the same seed triple.
	roll := NewFairnessService().Outcome("server-seed", "client-seed", 5, 0)
	expectedMult, expectedWon, err := ResolveSingleShot(
		entities.GameDice, params, roll, config.Get().HouseEdgeRate)
	require.NoError(t, err)
	expectedPayout := bet.Stake.Mul(expectedMult).Round(8)

	m.betRepo.On("GetByID", ctx, "bet-1").Return(bet, nil)
	m.seedRepo.On("GetByID", ctx, "seed-1").Return(testSeedPair(), nil)
	m.walletService.On("SettleStake", ctx, "wallet-1", "bet-1",
		decimal.RequireFromString("100"), decimal.RequireFromString("40")).Return(nil)

	if expectedWon {
		// 40% of the stake was bonus-funded, so 40% of the payout stays sticky
		bonusPart := expectedPayout.Mul(decimal.RequireFromString("0.4")).Round(8)
		cashPart := expectedPayout.Sub(bonusPart)
		m.walletService.On("Credit", ctx, "wallet-1", bonusPart,
			entities.PortionBonus, entities.TransactionTypePayoutBonus, mock.Anything).Return(nil)
		m.walletService.On("Credit", ctx, "wallet-1", cashPart,
			entities.PortionCash, entities.TransactionTypePayoutCash, mock.Anything).Return(nil)
	}

	m.betRepo.On("Update", ctx, mock.MatchedBy(func(b *entities.Bet) bool {
		return b.Status.IsTerminal() &&
			b.Payout.Equal(expectedPayout) &&
			b.SettledAt != nil
	})).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.BetSettledEvent")).Return(nil)
	m.walletRepo.On("GetByID", ctx, "wallet-1").Return(newTestWallet("100", "0", "0"), nil)

	result, err := service.ResolveSingleShot(ctx, "bet-1")

	require.NoError(t, err)
	assert.Equal(t, expectedWon, result.Status == entities.BetWon)
	assert.True(t, result.Payout.Equal(expectedPayout))
	m.walletService.AssertExpectations(t)
	m.betRepo.AssertExpectations(t)
	m.eventPublisher.AssertExpectations(t)
}

func TestSettlementService_ResolveSingleShot_TerminalBetIsReplaySafe(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)

	settled := &entities.Bet{
		ID:       "bet-1",
		WalletID: "wallet-1",
		Status:   entities.BetLost,
		Stake:    decimal.RequireFromString("100"),
	}
	m.betRepo.On("GetByID", ctx, "bet-1").Return(settled, nil)
	m.walletRepo.On("GetByID", ctx, "wallet-1").Return(newTestWallet("0", "0", "0"), nil)

	result, err := service.ResolveSingleShot(ctx, "bet-1")

	require.NoError(t, err)
	assert.Equal(t, entities.BetLost, result.Status)
	m.walletService.AssertNotCalled(t, "SettleStake",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.betRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSettlementService_ResolveSingleShot_UnknownBet(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)
	m.betRepo.On("GetByID", ctx, "missing").Return(nil, nil)

	_, err := service.ResolveSingleShot(ctx, "missing")

	assert.ErrorIs(t, err, entities.ErrNoActiveGame)
}

func minesFixture(t *testing.T) (*entities.GameSession, *entities.Bet, []int, []int) {
	t.Helper()

	session := &entities.GameSession{
		ID:         "game-1",
		BetID:      "bet-1",
		TenantID:   "tenant-1",
		UserID:     "user-1",
		GameType:   entities.GameMines,
		GridSize:   5,
		MineCount:  3,
		Revealed:   []int{},
		Multiplier: decimal.NewFromInt(1),
		Status:     entities.SessionActive,
	}
	bet := &entities.Bet{
		ID:         "bet-1",
		TenantID:   "tenant-1",
		UserID:     "user-1",
		WalletID:   "wallet-1",
		GameType:   entities.GameMines,
		Stake:      decimal.RequireFromString("60"),
		BonusStake: decimal.Zero,
		Status:     entities.BetPending,
		SeedPairID: "seed-1",
		Nonce:      5,
	}

	mines := NewFairnessService().MinePositions("server-seed", "client-seed", 5, 25, 3)
	isMine := make(map[int]bool, len(mines))
	for _, p := range mines {
		isMine[p] = true
	}
	var safe []int
	for p := 0; p < 25; p++ {
		if !isMine[p] {
			safe = append(safe, p)
		}
	}

	return session, bet, mines, safe
}

func TestSettlementService_RevealStep_SafeTile(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)
	session, bet, _, safe := minesFixture(t)

	m.sessionRepo.On("GetByIDForUpdate", ctx, "game-1").Return(session, nil)
	m.betRepo.On("GetByID", ctx, "bet-1").Return(bet, nil)
	m.seedRepo.On("GetByID", ctx, "seed-1").Return(testSeedPair(), nil)

	expectedMult := MinesMultiplier(25, 3, 1, config.Get().HouseEdgeRate)
	m.sessionRepo.On("Update", ctx, mock.MatchedBy(func(s *entities.GameSession) bool {
		return s.Status == entities.SessionActive &&
			len(s.Revealed) == 1 &&
			s.Revealed[0] == safe[0] &&
			s.Multiplier.Equal(expectedMult)
	})).Return(nil)

	view, err := service.RevealStep(ctx, "game-1", safe[0])

	require.NoError(t, err)
	assert.Equal(t, entities.SessionActive, view.Status)
	assert.True(t, view.Multiplier.Equal(expectedMult))
	assert.Nil(t, view.MinePositions, "hazard map must stay hidden while active")
	// No money moves on a safe reveal
	m.walletService.AssertNotCalled(t, "SettleStake",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.sessionRepo.AssertExpectations(t)
}

func TestSettlementService_RevealStep_MineLosesBet(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)
	session, bet, mines, _ := minesFixture(t)

	m.sessionRepo.On("GetByIDForUpdate", ctx, "game-1").Return(session, nil)
	m.betRepo.On("GetByID", ctx, "bet-1").Return(bet, nil)
	m.seedRepo.On("GetByID", ctx, "seed-1").Return(testSeedPair(), nil)

	m.sessionRepo.On("Update", ctx, mock.MatchedBy(func(s *entities.GameSession) bool {
		return s.Status == entities.SessionLost
	})).Return(nil)
	m.walletService.On("SettleStake", ctx, "wallet-1", "bet-1",
		decimal.RequireFromString("60"), decimal.Zero).Return(nil)
	m.betRepo.On("Update", ctx, mock.MatchedBy(func(b *entities.Bet) bool {
		return b.Status == entities.BetLost && b.Payout.IsZero()
	})).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.BetSettledEvent")).Return(nil)

	view, err := service.RevealStep(ctx, "game-1", mines[0])

	require.NoError(t, err)
	assert.Equal(t, entities.SessionLost, view.Status)
	assert.True(t, view.CurrentPayout.IsZero())
	assert.ElementsMatch(t, mines, view.MinePositions, "hazard map disclosed on loss")
	m.walletService.AssertExpectations(t)
	m.betRepo.AssertExpectations(t)
}

func TestSettlementService_RevealStep_NoActiveGame(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)
	m.sessionRepo.On("GetByIDForUpdate", ctx, "game-1").Return(nil, nil)

	_, err := service.RevealStep(ctx, "game-1", 3)

	assert.ErrorIs(t, err, entities.ErrNoActiveGame)
}

func TestSettlementService_RevealStep_RejectsRepeatTile(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)
	session, _, _, safe := minesFixture(t)
	session.Revealed = []int{safe[0]}

	m.sessionRepo.On("GetByIDForUpdate", ctx, "game-1").Return(session, nil)

	_, err := service.RevealStep(ctx, "game-1", safe[0])

	assert.ErrorIs(t, err, entities.ErrInvalidBetParameters)
}

func TestSettlementService_CashOut(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)
	session, bet, mines, safe := minesFixture(t)
	session.Revealed = []int{safe[0], safe[1]}
	session.Multiplier = MinesMultiplier(25, 3, 2, config.Get().HouseEdgeRate)

	expectedPayout := bet.Stake.Mul(session.Multiplier).Round(8)

	m.sessionRepo.On("GetByIDForUpdate", ctx, "game-1").Return(session, nil)
	m.betRepo.On("GetByID", ctx, "bet-1").Return(bet, nil)
	m.seedRepo.On("GetByID", ctx, "seed-1").Return(testSeedPair(), nil)
	m.sessionRepo.On("Update", ctx, mock.MatchedBy(func(s *entities.GameSession) bool {
		return s.Status == entities.SessionCashedOut
	})).Return(nil)
	m.walletService.On("SettleStake", ctx, "wallet-1", "bet-1",
		decimal.RequireFromString("60"), decimal.Zero).Return(nil)
	m.walletService.On("Credit", ctx, "wallet-1", expectedPayout,
		entities.PortionCash, entities.TransactionTypePayoutCash, mock.Anything).Return(nil)
	m.betRepo.On("Update", ctx, mock.MatchedBy(func(b *entities.Bet) bool {
		return b.Status == entities.BetWon && b.Payout.Equal(expectedPayout)
	})).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.BetSettledEvent")).Return(nil)

	view, err := service.CashOut(ctx, "game-1")

	require.NoError(t, err)
	assert.Equal(t, entities.SessionCashedOut, view.Status)
	assert.True(t, view.CurrentPayout.Equal(expectedPayout))
	assert.ElementsMatch(t, mines, view.MinePositions)
	m.walletService.AssertExpectations(t)
}

func TestSettlementService_CashOut_RequiresRevealedTile(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newSettlementService(t)
	session, _, _, _ := minesFixture(t)

	m.sessionRepo.On("GetByIDForUpdate", ctx, "game-1").Return(session, nil)

	_, err := service.CashOut(ctx, "game-1")

	assert.ErrorIs(t, err, entities.ErrInvalidBetParameters)
	m.walletService.AssertNotCalled(t, "SettleStake",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
