package services

import (
	"context"
	"errors"
	"testing"

	"casino/config"
	"casino/domain/entities"
	"casino/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type distributionMocks struct {
	betRepo        *testhelpers.MockBetRepository
	walletRepo     *testhelpers.MockWalletRepository
	vipRepo        *testhelpers.MockVIPRepository
	rewardPoolRepo *testhelpers.MockRewardPoolRepository
	affiliateRepo  *testhelpers.MockAffiliateRepository
	walletService  *testhelpers.MockWalletService
	eventPublisher *testhelpers.MockEventPublisher
}

func newDistributionService(t *testing.T) (*distributionMocks, *distributionService) {
	t.Helper()
	m := &distributionMocks{
		betRepo:        new(testhelpers.MockBetRepository),
		walletRepo:     new(testhelpers.MockWalletRepository),
		vipRepo:        new(testhelpers.MockVIPRepository),
		rewardPoolRepo: new(testhelpers.MockRewardPoolRepository),
		affiliateRepo:  new(testhelpers.MockAffiliateRepository),
		walletService:  new(testhelpers.MockWalletService),
		eventPublisher: new(testhelpers.MockEventPublisher),
	}
	service := NewDistributionService(
		m.betRepo, m.walletRepo, m.vipRepo, m.rewardPoolRepo,
		m.affiliateRepo, m.walletService, m.eventPublisher,
	).(*distributionService)
	return m, service
}

func settledBet(status entities.BetStatus) *entities.Bet {
	return &entities.Bet{
		ID:       "bet-1",
		TenantID: "tenant-1",
		UserID:   "user-1",
		WalletID: "wallet-1",
		Currency: "USDT",
		GameType: entities.GameDice,
		Stake:    decimal.RequireFromString("100"),
		Status:   status,
	}
}

func TestDistributionService_Distribute(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newDistributionService(t)
	bet := settledBet(entities.BetWon)

	// 100 staked at 100 XP per unit crosses the 1k and 5k thresholds
	progress := &entities.VIPProgress{TenantID: "tenant-1", UserID: "user-1"}
	m.vipRepo.On("GetOrCreateForUpdate", ctx, "user-1").Return(progress, nil)
	m.vipRepo.On("Update", ctx, mock.MatchedBy(func(p *entities.VIPProgress) bool {
		return p.XP == 10000 && p.Level == 2
	})).Return(nil)
	m.walletService.On("Credit", ctx, "wallet-1", decimal.NewFromInt(10),
		entities.PortionBonus, entities.TransactionTypeLevelUpBonus, mock.Anything).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.VIPLevelUpEvent")).Return(nil)

	// 4% house share accrues to both pool counters
	pool := &entities.RewardPoolAccount{TenantID: "tenant-1"}
	m.rewardPoolRepo.On("GetOrCreateForUpdate", ctx).Return(pool, nil)
	m.rewardPoolRepo.On("Update", ctx, mock.MatchedBy(func(p *entities.RewardPoolAccount) bool {
		return p.AccumulatedContributions.Equal(decimal.NewFromInt(4)) &&
			p.Distributable.Equal(decimal.NewFromInt(4))
	})).Return(nil)

	// Referrer earns 10% of the house share as bookkeeping only
	m.affiliateRepo.On("GetReferrer", ctx, "user-1").
		Return(&entities.Referral{TenantID: "tenant-1", UserID: "user-1", ReferrerID: "referrer-1"}, nil)
	m.affiliateRepo.On("CreateEntry", ctx, mock.MatchedBy(func(e *entities.AffiliateEntry) bool {
		return e.ReferrerID == "referrer-1" &&
			e.SourceBetID == "bet-1" &&
			e.Amount.Equal(decimal.RequireFromString("0.4"))
	})).Return(nil)

	m.betRepo.On("Update", ctx, mock.MatchedBy(func(b *entities.Bet) bool {
		return b.Distributed
	})).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.DistributionCompletedEvent")).Return(nil)

	err := service.Distribute(ctx, bet)

	require.NoError(t, err)
	m.vipRepo.AssertExpectations(t)
	m.rewardPoolRepo.AssertExpectations(t)
	m.affiliateRepo.AssertExpectations(t)
	m.betRepo.AssertExpectations(t)
	// Instant payout is off, so the referrer wallet is never touched
	m.walletRepo.AssertNotCalled(t, "GetByUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestDistributionService_Distribute_LostBetStillAccrues(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newDistributionService(t)
	bet := settledBet(entities.BetLost)

	// Already levelled, no threshold crossed this time
	m.vipRepo.On("GetOrCreateForUpdate", ctx, "user-1").
		Return(&entities.VIPProgress{TenantID: "tenant-1", UserID: "user-1", XP: 50000, Level: 3}, nil)
	m.vipRepo.On("Update", ctx, mock.MatchedBy(func(p *entities.VIPProgress) bool {
		return p.XP == 60000 && p.Level == 3
	})).Return(nil)

	m.rewardPoolRepo.On("GetOrCreateForUpdate", ctx).Return(&entities.RewardPoolAccount{TenantID: "tenant-1"}, nil)
	m.rewardPoolRepo.On("Update", ctx, mock.MatchedBy(func(p *entities.RewardPoolAccount) bool {
		return p.Distributable.Equal(decimal.NewFromInt(4))
	})).Return(nil)

	m.affiliateRepo.On("GetReferrer", ctx, "user-1").Return(nil, nil)
	m.betRepo.On("Update", ctx, mock.Anything).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.DistributionCompletedEvent")).Return(nil)

	err := service.Distribute(ctx, bet)

	require.NoError(t, err)
	m.affiliateRepo.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
	m.walletService.AssertNotCalled(t, "Credit",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDistributionService_Distribute_Idempotent(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	m, service := newDistributionService(t)
	bet := settledBet(entities.BetWon)
	bet.Distributed = true

	err := service.Distribute(context.Background(), bet)

	require.NoError(t, err)
	m.vipRepo.AssertNotCalled(t, "GetOrCreateForUpdate", mock.Anything, mock.Anything)
	m.rewardPoolRepo.AssertNotCalled(t, "GetOrCreateForUpdate", mock.Anything)
	m.betRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDistributionService_Distribute_RejectsPendingBet(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	_, service := newDistributionService(t)
	bet := settledBet(entities.BetPending)

	err := service.Distribute(context.Background(), bet)

	assert.Error(t, err)
}

func TestDistributionService_Distribute_PoolFailureKeepsBetFlagged(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newDistributionService(t)
	bet := settledBet(entities.BetWon)

	m.vipRepo.On("GetOrCreateForUpdate", ctx, "user-1").
		Return(&entities.VIPProgress{TenantID: "tenant-1", UserID: "user-1", XP: 50000, Level: 3}, nil)
	m.vipRepo.On("Update", ctx, mock.Anything).Return(nil)
	m.rewardPoolRepo.On("GetOrCreateForUpdate", ctx).Return(nil, errors.New("deadlock"))

	err := service.Distribute(ctx, bet)

	require.Error(t, err)
	var distErr *entities.DistributionError
	require.ErrorAs(t, err, &distErr)
	assert.Equal(t, "reward_pool", distErr.Stage)
	assert.Equal(t, "bet-1", distErr.BetID)
	assert.False(t, bet.Distributed, "bet must stay undistributed for retry")
	m.betRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDistributionService_Distribute_InstantAffiliatePayout(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.AffiliateInstantPayout = true
	config.SetTestConfig(cfg)
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newDistributionService(t)
	bet := settledBet(entities.BetWon)

	m.vipRepo.On("GetOrCreateForUpdate", ctx, "user-1").
		Return(&entities.VIPProgress{TenantID: "tenant-1", UserID: "user-1", XP: 50000, Level: 3}, nil)
	m.vipRepo.On("Update", ctx, mock.Anything).Return(nil)
	m.rewardPoolRepo.On("GetOrCreateForUpdate", ctx).Return(&entities.RewardPoolAccount{TenantID: "tenant-1"}, nil)
	m.rewardPoolRepo.On("Update", ctx, mock.Anything).Return(nil)

	m.affiliateRepo.On("GetReferrer", ctx, "user-1").
		Return(&entities.Referral{TenantID: "tenant-1", UserID: "user-1", ReferrerID: "referrer-1"}, nil)
	m.affiliateRepo.On("CreateEntry", ctx, mock.Anything).Return(nil)

	referrerWallet := &entities.Wallet{ID: "wallet-9", TenantID: "tenant-1", UserID: "referrer-1", Currency: "USDT"}
	m.walletRepo.On("GetByUser", ctx, "referrer-1", "USDT").Return(referrerWallet, nil)
	m.walletService.On("Credit", ctx, "wallet-9", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("0.4"))
	}), entities.PortionCash, entities.TransactionTypeAffiliatePayout, mock.Anything).Return(nil)

	m.betRepo.On("Update", ctx, mock.Anything).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.DistributionCompletedEvent")).Return(nil)

	err := service.Distribute(ctx, bet)

	require.NoError(t, err)
	m.walletService.AssertExpectations(t)
}

func TestDistributionService_ClaimRewardPool(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newDistributionService(t)

	pool := &entities.RewardPoolAccount{
		TenantID:                 "tenant-1",
		AccumulatedContributions: decimal.NewFromInt(100),
		Distributable:            decimal.NewFromInt(40),
	}
	m.rewardPoolRepo.On("GetOrCreateForUpdate", ctx).Return(pool, nil)
	m.rewardPoolRepo.On("Update", ctx, mock.MatchedBy(func(p *entities.RewardPoolAccount) bool {
		return p.Distributable.Equal(decimal.NewFromInt(15)) &&
			p.AccumulatedContributions.Equal(decimal.NewFromInt(100))
	})).Return(nil)

	updated, err := service.ClaimRewardPool(ctx, decimal.NewFromInt(25))

	require.NoError(t, err)
	assert.True(t, updated.Distributable.Equal(decimal.NewFromInt(15)))
	m.rewardPoolRepo.AssertExpectations(t)
}

func TestDistributionService_ClaimRewardPool_OverClaim(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()
	ctx := context.Background()

	m, service := newDistributionService(t)

	pool := &entities.RewardPoolAccount{TenantID: "tenant-1", Distributable: decimal.NewFromInt(10)}
	m.rewardPoolRepo.On("GetOrCreateForUpdate", ctx).Return(pool, nil)

	_, err := service.ClaimRewardPool(ctx, decimal.NewFromInt(25))

	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
	var fundsErr *entities.InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.True(t, fundsErr.Available.Equal(decimal.NewFromInt(10)))
	m.rewardPoolRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDistributionService_ClaimRewardPool_RejectsNonPositive(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	_, service := newDistributionService(t)

	_, err := service.ClaimRewardPool(context.Background(), decimal.Zero)

	assert.ErrorIs(t, err, entities.ErrInvalidAmount)
}
