package testhelpers

import (
	"context"
	"time"

	"casino/domain/entities"
	"casino/domain/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByID(ctx context.Context, walletID string) (*entities.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByUser(ctx context.Context, userID, currency string) (*entities.Wallet, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetForUpdate(ctx context.Context, walletID string) (*entities.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Create(ctx context.Context, userID, currency string) (*entities.Wallet, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateBalances(ctx context.Context, wallet *entities.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetBonusStats(ctx context.Context, walletID string) (*entities.BonusStats, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BonusStats), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id string) (*entities.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) Update(ctx context.Context, bet *entities.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*entities.Bet, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetUndistributed(ctx context.Context, limit int) ([]*entities.Bet, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetStuckPending(ctx context.Context, cutoff time.Time) ([]*entities.Bet, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

// MockGameSessionRepository is a mock implementation of GameSessionRepository
type MockGameSessionRepository struct {
	mock.Mock
}

func (m *MockGameSessionRepository) Create(ctx context.Context, session *entities.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockGameSessionRepository) GetByID(ctx context.Context, id string) (*entities.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) GetByIDForUpdate(ctx context.Context, id string) (*entities.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) GetActiveByUser(ctx context.Context, userID string, gameType entities.GameType) (*entities.GameSession, error) {
	args := m.Called(ctx, userID, gameType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) Update(ctx context.Context, session *entities.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// MockSeedPairRepository is a mock implementation of SeedPairRepository
type MockSeedPairRepository struct {
	mock.Mock
}

func (m *MockSeedPairRepository) Create(ctx context.Context, pair *entities.SeedPair) error {
	args := m.Called(ctx, pair)
	return args.Error(0)
}

func (m *MockSeedPairRepository) GetActiveByUser(ctx context.Context, userID string) (*entities.SeedPair, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SeedPair), args.Error(1)
}

func (m *MockSeedPairRepository) GetByID(ctx context.Context, id string) (*entities.SeedPair, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SeedPair), args.Error(1)
}

func (m *MockSeedPairRepository) IncrementNonce(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSeedPairRepository) Retire(ctx context.Context, id string, revealedAt time.Time) error {
	args := m.Called(ctx, id, revealedAt)
	return args.Error(0)
}

func (m *MockSeedPairRepository) SetClientSeed(ctx context.Context, id, clientSeed string) error {
	args := m.Called(ctx, id, clientSeed)
	return args.Error(0)
}

// MockRewardPoolRepository is a mock implementation of RewardPoolRepository
type MockRewardPoolRepository struct {
	mock.Mock
}

func (m *MockRewardPoolRepository) GetOrCreateForUpdate(ctx context.Context) (*entities.RewardPoolAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RewardPoolAccount), args.Error(1)
}

func (m *MockRewardPoolRepository) Get(ctx context.Context) (*entities.RewardPoolAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RewardPoolAccount), args.Error(1)
}

func (m *MockRewardPoolRepository) Update(ctx context.Context, pool *entities.RewardPoolAccount) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

// MockAffiliateRepository is a mock implementation of AffiliateRepository
type MockAffiliateRepository struct {
	mock.Mock
}

func (m *MockAffiliateRepository) CreateEntry(ctx context.Context, entry *entities.AffiliateEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAffiliateRepository) GetReferrer(ctx context.Context, userID string) (*entities.Referral, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Referral), args.Error(1)
}

func (m *MockAffiliateRepository) GetEntriesByReferrer(ctx context.Context, referrerID string, limit int) ([]*entities.AffiliateEntry, error) {
	args := m.Called(ctx, referrerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AffiliateEntry), args.Error(1)
}

func (m *MockAffiliateRepository) TotalCommission(ctx context.Context, referrerID string) (decimal.Decimal, error) {
	args := m.Called(ctx, referrerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockVIPRepository is a mock implementation of VIPRepository
type MockVIPRepository struct {
	mock.Mock
}

func (m *MockVIPRepository) GetOrCreateForUpdate(ctx context.Context, userID string) (*entities.VIPProgress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VIPProgress), args.Error(1)
}

func (m *MockVIPRepository) Update(ctx context.Context, progress *entities.VIPProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByWallet(ctx context.Context, walletID string, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, walletID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockWalletService is a mock implementation of WalletService
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) ReserveStake(ctx context.Context, walletID, betID string, amount decimal.Decimal) error {
	args := m.Called(ctx, walletID, betID, amount)
	return args.Error(0)
}

func (m *MockWalletService) SettleStake(ctx context.Context, walletID, betID string, amount, bonusPortion decimal.Decimal) error {
	args := m.Called(ctx, walletID, betID, amount, bonusPortion)
	return args.Error(0)
}

func (m *MockWalletService) Credit(ctx context.Context, walletID string, amount decimal.Decimal, portion entities.CreditPortion, txType entities.TransactionType, relatedBetID *string) error {
	args := m.Called(ctx, walletID, amount, portion, txType, relatedBetID)
	return args.Error(0)
}

func (m *MockWalletService) DebitForWithdrawal(ctx context.Context, walletID string, amount decimal.Decimal) error {
	args := m.Called(ctx, walletID, amount)
	return args.Error(0)
}

func (m *MockWalletService) GetWithdrawable(ctx context.Context, walletID string) (*entities.WithdrawableView, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawableView), args.Error(1)
}
