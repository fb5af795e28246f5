package interfaces

import (
	"context"
	"time"

	"casino/domain/entities"
	"casino/domain/events"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data access.
// Mutating callers must fetch the row with GetForUpdate so concurrent
// operations on one wallet serialize on the row lock.
type WalletRepository interface {
	// GetByID retrieves a wallet without locking it (read-only surfaces)
	GetByID(ctx context.Context, walletID string) (*entities.Wallet, error)

	// GetByUser retrieves the wallet for a (user, currency) pair in the
	// repository's tenant scope
	GetByUser(ctx context.Context, userID, currency string) (*entities.Wallet, error)

	// GetForUpdate retrieves a wallet and acquires its row-level lock for
	// the remainder of the enclosing transaction
	GetForUpdate(ctx context.Context, walletID string) (*entities.Wallet, error)

	// Create creates a new zero-balance wallet
	Create(ctx context.Context, userID, currency string) (*entities.Wallet, error)

	// UpdateBalances persists balance, bonusBalance and lockedBalance
	UpdateBalances(ctx context.Context, wallet *entities.Wallet) error

	// GetBonusStats returns lifetime bonus figures derived from the ledger
	GetBonusStats(ctx context.Context, walletID string) (*entities.BonusStats, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create creates a new bet record
	Create(ctx context.Context, bet *entities.Bet) error

	// GetByID retrieves a bet by its ID
	GetByID(ctx context.Context, id string) (*entities.Bet, error)

	// Update persists status, outcome, payout, settledAt and distributed
	Update(ctx context.Context, bet *entities.Bet) error

	// GetByUser returns recent bets for a user, newest first
	GetByUser(ctx context.Context, userID string, limit int) ([]*entities.Bet, error)

	// GetUndistributed returns settled bets whose reward fan-out has not
	// completed, oldest first
	GetUndistributed(ctx context.Context, limit int) ([]*entities.Bet, error)

	// GetStuckPending returns pending bets created before the cutoff whose
	// settlement never committed; the sweep re-drives these
	GetStuckPending(ctx context.Context, cutoff time.Time) ([]*entities.Bet, error)
}

// GameSessionRepository defines the interface for multi-step game state
type GameSessionRepository interface {
	// Create creates a new active session
	Create(ctx context.Context, session *entities.GameSession) error

	// GetByID retrieves a session by its ID
	GetByID(ctx context.Context, id string) (*entities.GameSession, error)

	// GetByIDForUpdate retrieves a session and locks its row
	GetByIDForUpdate(ctx context.Context, id string) (*entities.GameSession, error)

	// GetActiveByUser returns the user's single active session for a game
	// family, or nil when none exists
	GetActiveByUser(ctx context.Context, userID string, gameType entities.GameType) (*entities.GameSession, error)

	// Update persists revealed tiles, multiplier and status
	Update(ctx context.Context, session *entities.GameSession) error
}

// SeedPairRepository defines the interface for fairness seed data access
type SeedPairRepository interface {
	// Create stores a new seed pair
	Create(ctx context.Context, pair *entities.SeedPair) error

	// GetActiveByUser returns the user's active seed pair, or nil
	GetActiveByUser(ctx context.Context, userID string) (*entities.SeedPair, error)

	// GetByID retrieves a seed pair by its ID
	GetByID(ctx context.Context, id string) (*entities.SeedPair, error)

	// IncrementNonce advances the per-user nonce and returns the new value
	IncrementNonce(ctx context.Context, id string) (int64, error)

	// Retire marks the pair inactive and records the reveal time
	Retire(ctx context.Context, id string, revealedAt time.Time) error

	// SetClientSeed updates the client seed on an active pair
	SetClientSeed(ctx context.Context, id, clientSeed string) error
}

// RewardPoolRepository defines the interface for tenant reward pool access
type RewardPoolRepository interface {
	// GetOrCreateForUpdate fetches the tenant's pool row with its lock
	// held, creating a zeroed row on first use
	GetOrCreateForUpdate(ctx context.Context) (*entities.RewardPoolAccount, error)

	// Get returns the pool without locking (reporting)
	Get(ctx context.Context) (*entities.RewardPoolAccount, error)

	// Update persists accumulated contributions and distributable balance
	Update(ctx context.Context, pool *entities.RewardPoolAccount) error
}

// AffiliateRepository defines the interface for commission bookkeeping
type AffiliateRepository interface {
	// CreateEntry appends a commission ledger entry
	CreateEntry(ctx context.Context, entry *entities.AffiliateEntry) error

	// GetReferrer returns the referrer of a user, or nil when unreferred
	GetReferrer(ctx context.Context, userID string) (*entities.Referral, error)

	// GetEntriesByReferrer returns commission entries for a referrer
	GetEntriesByReferrer(ctx context.Context, referrerID string, limit int) ([]*entities.AffiliateEntry, error)

	// TotalCommission returns the summed commission for a referrer
	TotalCommission(ctx context.Context, referrerID string) (decimal.Decimal, error)
}

// VIPRepository defines the interface for VIP progression access
type VIPRepository interface {
	// GetOrCreateForUpdate fetches the user's progress row with its lock
	// held, creating a level-zero row on first use
	GetOrCreateForUpdate(ctx context.Context, userID string) (*entities.VIPProgress, error)

	// Update persists xp and level
	Update(ctx context.Context, progress *entities.VIPProgress) error
}

// LedgerRepository defines the interface for wallet ledger tracking
type LedgerRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByWallet returns ledger entries for a wallet, newest first
	GetByWallet(ctx context.Context, walletID string, limit int) ([]*entities.LedgerEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}
