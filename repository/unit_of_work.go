package repository

import (
	"context"
	"fmt"

	"casino/application"
	"casino/database"
	"casino/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	tenantID               string
	transactionalPublisher application.TransactionalEventPublisher
	walletRepo             interfaces.WalletRepository
	betRepo                interfaces.BetRepository
	sessionRepo            interfaces.GameSessionRepository
	seedPairRepo           interfaces.SeedPairRepository
	rewardPoolRepo         interfaces.RewardPoolRepository
	affiliateRepo          interfaces.AffiliateRepository
	vipRepo                interfaces.VIPRepository
	ledgerRepo             interfaces.LedgerRepository
}

type unitOfWorkFactory struct {
	db           *database.DB
	newPublisher func() application.TransactionalEventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. newPublisher is
// called once per unit of work so each transaction gets its own event
// buffer.
func NewUnitOfWorkFactory(db *database.DB, newPublisher func() application.TransactionalEventPublisher) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:           db,
		newPublisher: newPublisher,
	}
}

// CreateForTenant creates a new UnitOfWork scoped to a tenant
func (f *unitOfWorkFactory) CreateForTenant(tenantID string) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		tenantID:               tenantID,
		transactionalPublisher: f.newPublisher(),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create tenant-scoped repositories with the transaction
	u.walletRepo = newWalletRepository(tx, u.tenantID)
	u.betRepo = newBetRepository(tx, u.tenantID)
	u.sessionRepo = newGameSessionRepository(tx, u.tenantID)
	u.seedPairRepo = newSeedPairRepository(tx, u.tenantID)
	u.rewardPoolRepo = newRewardPoolRepository(tx, u.tenantID)
	u.affiliateRepo = newAffiliateRepository(tx, u.tenantID)
	u.vipRepo = newVIPRepository(tx, u.tenantID)
	u.ledgerRepo = newLedgerRepository(tx, u.tenantID)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// WalletRepository returns the wallet repository for this unit of work
func (u *unitOfWork) WalletRepository() interfaces.WalletRepository {
	if u.walletRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.walletRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// GameSessionRepository returns the game session repository for this unit of work
func (u *unitOfWork) GameSessionRepository() interfaces.GameSessionRepository {
	if u.sessionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.sessionRepo
}

// SeedPairRepository returns the seed pair repository for this unit of work
func (u *unitOfWork) SeedPairRepository() interfaces.SeedPairRepository {
	if u.seedPairRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.seedPairRepo
}

// RewardPoolRepository returns the reward pool repository for this unit of work
func (u *unitOfWork) RewardPoolRepository() interfaces.RewardPoolRepository {
	if u.rewardPoolRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.rewardPoolRepo
}

// AffiliateRepository returns the affiliate repository for this unit of work
func (u *unitOfWork) AffiliateRepository() interfaces.AffiliateRepository {
	if u.affiliateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.affiliateRepo
}

// VIPRepository returns the VIP progression repository for this unit of work
func (u *unitOfWork) VIPRepository() interfaces.VIPRepository {
	if u.vipRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.vipRepo
}

// LedgerRepository returns the wallet ledger repository for this unit of work
func (u *unitOfWork) LedgerRepository() interfaces.LedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
