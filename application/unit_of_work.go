package application

import (
	"context"

	"casino/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations.
// All repositories returned by one instance share a single database
// transaction scoped to one tenant.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	WalletRepository() interfaces.WalletRepository
	BetRepository() interfaces.BetRepository
	GameSessionRepository() interfaces.GameSessionRepository
	SeedPairRepository() interfaces.SeedPairRepository
	RewardPoolRepository() interfaces.RewardPoolRepository
	AffiliateRepository() interfaces.AffiliateRepository
	VIPRepository() interfaces.VIPRepository
	LedgerRepository() interfaces.LedgerRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// CreateForTenant creates a new UnitOfWork instance scoped to a tenant
	CreateForTenant(tenantID string) UnitOfWork
}

// TransactionalEventPublisher buffers events during a transaction and
// releases them on commit.
type TransactionalEventPublisher interface {
	interfaces.EventPublisher

	// Flush publishes all buffered events; call after a successful commit
	Flush(ctx context.Context) error

	// Discard drops all buffered events; call on rollback
	Discard()
}
