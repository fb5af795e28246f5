package application

import (
	"context"
	"fmt"
	"time"

	"casino/domain/entities"
	"casino/domain/events"
	"casino/domain/interfaces"
	"casino/domain/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// GameLocker serializes operations on one multi-step game within the
// process, failing fast instead of queueing on the database row lock.
type GameLocker interface {
	Acquire(gameID string) (release func(), err error)
	Forget(gameID string)
}

// WalletEngine is the entry point for all tenant-facing operations. Each
// operation runs in its own unit of work; reward distribution runs in a
// second transaction after settlement commits, so a distribution failure
// never rolls back a settled bet.
type WalletEngine struct {
	uowFactory UnitOfWorkFactory
	fairness   interfaces.FairnessService
	gameLocks  GameLocker
	publisher  interfaces.EventPublisher
}

// NewWalletEngine creates a new wallet engine. publisher is the direct
// (non-transactional) publisher used for out-of-band failure events.
func NewWalletEngine(
	uowFactory UnitOfWorkFactory,
	fairness interfaces.FairnessService,
	gameLocks GameLocker,
	publisher interfaces.EventPublisher,
) *WalletEngine {
	return &WalletEngine{
		uowFactory: uowFactory,
		fairness:   fairness,
		gameLocks:  gameLocks,
		publisher:  publisher,
	}
}

func (e *WalletEngine) settlementService(uow UnitOfWork) interfaces.SettlementService {
	walletService := services.NewWalletService(
		uow.WalletRepository(),
		uow.BetRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
	)
	return services.NewSettlementService(
		uow.BetRepository(),
		uow.GameSessionRepository(),
		uow.SeedPairRepository(),
		uow.WalletRepository(),
		walletService,
		e.fairness,
		uow.EventBus(),
	)
}

func (e *WalletEngine) distributionService(uow UnitOfWork) interfaces.DistributionService {
	walletService := services.NewWalletService(
		uow.WalletRepository(),
		uow.BetRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
	)
	return services.NewDistributionService(
		uow.BetRepository(),
		uow.WalletRepository(),
		uow.VIPRepository(),
		uow.RewardPoolRepository(),
		uow.AffiliateRepository(),
		walletService,
		uow.EventBus(),
	)
}

// PlaceBet places a bet and, for single-shot games, resolves and settles
// it in the same transaction. The reward fan-out follows in a separate
// transaction once settlement is durable.
func (e *WalletEngine) PlaceBet(ctx context.Context, tenantID string, req entities.PlaceBetRequest) (*entities.BetResult, error) {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settlement := e.settlementService(uow)
	result, err := settlement.PlaceBet(ctx, req)
	if err != nil {
		return nil, err
	}

	if !req.GameType.IsMultiStep() && !result.Status.IsTerminal() {
		result, err = settlement.ResolveSingleShot(ctx, result.BetID)
		if err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bet placement: %w", err)
	}

	if result.Status.IsTerminal() {
		e.distributeBet(ctx, tenantID, result.BetID)
	}

	return result, nil
}

// RevealTile applies one reveal to an active mines game.
func (e *WalletEngine) RevealTile(ctx context.Context, tenantID, gameID string, position int) (*entities.SessionView, error) {
	release, err := e.gameLocks.Acquire(gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	view, err := e.withSession(ctx, tenantID, gameID, func(settlement interfaces.SettlementService) (*entities.SessionView, error) {
		return settlement.RevealStep(ctx, gameID, position)
	})
	if err != nil {
		return nil, err
	}

	if view.Status.IsTerminal() {
		e.gameLocks.Forget(gameID)
	}
	return view, nil
}

// CashOut settles an active mines game at its current multiplier.
func (e *WalletEngine) CashOut(ctx context.Context, tenantID, gameID string) (*entities.SessionView, error) {
	release, err := e.gameLocks.Acquire(gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	view, err := e.withSession(ctx, tenantID, gameID, func(settlement interfaces.SettlementService) (*entities.SessionView, error) {
		return settlement.CashOut(ctx, gameID)
	})
	if err != nil {
		return nil, err
	}

	e.gameLocks.Forget(gameID)
	return view, nil
}

// withSession runs one session mutation in its own transaction and chases
// a terminal transition with the reward fan-out.
func (e *WalletEngine) withSession(ctx context.Context, tenantID, gameID string, fn func(interfaces.SettlementService) (*entities.SessionView, error)) (*entities.SessionView, error) {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	var betID string
	session, err := uow.GameSessionRepository().GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session != nil {
		betID = session.BetID
	}

	view, err := fn(e.settlementService(uow))
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session step: %w", err)
	}

	if view.Status.IsTerminal() && betID != "" {
		e.distributeBet(ctx, tenantID, betID)
	}

	return view, nil
}

// ResolveBet re-drives settlement for a pending single-shot bet. Used by
// the sweep worker for bets whose settlement never committed.
func (e *WalletEngine) ResolveBet(ctx context.Context, tenantID, betID string) (*entities.BetResult, error) {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := e.settlementService(uow).ResolveSingleShot(ctx, betID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	if result.Status.IsTerminal() {
		e.distributeBet(ctx, tenantID, result.BetID)
	}
	return result, nil
}

// distributeBet runs the reward fan-out in its own transaction. Failure is
// logged and surfaced as an event; the retry worker picks the bet up via
// its distributed flag.
func (e *WalletEngine) distributeBet(ctx context.Context, tenantID, betID string) {
	if err := e.DistributeBet(ctx, tenantID, betID); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"tenantID": tenantID,
			"betID":    betID,
		}).Error("Reward distribution failed, queued for retry")

		if pubErr := e.publisher.Publish(events.DistributionFailedEvent{
			BetID:  betID,
			Reason: err.Error(),
		}); pubErr != nil {
			log.WithError(pubErr).Error("Failed to publish distribution failed event")
		}
	}
}

// DistributeBet runs the reward fan-out for one settled bet and commits it
// atomically with the distributed flag.
func (e *WalletEngine) DistributeBet(ctx context.Context, tenantID, betID string) error {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return fmt.Errorf("bet %s not found", betID)
	}

	if err := e.distributionService(uow).Distribute(ctx, bet); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit distribution: %w", err)
	}
	return nil
}

// Withdraw debits funds leaving the system after the withdrawal guard
// passes.
func (e *WalletEngine) Withdraw(ctx context.Context, tenantID, walletID string, amount decimal.Decimal) error {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	walletService := services.NewWalletService(
		uow.WalletRepository(),
		uow.BetRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
	)
	if err := walletService.DebitForWithdrawal(ctx, walletID, amount); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit withdrawal: %w", err)
	}
	return nil
}

// GetWithdrawable returns the balance breakdown for cashier pre-flight.
func (e *WalletEngine) GetWithdrawable(ctx context.Context, tenantID, walletID string) (*entities.WithdrawableView, error) {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	walletService := services.NewWalletService(
		uow.WalletRepository(),
		uow.BetRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
	)
	return walletService.GetWithdrawable(ctx, walletID)
}

// GetBonusStats returns lifetime bonus figures for admin reporting,
// derived from the wallet's ledger history.
func (e *WalletEngine) GetBonusStats(ctx context.Context, tenantID, walletID string) (*entities.BonusStats, error) {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.WalletRepository().GetBonusStats(ctx, walletID)
}

// GrantBonus credits sticky bonus funds to a wallet (promotions, manual
// compensation).
func (e *WalletEngine) GrantBonus(ctx context.Context, tenantID, walletID string, amount decimal.Decimal) error {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	walletService := services.NewWalletService(
		uow.WalletRepository(),
		uow.BetRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
	)
	if err := walletService.Credit(ctx, walletID, amount, entities.PortionBonus, entities.TransactionTypeBonusGrant, nil); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit bonus grant: %w", err)
	}
	return nil
}

// RotateSeed retires the user's active seed pair, disclosing the server
// seed for verification, and commits a fresh pair. The optional client
// seed is applied to the new pair.
func (e *WalletEngine) RotateSeed(ctx context.Context, tenantID, userID, clientSeed string) (*entities.SeedCommitment, error) {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	seedRepo := uow.SeedPairRepository()
	current, err := seedRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active seed pair: %w", err)
	}
	if current != nil {
		if err := seedRepo.Retire(ctx, current.ID, time.Now().UTC()); err != nil {
			return nil, err
		}
		if err := uow.EventBus().Publish(events.SeedRotatedEvent{
			SeedPairID:     current.ID,
			UserID:         userID,
			ServerSeed:     current.ServerSeed,
			ServerSeedHash: current.ServerSeedHash,
			FinalNonce:     current.Nonce,
		}); err != nil {
			log.WithError(err).Warn("Failed to publish seed rotated event")
		}
	}

	seed, hash, err := e.fairness.NewServerSeed()
	if err != nil {
		return nil, err
	}
	if clientSeed == "" {
		clientSeed = uuid.New().String()
	}
	pair := &entities.SeedPair{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		UserID:         userID,
		ServerSeed:     seed,
		ServerSeedHash: hash,
		ClientSeed:     clientSeed,
		Active:         true,
	}
	if err := seedRepo.Create(ctx, pair); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seed rotation: %w", err)
	}

	commitment := pair.Public()
	return &commitment, nil
}

// SetClientSeed updates the client seed on the user's active pair.
func (e *WalletEngine) SetClientSeed(ctx context.Context, tenantID, userID, clientSeed string) error {
	if clientSeed == "" {
		return &entities.BetParameterError{Reason: "client seed must not be empty"}
	}

	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pair, err := uow.SeedPairRepository().GetActiveByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get active seed pair: %w", err)
	}
	if pair == nil {
		return entities.ErrNoActiveGame
	}
	if err := uow.SeedPairRepository().SetClientSeed(ctx, pair.ID, clientSeed); err != nil {
		return err
	}

	return uow.Commit()
}

// ClaimRewardPool takes amount from the tenant's distributable pot.
func (e *WalletEngine) ClaimRewardPool(ctx context.Context, tenantID string, amount decimal.Decimal) (*entities.RewardPoolAccount, error) {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pool, err := e.distributionService(uow).ClaimRewardPool(ctx, amount)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}
	return pool, nil
}

// CreateWallet provisions a zero-balance wallet for a (user, currency)
// pair, returning the existing wallet when one is already provisioned.
func (e *WalletEngine) CreateWallet(ctx context.Context, tenantID, userID, currency string) (*entities.Wallet, error) {
	uow := e.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.WalletRepository().GetByUser(ctx, userID, currency)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	wallet, err := uow.WalletRepository().Create(ctx, userID, currency)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit wallet creation: %w", err)
	}
	return wallet, nil
}
