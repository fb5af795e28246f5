package services

import (
	"context"
	"fmt"

	"casino/config"
	"casino/domain/entities"
	"casino/domain/events"
	"casino/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type distributionService struct {
	betRepo        interfaces.BetRepository
	walletRepo     interfaces.WalletRepository
	vipRepo        interfaces.VIPRepository
	rewardPoolRepo interfaces.RewardPoolRepository
	affiliateRepo  interfaces.AffiliateRepository
	walletService  interfaces.WalletService
	eventPublisher interfaces.EventPublisher
}

// NewDistributionService creates a new reward distribution service
func NewDistributionService(
	betRepo interfaces.BetRepository,
	walletRepo interfaces.WalletRepository,
	vipRepo interfaces.VIPRepository,
	rewardPoolRepo interfaces.RewardPoolRepository,
	affiliateRepo interfaces.AffiliateRepository,
	walletService interfaces.WalletService,
	eventPublisher interfaces.EventPublisher,
) interfaces.DistributionService {
	return &distributionService{
		betRepo:        betRepo,
		walletRepo:     walletRepo,
		vipRepo:        vipRepo,
		rewardPoolRepo: rewardPoolRepo,
		affiliateRepo:  affiliateRepo,
		walletService:  walletService,
		eventPublisher: eventPublisher,
	}
}

// Distribute fans the house-edge share of a settled bet out to VIP
// progression, the tenant reward pool and affiliate commission, then marks
// the bet distributed. Idempotent per bet: a bet already flagged is a
// no-op, and the flag flips in the same transaction as the three ledgers,
// so a retried run applies effects at most once.
func (s *distributionService) Distribute(ctx context.Context, bet *entities.Bet) error {
	if bet.Distributed {
		return nil
	}
	if !bet.Status.IsTerminal() {
		return fmt.Errorf("bet %s is not settled", bet.ID)
	}

	cfg := config.Get()
	houseShare := bet.Stake.Mul(cfg.HouseEdgeFor(bet.TenantID))

	xpAwarded, err := s.progressVIP(ctx, bet)
	if err != nil {
		return &entities.DistributionError{BetID: bet.ID, Stage: "vip", Err: err}
	}

	if err := s.accrueRewardPool(ctx, houseShare); err != nil {
		return &entities.DistributionError{BetID: bet.ID, Stage: "reward_pool", Err: err}
	}

	affiliateAmount, err := s.creditAffiliate(ctx, bet, houseShare)
	if err != nil {
		return &entities.DistributionError{BetID: bet.ID, Stage: "affiliate", Err: err}
	}

	bet.Distributed = true
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return &entities.DistributionError{BetID: bet.ID, Stage: "flag", Err: err}
	}

	if err := s.eventPublisher.Publish(events.DistributionCompletedEvent{
		BetID:            bet.ID,
		TenantID:         bet.TenantID,
		PoolContribution: houseShare,
		AffiliateAmount:  affiliateAmount,
		XPAwarded:        xpAwarded,
	}); err != nil {
		log.WithError(err).WithField("betID", bet.ID).Error("Failed to publish distribution completed event")
	}

	return nil
}

// progressVIP accrues wagering XP and credits the sticky level-up bonus
// when a threshold is crossed.
func (s *distributionService) progressVIP(ctx context.Context, bet *entities.Bet) (int64, error) {
	cfg := config.Get()

	progress, err := s.vipRepo.GetOrCreateForUpdate(ctx, bet.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to lock vip progress: %w", err)
	}

	xp := bet.Stake.Mul(decimal.NewFromInt(cfg.XPPerUnitStaked)).IntPart()
	if xp <= 0 {
		return 0, nil
	}

	oldLevel := progress.Level
	progress.XP += xp
	progress.Level = entities.LevelForXP(progress.XP)

	if err := s.vipRepo.Update(ctx, progress); err != nil {
		return 0, fmt.Errorf("failed to update vip progress: %w", err)
	}

	if progress.Level > oldLevel {
		bonus := entities.LevelUpBonus(progress.Level)
		if err := s.walletService.Credit(ctx, bet.WalletID, bonus, entities.PortionBonus, entities.TransactionTypeLevelUpBonus, &bet.ID); err != nil {
			return 0, fmt.Errorf("failed to credit level-up bonus: %w", err)
		}

		if err := s.eventPublisher.Publish(events.VIPLevelUpEvent{
			TenantID: bet.TenantID,
			UserID:   bet.UserID,
			OldLevel: oldLevel,
			NewLevel: progress.Level,
			Bonus:    bonus,
		}); err != nil {
			log.WithError(err).WithField("userID", bet.UserID).Error("Failed to publish level-up event")
		}
	}

	return xp, nil
}

// accrueRewardPool adds the house-edge share to the tenant pool,
// independent of bet outcome.
func (s *distributionService) accrueRewardPool(ctx context.Context, houseShare decimal.Decimal) error {
	pool, err := s.rewardPoolRepo.GetOrCreateForUpdate(ctx)
	if err != nil {
		return fmt.Errorf("failed to lock reward pool: %w", err)
	}

	pool.AccumulatedContributions = pool.AccumulatedContributions.Add(houseShare)
	pool.Distributable = pool.Distributable.Add(houseShare)

	if err := s.rewardPoolRepo.Update(ctx, pool); err != nil {
		return fmt.Errorf("failed to update reward pool: %w", err)
	}
	return nil
}

// creditAffiliate appends a commission entry for the referrer, if any.
// Bookkeeping only; payout to the referrer's wallet is a separate claim
// flow unless instant payout is enabled.
func (s *distributionService) creditAffiliate(ctx context.Context, bet *entities.Bet, houseShare decimal.Decimal) (decimal.Decimal, error) {
	cfg := config.Get()

	referral, err := s.affiliateRepo.GetReferrer(ctx, bet.UserID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to look up referrer: %w", err)
	}
	if referral == nil {
		return decimal.Zero, nil
	}

	amount := houseShare.Mul(cfg.AffiliateCommissionRate)
	if !amount.IsPositive() {
		return decimal.Zero, nil
	}

	entry := &entities.AffiliateEntry{
		TenantID:       bet.TenantID,
		ReferrerID:     referral.ReferrerID,
		ReferredUserID: bet.UserID,
		SourceBetID:    bet.ID,
		Amount:         amount,
	}
	if err := s.affiliateRepo.CreateEntry(ctx, entry); err != nil {
		return decimal.Zero, fmt.Errorf("failed to create affiliate entry: %w", err)
	}

	if cfg.AffiliateInstantPayout {
		referrerWallet, err := s.walletRepo.GetByUser(ctx, referral.ReferrerID, bet.Currency)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get referrer wallet: %w", err)
		}
		if referrerWallet != nil {
			if err := s.walletService.Credit(ctx, referrerWallet.ID, amount, entities.PortionCash, entities.TransactionTypeAffiliatePayout, &bet.ID); err != nil {
				return decimal.Zero, fmt.Errorf("failed to pay referrer: %w", err)
			}
		}
	}

	return amount, nil
}

// ClaimRewardPool decrements the distributable pot for an external
// rakeback payout.
func (s *distributionService) ClaimRewardPool(ctx context.Context, amount decimal.Decimal) (*entities.RewardPoolAccount, error) {
	if !amount.IsPositive() {
		return nil, entities.ErrInvalidAmount
	}

	pool, err := s.rewardPoolRepo.GetOrCreateForUpdate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to lock reward pool: %w", err)
	}
	if !pool.CanClaim(amount) {
		return nil, &entities.InsufficientFundsError{
			Available: pool.Distributable,
			Requested: amount,
		}
	}

	pool.Distributable = pool.Distributable.Sub(amount)
	if err := s.rewardPoolRepo.Update(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to update reward pool: %w", err)
	}
	return pool, nil
}
