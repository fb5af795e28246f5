package services

import (
	"context"
	"fmt"

	"casino/domain/entities"
	"casino/domain/interfaces"
	"casino/domain/utils"

	"github.com/shopspring/decimal"
)

type walletService struct {
	walletRepo     interfaces.WalletRepository
	betRepo        interfaces.BetRepository
	ledgerRepo     interfaces.LedgerRepository
	eventPublisher interfaces.EventPublisher
}

// NewWalletService creates a new wallet service. All methods must run
// inside the unit of work the repositories are bound to.
func NewWalletService(walletRepo interfaces.WalletRepository, betRepo interfaces.BetRepository, ledgerRepo interfaces.LedgerRepository, eventPublisher interfaces.EventPublisher) interfaces.WalletService {
	return &walletService{
		walletRepo:     walletRepo,
		betRepo:        betRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// ReserveStake locks amount against the wallet for a pending bet. The bet
// record doubles as the idempotence marker: if it already exists, the
// reservation was applied in a previously committed transaction and the
// replay is a no-op.
func (s *walletService) ReserveStake(ctx context.Context, walletID, betID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return entities.ErrInvalidAmount
	}

	existing, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return fmt.Errorf("failed to check for existing bet %s: %w", betID, err)
	}
	if existing != nil {
		return nil
	}

	wallet, err := s.walletRepo.GetForUpdate(ctx, walletID)
	if err != nil {
		return fmt.Errorf("failed to lock wallet %s: %w", walletID, err)
	}
	if wallet == nil {
		return entities.ErrWalletNotFound
	}

	if !wallet.CanReserve(amount) {
		return &entities.InsufficientFundsError{
			Available: wallet.Available(),
			Requested: amount,
		}
	}

	wallet.LockedBalance = wallet.LockedBalance.Add(amount)
	if err := wallet.CheckInvariants(); err != nil {
		return fmt.Errorf("wallet %s invariant violated after reservation: %w", walletID, err)
	}

	if err := s.walletRepo.UpdateBalances(ctx, wallet); err != nil {
		return fmt.Errorf("failed to persist reservation on wallet %s: %w", walletID, err)
	}

	return nil
}

// SettleStake releases the reservation and consumes the stake. The bonus
// portion recorded at placement is burned from bonusBalance here; play is
// the only way sticky bonus ever leaves the wallet.
func (s *walletService) SettleStake(ctx context.Context, walletID, betID string, amount, bonusPortion decimal.Decimal) error {
	if !amount.IsPositive() || bonusPortion.IsNegative() || bonusPortion.GreaterThan(amount) {
		return entities.ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetForUpdate(ctx, walletID)
	if err != nil {
		return fmt.Errorf("failed to lock wallet %s: %w", walletID, err)
	}
	if wallet == nil {
		return entities.ErrWalletNotFound
	}

	balanceBefore := wallet.Balance
	wallet.LockedBalance = wallet.LockedBalance.Sub(amount)
	if wallet.LockedBalance.IsNegative() {
		wallet.LockedBalance = decimal.Zero
	}
	wallet.Balance = wallet.Balance.Sub(amount)
	burned := decimal.Min(bonusPortion, wallet.BonusBalance)
	wallet.BonusBalance = wallet.BonusBalance.Sub(burned)

	if err := wallet.CheckInvariants(); err != nil {
		return fmt.Errorf("wallet %s invariant violated settling stake: %w", walletID, err)
	}
	if err := s.walletRepo.UpdateBalances(ctx, wallet); err != nil {
		return fmt.Errorf("failed to persist stake settlement on wallet %s: %w", walletID, err)
	}

	entry := &entities.LedgerEntry{
		WalletID:        wallet.ID,
		TenantID:        wallet.TenantID,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    wallet.Balance,
		ChangeAmount:    amount.Neg(),
		TransactionType: entities.TransactionTypeStakeSettled,
		RelatedBetID:    &betID,
		Metadata: map[string]any{
			"bonus_portion": burned.String(),
		},
	}
	return utils.RecordLedgerEntry(ctx, s.ledgerRepo, s.eventPublisher, wallet, entry)
}

// Credit adds winnings or bonuses to the wallet. PortionBonus raises both
// balance and bonusBalance by the same amount so the credit stays sticky.
func (s *walletService) Credit(ctx context.Context, walletID string, amount decimal.Decimal, portion entities.CreditPortion, txType entities.TransactionType, relatedBetID *string) error {
	if amount.IsNegative() {
		return entities.ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}

	wallet, err := s.walletRepo.GetForUpdate(ctx, walletID)
	if err != nil {
		return fmt.Errorf("failed to lock wallet %s: %w", walletID, err)
	}
	if wallet == nil {
		return entities.ErrWalletNotFound
	}

	balanceBefore := wallet.Balance
	wallet.Balance = wallet.Balance.Add(amount)
	if portion == entities.PortionBonus {
		wallet.BonusBalance = wallet.BonusBalance.Add(amount)
	}

	if err := wallet.CheckInvariants(); err != nil {
		return fmt.Errorf("wallet %s invariant violated crediting: %w", walletID, err)
	}
	if err := s.walletRepo.UpdateBalances(ctx, wallet); err != nil {
		return fmt.Errorf("failed to persist credit on wallet %s: %w", walletID, err)
	}

	entry := &entities.LedgerEntry{
		WalletID:        wallet.ID,
		TenantID:        wallet.TenantID,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    wallet.Balance,
		ChangeAmount:    amount,
		TransactionType: txType,
		RelatedBetID:    relatedBetID,
		Metadata: map[string]any{
			"portion": string(portion),
		},
	}
	return utils.RecordLedgerEntry(ctx, s.ledgerRepo, s.eventPublisher, wallet, entry)
}

// DebitForWithdrawal removes funds leaving the system. The withdrawal
// guard is evaluated against the locked row inside the same transaction as
// the debit, so the balance cannot change between check and debit. Sticky
// bonus is never reduced by a withdrawal.
func (s *walletService) DebitForWithdrawal(ctx context.Context, walletID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return entities.ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetForUpdate(ctx, walletID)
	if err != nil {
		return fmt.Errorf("failed to lock wallet %s: %w", walletID, err)
	}
	if wallet == nil {
		return entities.ErrWalletNotFound
	}

	withdrawable := wallet.Withdrawable()
	if amount.GreaterThan(withdrawable) {
		return &entities.InsufficientWithdrawableError{
			Total:        wallet.Balance,
			Bonus:        wallet.BonusBalance,
			Withdrawable: withdrawable,
			Requested:    amount,
		}
	}

	balanceBefore := wallet.Balance
	wallet.Balance = wallet.Balance.Sub(amount)

	if err := wallet.CheckInvariants(); err != nil {
		return fmt.Errorf("wallet %s invariant violated withdrawing: %w", walletID, err)
	}
	if err := s.walletRepo.UpdateBalances(ctx, wallet); err != nil {
		return fmt.Errorf("failed to persist withdrawal on wallet %s: %w", walletID, err)
	}

	entry := &entities.LedgerEntry{
		WalletID:        wallet.ID,
		TenantID:        wallet.TenantID,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    wallet.Balance,
		ChangeAmount:    amount.Neg(),
		TransactionType: entities.TransactionTypeWithdrawal,
	}
	return utils.RecordLedgerEntry(ctx, s.ledgerRepo, s.eventPublisher, wallet, entry)
}

// GetWithdrawable returns the balance breakdown used by cashier pre-flight
// checks and UI display.
func (s *walletService) GetWithdrawable(ctx context.Context, walletID string) (*entities.WithdrawableView, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet %s: %w", walletID, err)
	}
	if wallet == nil {
		return nil, entities.ErrWalletNotFound
	}

	return &entities.WithdrawableView{
		Total:        wallet.Balance,
		Bonus:        wallet.BonusBalance,
		Locked:       wallet.LockedBalance,
		Withdrawable: wallet.Withdrawable(),
	}, nil
}
