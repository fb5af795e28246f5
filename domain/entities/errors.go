package entities

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for the settlement core. Callers match with errors.Is;
// the structured variants below unwrap to these so both styles work.
var (
	ErrInvalidBetParameters       = errors.New("invalid bet parameters")
	ErrInvalidAmount              = errors.New("amount must be positive")
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrNoActiveGame               = errors.New("no active game")
	ErrConcurrencyConflict        = errors.New("concurrent modification, retry")
	ErrWalletNotFound             = errors.New("wallet not found")
	ErrWithdrawalExceedsAvailable = errors.New("withdrawal exceeds withdrawable balance")
)

// InsufficientFundsError is returned when a stake reservation cannot be
// covered by balance minus locked funds. It carries the figures needed to
// render a user-facing message.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: have %s available, need %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// InsufficientWithdrawableError is returned by the withdrawal guard when a
// requested amount would dip into the sticky bonus portion of the balance.
type InsufficientWithdrawableError struct {
	Total        decimal.Decimal
	Bonus        decimal.Decimal
	Withdrawable decimal.Decimal
	Requested    decimal.Decimal
}

func (e *InsufficientWithdrawableError) Error() string {
	return fmt.Sprintf(
		"insufficient withdrawable balance: total %s, bonus (non-withdrawable) %s, withdrawable %s, requested %s",
		e.Total.StringFixed(2), e.Bonus.StringFixed(2),
		e.Withdrawable.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientWithdrawableError) Unwrap() error {
	return ErrWithdrawalExceedsAvailable
}

// BetParameterError is returned when game-specific bet parameters are out of
// bounds (e.g. mine count larger than the board).
type BetParameterError struct {
	Reason string
}

func (e *BetParameterError) Error() string {
	return fmt.Sprintf("invalid bet parameters: %s", e.Reason)
}

func (e *BetParameterError) Unwrap() error {
	return ErrInvalidBetParameters
}

// DistributionError marks a reward fan-out failure. Settlement is already
// final when it occurs; the bet stays flagged for asynchronous retry.
type DistributionError struct {
	BetID string
	Stage string
	Err   error
}

func (e *DistributionError) Error() string {
	return fmt.Sprintf("distribution failed for bet %s at %s: %v", e.BetID, e.Stage, e.Err)
}

func (e *DistributionError) Unwrap() error {
	return e.Err
}
