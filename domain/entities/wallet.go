package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditPortion selects which balance fields a credit touches.
type CreditPortion string

const (
	// PortionCash increases balance only.
	PortionCash CreditPortion = "cash"
	// PortionBonus increases both balance and the sticky bonus balance, so
	// the credited funds stay non-withdrawable until wagered away.
	PortionBonus CreditPortion = "bonus"
)

// Wallet holds the funds of one (tenant, user, currency) triple.
// All mutation goes through the wallet service inside a unit of work;
// nothing outside the core writes these fields.
type Wallet struct {
	ID            string          `db:"id"`
	TenantID      string          `db:"tenant_id"`
	UserID        string          `db:"user_id"`
	Currency      string          `db:"currency"`
	Balance       decimal.Decimal `db:"balance"`
	BonusBalance  decimal.Decimal `db:"bonus_balance"`
	LockedBalance decimal.Decimal `db:"locked_balance"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// Available returns the funds eligible to back a new stake.
func (w *Wallet) Available() decimal.Decimal {
	return w.Balance.Sub(w.LockedBalance)
}

// Withdrawable returns the funds that may leave the system. The sticky
// bonus portion is excluded; it is consumed only through play. Locked
// stakes are excluded until their bet settles. The withdrawal guard
// evaluates this same accessor, so the pre-flight view and the guard
// can never disagree.
func (w *Wallet) Withdrawable() decimal.Decimal {
	withdrawable := w.Balance.Sub(w.BonusBalance).Sub(w.LockedBalance)
	if withdrawable.IsNegative() {
		return decimal.Zero
	}
	return withdrawable
}

// CanReserve reports whether a stake of amount can be locked.
func (w *Wallet) CanReserve(amount decimal.Decimal) bool {
	return w.Available().GreaterThanOrEqual(amount)
}

// CheckInvariants validates 0 <= bonusBalance <= balance and
// lockedBalance <= balance. Violations indicate a bug in a money path.
func (w *Wallet) CheckInvariants() error {
	if w.BonusBalance.IsNegative() {
		return &BetParameterError{Reason: "bonus balance is negative"}
	}
	if w.BonusBalance.GreaterThan(w.Balance) {
		return &BetParameterError{Reason: "bonus balance exceeds balance"}
	}
	if w.LockedBalance.GreaterThan(w.Balance) {
		return &BetParameterError{Reason: "locked balance exceeds balance"}
	}
	return nil
}

// WithdrawableView is the public balance breakdown returned to cashier and
// UI surfaces.
type WithdrawableView struct {
	Total        decimal.Decimal
	Bonus        decimal.Decimal
	Locked       decimal.Decimal
	Withdrawable decimal.Decimal
}

// BonusStats carries lifetime bonus figures for admin reporting.
type BonusStats struct {
	WalletID     string
	BonusGranted decimal.Decimal
	BonusWagered decimal.Decimal
	BonusBalance decimal.Decimal
}
