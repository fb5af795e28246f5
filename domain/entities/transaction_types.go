package entities

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType labels a ledger entry by the money movement it records.
type TransactionType string

const (
	TransactionTypeStakeSettled    TransactionType = "stake_settled"
	TransactionTypePayoutCash      TransactionType = "payout_cash"
	TransactionTypePayoutBonus     TransactionType = "payout_bonus"
	TransactionTypeWithdrawal      TransactionType = "withdrawal"
	TransactionTypeLevelUpBonus    TransactionType = "level_up_bonus"
	TransactionTypeAffiliatePayout TransactionType = "affiliate_payout"
	TransactionTypeBonusGrant      TransactionType = "bonus_grant"
)

// IsPayout reports whether the entry credits winnings.
func (tt TransactionType) IsPayout() bool {
	return tt == TransactionTypePayoutCash || tt == TransactionTypePayoutBonus
}

// IsBonusPortion reports whether the entry moved the sticky bonus balance.
func (tt TransactionType) IsBonusPortion() bool {
	return tt == TransactionTypePayoutBonus ||
		tt == TransactionTypeLevelUpBonus ||
		tt == TransactionTypeBonusGrant
}

func (tt TransactionType) String() string {
	return string(tt)
}

// LedgerEntry records one balance change on a wallet. Append-only; the
// before/after pair makes every mutation auditable and replayable.
type LedgerEntry struct {
	ID              int64           `db:"id"`
	WalletID        string          `db:"wallet_id"`
	TenantID        string          `db:"tenant_id"`
	BalanceBefore   decimal.Decimal `db:"balance_before"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	ChangeAmount    decimal.Decimal `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	Metadata        map[string]any  `db:"metadata"`
	RelatedBetID    *string         `db:"related_bet_id"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Validate checks the arithmetic of the entry.
func (le *LedgerEntry) Validate() error {
	if !le.BalanceAfter.Equal(le.BalanceBefore.Add(le.ChangeAmount)) {
		return errors.New("ledger entry arithmetic is inconsistent")
	}
	return nil
}
