package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateEntry is an append-only commission record credited to a
// referrer from the house-edge share of a referred user's settled bet.
type AffiliateEntry struct {
	ID             int64           `db:"id"`
	TenantID       string          `db:"tenant_id"`
	ReferrerID     string          `db:"referrer_id"`
	ReferredUserID string          `db:"referred_user_id"`
	SourceBetID    string          `db:"source_bet_id"`
	Amount         decimal.Decimal `db:"amount"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Referral links a referred user to their referrer within a tenant.
type Referral struct {
	TenantID   string    `db:"tenant_id"`
	UserID     string    `db:"user_id"`
	ReferrerID string    `db:"referrer_id"`
	CreatedAt  time.Time `db:"created_at"`
}
