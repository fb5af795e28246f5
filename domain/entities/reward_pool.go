package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardPoolAccount accumulates the house-edge share of every settled bet
// for one tenant. Distribution back to players (rakeback) is triggered
// externally and only ever decrements the distributable balance.
type RewardPoolAccount struct {
	TenantID                 string          `db:"tenant_id"`
	AccumulatedContributions decimal.Decimal `db:"accumulated_contributions"`
	Distributable            decimal.Decimal `db:"distributable"`
	UpdatedAt                time.Time       `db:"updated_at"`
}

// CanClaim reports whether amount can be taken from the distributable pot.
func (r *RewardPoolAccount) CanClaim(amount decimal.Decimal) bool {
	return amount.IsPositive() && r.Distributable.GreaterThanOrEqual(amount)
}
