package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// VIPProgress tracks a user's wagering XP and level within a tenant.
// XP accrues per settled bet; crossing a threshold emits a bonus credit.
type VIPProgress struct {
	TenantID  string    `db:"tenant_id"`
	UserID    string    `db:"user_id"`
	XP        int64     `db:"xp"`
	Level     int       `db:"level"`
	UpdatedAt time.Time `db:"updated_at"`
}

// vipThresholds[i] is the XP required to reach level i+1.
var vipThresholds = []int64{
	1_000, 5_000, 25_000, 100_000, 500_000, 2_500_000, 10_000_000,
}

// LevelForXP returns the level reached at the given XP total.
func LevelForXP(xp int64) int {
	level := 0
	for _, threshold := range vipThresholds {
		if xp < threshold {
			break
		}
		level++
	}
	return level
}

// MaxLevel returns the highest attainable VIP level.
func MaxLevel() int {
	return len(vipThresholds)
}

// LevelUpBonus returns the sticky bonus credited for reaching level.
// Doubles per level from a 5.00 base.
func LevelUpBonus(level int) decimal.Decimal {
	if level <= 0 {
		return decimal.Zero
	}
	bonus := decimal.NewFromInt(5)
	for i := 1; i < level; i++ {
		bonus = bonus.Mul(decimal.NewFromInt(2))
	}
	return bonus
}
