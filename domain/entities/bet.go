package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameType identifies the game a bet was placed on.
type GameType string

const (
	GameDice     GameType = "dice"
	GameLimbo    GameType = "limbo"
	GameCrash    GameType = "crash"
	GamePlinko   GameType = "plinko"
	GameOlympus  GameType = "olympus"
	GamePenalty  GameType = "penalty"
	GameCardRush GameType = "card_rush"
	GameMines    GameType = "mines"
)

// IsMultiStep reports whether the game settles over several reveal steps
// instead of a single outcome.
func (g GameType) IsMultiStep() bool {
	return g == GameMines
}

// Valid reports whether the game type is one the engine can settle.
func (g GameType) Valid() bool {
	switch g {
	case GameDice, GameLimbo, GameCrash, GamePlinko, GameOlympus, GamePenalty, GameCardRush, GameMines:
		return true
	}
	return false
}

// BetStatus is the terminal-state machine of a bet record.
type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetWon     BetStatus = "won"
	BetLost    BetStatus = "lost"
)

// IsTerminal reports whether the status admits no further transitions.
// Settlement never cancels a bet; recovery re-drives it instead.
func (s BetStatus) IsTerminal() bool {
	return s == BetWon || s == BetLost
}

// Bet is the append-only audit record of one wager. Once settled it is
// immutable except for the distributed flag, which tracks the reward
// fan-out separately from the player-facing outcome.
type Bet struct {
	ID          string          `db:"id"`
	TenantID    string          `db:"tenant_id"`
	UserID      string          `db:"user_id"`
	WalletID    string          `db:"wallet_id"`
	Currency    string          `db:"currency"`
	GameType    GameType        `db:"game_type"`
	Stake       decimal.Decimal `db:"stake"`
	BonusStake  decimal.Decimal `db:"bonus_stake"`
	Status      BetStatus       `db:"status"`
	Outcome     float64         `db:"outcome"`
	Multiplier  decimal.Decimal `db:"multiplier"`
	Payout      decimal.Decimal `db:"payout"`
	SeedPairID  string          `db:"seed_pair_id"`
	Nonce       int64           `db:"nonce"`
	Distributed bool            `db:"distributed"`
	GameParams  map[string]any  `db:"game_params"`
	CreatedAt   time.Time       `db:"created_at"`
	SettledAt   *time.Time      `db:"settled_at"`
}

// NetResult returns payout minus stake.
func (b *Bet) NetResult() decimal.Decimal {
	return b.Payout.Sub(b.Stake)
}

// BonusShare returns the fraction of the stake funded by sticky bonus,
// in [0,1]. Payouts inherit this split so bonus-funded winnings stay sticky.
func (b *Bet) BonusShare() decimal.Decimal {
	if b.Stake.IsZero() {
		return decimal.Zero
	}
	return b.BonusStake.Div(b.Stake)
}

// BetResult is the public view returned to the caller after settlement.
// It never exposes the raw server seed.
type BetResult struct {
	BetID      string
	Status     BetStatus
	Stake      decimal.Decimal
	Multiplier decimal.Decimal
	Payout     decimal.Decimal
	NewBalance decimal.Decimal
}
