package entities

import "github.com/shopspring/decimal"

// PlaceBetRequest carries everything needed to open a bet. GameParams are
// validated per game before any money moves.
type PlaceBetRequest struct {
	BetID      string // optional; supplied on replay for idempotence
	UserID     string
	Currency   string
	GameType   GameType
	Stake      decimal.Decimal
	GameParams map[string]any
}
