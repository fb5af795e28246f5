package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle of a multi-step game session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionWon       SessionStatus = "won"
	SessionLost      SessionStatus = "lost"
	SessionCashedOut SessionStatus = "cashed_out"
)

// IsTerminal reports whether the session can take no further steps.
func (s SessionStatus) IsTerminal() bool {
	return s != SessionActive
}

// GameSession holds the in-flight state of a multi-step game (mines).
// At most one active session exists per user per game family; each reveal
// mutates it inside a transaction under a per-session lock.
type GameSession struct {
	ID         string          `db:"id"`
	BetID      string          `db:"bet_id"`
	TenantID   string          `db:"tenant_id"`
	UserID     string          `db:"user_id"`
	GameType   GameType        `db:"game_type"`
	GridSize   int             `db:"grid_size"`
	MineCount  int             `db:"mine_count"`
	Revealed   []int           `db:"revealed"`
	Multiplier decimal.Decimal `db:"multiplier"`
	Status     SessionStatus   `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// Tiles returns the total number of tiles on the board.
func (s *GameSession) Tiles() int {
	return s.GridSize * s.GridSize
}

// SafeTiles returns how many tiles are not mines.
func (s *GameSession) SafeTiles() int {
	return s.Tiles() - s.MineCount
}

// IsRevealed reports whether the tile at position has already been opened.
func (s *GameSession) IsRevealed(position int) bool {
	for _, p := range s.Revealed {
		if p == position {
			return true
		}
	}
	return false
}

// ValidateStep checks that a reveal request targets a legal, unopened tile
// on an active session.
func (s *GameSession) ValidateStep(position int) error {
	if s.Status.IsTerminal() {
		return ErrNoActiveGame
	}
	if position < 0 || position >= s.Tiles() {
		return &BetParameterError{Reason: "tile position out of range"}
	}
	if s.IsRevealed(position) {
		return &BetParameterError{Reason: "tile already revealed"}
	}
	return nil
}

// AllSafeRevealed reports whether every non-mine tile has been opened,
// which force-settles the session as won.
func (s *GameSession) AllSafeRevealed() bool {
	return len(s.Revealed) >= s.SafeTiles()
}

// SessionView is the public state returned after each step. The hazard map
// stays hidden until the session is terminal and the seed is revealed.
type SessionView struct {
	GameID        string
	Status        SessionStatus
	Revealed      []int
	Multiplier    decimal.Decimal
	CurrentPayout decimal.Decimal
	MinePositions []int // populated only on terminal transitions
}
