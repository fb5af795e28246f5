package infrastructure

import (
	"sync"

	"casino/domain/entities"
)

// GameLock serializes multi-step game operations per game ID within this
// process. The database row lock is the real guard; this keeps competing
// reveals from piling up on the row and turns the race into a fast
// ConcurrencyConflict instead of a blocked transaction.
type GameLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGameLock creates a new per-game lock registry
func NewGameLock() *GameLock {
	return &GameLock{
		locks: make(map[string]*sync.Mutex),
	}
}

func (g *GameLock) get(gameID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	lock, ok := g.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[gameID] = lock
	}
	return lock
}

// Acquire takes the lock for gameID, failing fast when another operation
// on the same game is in flight.
func (g *GameLock) Acquire(gameID string) (release func(), err error) {
	lock := g.get(gameID)
	if !lock.TryLock() {
		return nil, entities.ErrConcurrencyConflict
	}
	return lock.Unlock, nil
}

// Forget drops the lock entry for a finished game.
func (g *GameLock) Forget(gameID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.locks, gameID)
}
