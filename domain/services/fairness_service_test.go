package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFairnessService_NewServerSeed(t *testing.T) {
	service := NewFairnessService()

	seed, hash, err := service.NewServerSeed()
	require.NoError(t, err)

	assert.Len(t, seed, 64)
	assert.Len(t, hash, 64)
	assert.Equal(t, HashServerSeed(seed), hash)

	// Two seeds must never collide
	seed2, hash2, err := service.NewServerSeed()
	require.NoError(t, err)
	assert.NotEqual(t, seed, seed2)
	assert.NotEqual(t, hash, hash2)
}

func TestFairnessService_Outcome_Deterministic(t *testing.T) {
	service := NewFairnessService()

	first := service.Outcome("server-seed", "client-seed", 7, 0)
	second := service.Outcome("server-seed", "client-seed", 7, 0)
	assert.Equal(t, first, second)

	// Any input change moves the outcome
	assert.NotEqual(t, first, service.Outcome("server-seed", "client-seed", 8, 0))
	assert.NotEqual(t, first, service.Outcome("server-seed", "client-seed", 7, 1))
	assert.NotEqual(t, first, service.Outcome("server-seed", "other-client", 7, 0))
	assert.NotEqual(t, first, service.Outcome("other-server", "client-seed", 7, 0))
}

func TestFairnessService_Outcome_Range(t *testing.T) {
	service := NewFairnessService()

	for nonce := int64(0); nonce < 500; nonce++ {
		roll := service.Outcome("server-seed", "client-seed", nonce, 0)
		assert.GreaterOrEqual(t, roll, 0.0)
		assert.Less(t, roll, 1.0)
	}
}

func TestFairnessService_MinePositions(t *testing.T) {
	service := NewFairnessService()

	positions := service.MinePositions("server-seed", "client-seed", 3, 25, 5)
	require.Len(t, positions, 5)

	seen := make(map[int]bool)
	for _, p := range positions {
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, 25)
		assert.False(t, seen[p], "mine position %d drawn twice", p)
		seen[p] = true
	}

	// The hazard map is fixed by the seed triple
	again := service.MinePositions("server-seed", "client-seed", 3, 25, 5)
	assert.Equal(t, positions, again)

	// A different nonce produces a different board
	other := service.MinePositions("server-seed", "client-seed", 4, 25, 5)
	assert.NotEqual(t, positions, other)
}

func TestFairnessService_MinePositions_FullBoard(t *testing.T) {
	service := NewFairnessService()

	// mines == tiles-1 still yields distinct in-range positions
	positions := service.MinePositions("server-seed", "client-seed", 1, 9, 8)
	require.Len(t, positions, 8)

	seen := make(map[int]bool)
	for _, p := range positions {
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, 9)
		seen[p] = true
	}
	assert.Len(t, seen, 8)
}
