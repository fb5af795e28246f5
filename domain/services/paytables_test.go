package services

import (
	"testing"

	"casino/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEdge = decimal.NewFromFloat(0.04)

func TestValidateGameParams(t *testing.T) {
	tests := []struct {
		name     string
		gameType entities.GameType
		params   map[string]any
		wantErr  bool
	}{
		{"dice valid", entities.GameDice, map[string]any{"target": 50.0}, false},
		{"dice target too low", entities.GameDice, map[string]any{"target": 1.0}, true},
		{"dice target too high", entities.GameDice, map[string]any{"target": 99.0}, true},
		{"dice missing target", entities.GameDice, map[string]any{}, true},
		{"limbo valid", entities.GameLimbo, map[string]any{"target": 2.0}, false},
		{"crash target below minimum", entities.GameCrash, map[string]any{"target": 1.0}, true},
		{"plinko default risk", entities.GamePlinko, map[string]any{}, false},
		{"plinko bad risk", entities.GamePlinko, map[string]any{"risk": "extreme"}, true},
		{"penalty valid", entities.GamePenalty, map[string]any{"pick": 3}, false},
		{"penalty pick out of range", entities.GamePenalty, map[string]any{"pick": 5}, true},
		{"olympus no params", entities.GameOlympus, map[string]any{}, false},
		{"mines valid", entities.GameMines, map[string]any{"mineCount": 5}, false},
		{"mines zero mines", entities.GameMines, map[string]any{"mineCount": 0}, true},
		{"mines full board", entities.GameMines, map[string]any{"mineCount": 25}, true},
		{"mines custom grid", entities.GameMines, map[string]any{"gridSize": 3, "mineCount": 8}, false},
		{"mines grid too big", entities.GameMines, map[string]any{"gridSize": 9, "mineCount": 5}, true},
		{"unknown game", entities.GameType("roulette"), map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGameParams(tt.gameType, tt.params)
			if tt.wantErr {
				assert.ErrorIs(t, err, entities.ErrInvalidBetParameters)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveSingleShot_Dice(t *testing.T) {
	params := map[string]any{"target": 50.0}

	// Roll under the target wins at edge-adjusted 100/target
	multiplier, won, err := ResolveSingleShot(entities.GameDice, params, 0.30, testEdge)
	require.NoError(t, err)
	assert.True(t, won)
	assert.True(t, multiplier.Equal(decimal.RequireFromString("1.92")),
		"got %s", multiplier)

	// Roll at or above the target loses
	multiplier, won, err = ResolveSingleShot(entities.GameDice, params, 0.50, testEdge)
	require.NoError(t, err)
	assert.False(t, won)
	assert.True(t, multiplier.IsZero())
}

func TestResolveSingleShot_Limbo(t *testing.T) {
	params := map[string]any{"target": 2.0}

	// crashPoint(0.9) = 0.96/0.1 = 9.6 >= 2.0 -> win at target
	multiplier, won, err := ResolveSingleShot(entities.GameLimbo, params, 0.9, testEdge)
	require.NoError(t, err)
	assert.True(t, won)
	assert.True(t, multiplier.Equal(decimal.NewFromInt(2)))

	// crashPoint(0.1) = 0.96/0.9 ~= 1.07 < 2.0 -> loss
	_, won, err = ResolveSingleShot(entities.GameLimbo, params, 0.1, testEdge)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestResolveSingleShot_Penalty(t *testing.T) {
	// Keeper dives to corner 0 on a tiny roll
	params := map[string]any{"pick": 0}
	_, won, err := ResolveSingleShot(entities.GamePenalty, params, 0.01, testEdge)
	require.NoError(t, err)
	assert.False(t, won, "keeper guessed the corner")

	params = map[string]any{"pick": 4}
	multiplier, won, err := ResolveSingleShot(entities.GamePenalty, params, 0.01, testEdge)
	require.NoError(t, err)
	assert.True(t, won)
	assert.True(t, multiplier.Equal(decimal.RequireFromString("1.2")), "got %s", multiplier)
}

func TestResolveSingleShot_Plinko_EdgeBucket(t *testing.T) {
	// A roll of ~0 lands in the leftmost bucket, the jackpot edge
	multiplier, won, err := ResolveSingleShot(entities.GamePlinko, map[string]any{"risk": "high"}, 0.0, testEdge)
	require.NoError(t, err)
	assert.True(t, won)
	assert.True(t, multiplier.Equal(decimal.NewFromInt(960)), "got %s", multiplier)
}

func TestResolveSingleShot_Olympus_Loss(t *testing.T) {
	multiplier, won, err := ResolveSingleShot(entities.GameOlympus, map[string]any{}, 0.2, testEdge)
	require.NoError(t, err)
	assert.False(t, won)
	assert.True(t, multiplier.IsZero())
}

func TestResolveSingleShot_RejectsMultiStep(t *testing.T) {
	_, _, err := ResolveSingleShot(entities.GameMines, map[string]any{"mineCount": 5}, 0.5, testEdge)
	assert.ErrorIs(t, err, entities.ErrInvalidBetParameters)
}

func TestMinesMultiplier(t *testing.T) {
	// No reveals pays nothing above the stake
	assert.True(t, MinesMultiplier(25, 5, 0, testEdge).Equal(decimal.NewFromInt(1)))

	// First safe reveal on 25 tiles with 5 mines: 0.96 * 25/20 = 1.2
	assert.True(t, MinesMultiplier(25, 5, 1, testEdge).Equal(decimal.RequireFromString("1.2")))

	// Multiplier grows with every reveal
	previous := decimal.NewFromInt(1)
	for revealed := 1; revealed <= 20; revealed++ {
		m := MinesMultiplier(25, 5, revealed, testEdge)
		assert.True(t, m.GreaterThan(previous), "multiplier should grow at reveal %d", revealed)
		previous = m
	}
}
