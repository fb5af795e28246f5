package services

import (
	"fmt"
	"math"

	"casino/domain/entities"

	"github.com/shopspring/decimal"
)

// Single-shot games map one outcome roll in [0,1) to a payout multiplier.
// House edge is applied inside each pay table so settlement only multiplies
// stake by the returned value.

const (
	diceMinTarget = 2.0
	diceMaxTarget = 98.0

	minTargetMultiplier = 1.01
	maxTargetMultiplier = 10_000.0

	defaultGridSize = 5
	minGridSize     = 3
	maxGridSize     = 7

	penaltyCorners = 5
	cardRanks      = 13
)

// plinkoMultipliers maps risk level to the 17-bucket multiplier row of a
// 16-row board (original board layout, edges pay large, center pays small).
var plinkoMultipliers = map[string][]float64{
	"low":    {16, 9, 2, 1.4, 1.4, 1.2, 1.1, 1, 0.5, 1, 1.1, 1.2, 1.4, 1.4, 2, 9, 16},
	"medium": {110, 41, 10, 5, 3, 1.5, 1, 0.5, 0.3, 0.5, 1, 1.5, 3, 5, 10, 41, 110},
	"high":   {1000, 130, 26, 9, 4, 2, 0.2, 0.2, 0.2, 0.2, 0.2, 2, 4, 9, 26, 130, 1000},
}

// olympusWheel is a weighted multiplier wheel: cumulative probability
// boundaries paired with multipliers.
var olympusWheel = []struct {
	cumulative float64
	multiplier float64
}{
	{0.45, 0},
	{0.70, 1.2},
	{0.85, 2},
	{0.94, 5},
	{0.985, 10},
	{0.998, 50},
	{1.0, 500},
}

// ValidateGameParams checks game-specific bet parameters before any money
// moves. Violations surface as BetParameterError.
func ValidateGameParams(gameType entities.GameType, params map[string]any) error {
	switch gameType {
	case entities.GameDice:
		target, err := floatParam(params, "target")
		if err != nil {
			return err
		}
		if target < diceMinTarget || target > diceMaxTarget {
			return &entities.BetParameterError{
				Reason: fmt.Sprintf("dice target must be between %v and %v", diceMinTarget, diceMaxTarget),
			}
		}
	case entities.GameLimbo, entities.GameCrash:
		target, err := floatParam(params, "target")
		if err != nil {
			return err
		}
		if target < minTargetMultiplier || target > maxTargetMultiplier {
			return &entities.BetParameterError{
				Reason: fmt.Sprintf("target multiplier must be between %v and %v", minTargetMultiplier, maxTargetMultiplier),
			}
		}
	case entities.GamePlinko:
		risk, _ := params["risk"].(string)
		if risk == "" {
			risk = "medium"
		}
		if _, ok := plinkoMultipliers[risk]; !ok {
			return &entities.BetParameterError{Reason: "plinko risk must be low, medium or high"}
		}
	case entities.GamePenalty:
		pick, err := intParam(params, "pick")
		if err != nil {
			return err
		}
		if pick < 0 || pick >= penaltyCorners {
			return &entities.BetParameterError{
				Reason: fmt.Sprintf("penalty pick must be between 0 and %d", penaltyCorners-1),
			}
		}
	case entities.GameOlympus, entities.GameCardRush:
		// No parameters.
	case entities.GameMines:
		gridSize := defaultGridSize
		if _, ok := params["gridSize"]; ok {
			var err error
			gridSize, err = intParam(params, "gridSize")
			if err != nil {
				return err
			}
		}
		if gridSize < minGridSize || gridSize > maxGridSize {
			return &entities.BetParameterError{
				Reason: fmt.Sprintf("grid size must be between %d and %d", minGridSize, maxGridSize),
			}
		}
		mineCount, err := intParam(params, "mineCount")
		if err != nil {
			return err
		}
		if mineCount < 1 || mineCount >= gridSize*gridSize {
			return &entities.BetParameterError{
				Reason: fmt.Sprintf("mine count must be between 1 and %d", gridSize*gridSize-1),
			}
		}
	default:
		return &entities.BetParameterError{Reason: fmt.Sprintf("unknown game type %q", gameType)}
	}
	return nil
}

// ResolveSingleShot maps a fairness roll to the payout multiplier for a
// one-decision game. Returns the multiplier (zero on loss) and whether the
// bet won.
func ResolveSingleShot(gameType entities.GameType, params map[string]any, roll float64, houseEdge decimal.Decimal) (decimal.Decimal, bool, error) {
	edge := 1 - houseEdge.InexactFloat64()

	switch gameType {
	case entities.GameDice:
		// Roll-under: win chance is target percent.
		target, err := floatParam(params, "target")
		if err != nil {
			return decimal.Zero, false, err
		}
		if roll*100 < target {
			return roundMultiplier(edge * 100 / target), true, nil
		}
		return decimal.Zero, false, nil

	case entities.GameLimbo, entities.GameCrash:
		target, err := floatParam(params, "target")
		if err != nil {
			return decimal.Zero, false, err
		}
		if crashPoint(roll, edge) >= target {
			return roundMultiplier(target), true, nil
		}
		return decimal.Zero, false, nil

	case entities.GamePlinko:
		risk, _ := params["risk"].(string)
		if risk == "" {
			risk = "medium"
		}
		row := plinkoMultipliers[risk]
		bucket := plinkoBucket(roll, len(row))
		m := row[bucket] * edge
		return roundMultiplier(m), m >= 1, nil

	case entities.GameOlympus:
		for _, segment := range olympusWheel {
			if roll < segment.cumulative {
				m := segment.multiplier * edge
				return roundMultiplier(m), m >= 1, nil
			}
		}
		return decimal.Zero, false, nil

	case entities.GamePenalty:
		pick, err := intParam(params, "pick")
		if err != nil {
			return decimal.Zero, false, err
		}
		keeper := int(roll * penaltyCorners)
		if keeper >= penaltyCorners {
			keeper = penaltyCorners - 1
		}
		if keeper != pick {
			// Four of five corners score.
			return roundMultiplier(edge * penaltyCorners / (penaltyCorners - 1)), true, nil
		}
		return decimal.Zero, false, nil

	case entities.GameCardRush:
		// Draw a card; ranks eight and above (6 of 13) beat the table.
		rank := int(roll*52) % cardRanks
		if rank >= 7 {
			return roundMultiplier(edge * cardRanks / 6), true, nil
		}
		return decimal.Zero, false, nil
	}

	return decimal.Zero, false, &entities.BetParameterError{
		Reason: fmt.Sprintf("game %q is not single-shot", gameType),
	}
}

// MinesMultiplier returns the payout multiplier after revealed safe tiles
// on a board of tiles with mines hazards: the product of per-step survival
// odds, shaved by the house edge.
func MinesMultiplier(tiles, mines, revealed int, houseEdge decimal.Decimal) decimal.Decimal {
	if revealed <= 0 {
		return decimal.NewFromInt(1)
	}
	m := 1 - houseEdge.InexactFloat64()
	for k := 0; k < revealed; k++ {
		m *= float64(tiles-k) / float64(tiles-mines-k)
	}
	return roundMultiplier(m)
}

// crashPoint converts a uniform roll to the multiplier the round ran to.
func crashPoint(roll float64, edge float64) float64 {
	if roll >= 1 {
		roll = math.Nextafter(1, 0)
	}
	point := edge / (1 - roll)
	if point < 1 {
		return 1
	}
	return point
}

// plinkoBucket walks the roll through the binomial distribution of a board
// with buckets-1 rows.
func plinkoBucket(roll float64, buckets int) int {
	rows := buckets - 1
	cumulative := 0.0
	for b := 0; b < buckets; b++ {
		cumulative += binomialProbability(rows, b)
		if roll < cumulative {
			return b
		}
	}
	return buckets - 1
}

func binomialProbability(n, k int) float64 {
	c := 1.0
	for i := 0; i < k; i++ {
		c = c * float64(n-i) / float64(i+1)
	}
	return c * math.Pow(0.5, float64(n))
}

func roundMultiplier(m float64) decimal.Decimal {
	return decimal.NewFromFloat(m).Round(4)
}

func floatParam(params map[string]any, key string) (float64, error) {
	switch v := params[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, &entities.BetParameterError{Reason: fmt.Sprintf("missing or invalid %q parameter", key)}
}

func intParam(params map[string]any, key string) (int, error) {
	switch v := params[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	}
	return 0, &entities.BetParameterError{Reason: fmt.Sprintf("missing or invalid %q parameter", key)}
}
