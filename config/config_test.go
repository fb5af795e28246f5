package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHouseEdgeFor(t *testing.T) {
	cfg := NewTestConfig()
	cfg.TenantHouseEdgeRate = map[string]decimal.Decimal{
		"tenant-high": decimal.NewFromFloat(0.06),
	}

	assert.True(t, cfg.HouseEdgeFor("tenant-high").Equal(decimal.NewFromFloat(0.06)))
	assert.True(t, cfg.HouseEdgeFor("tenant-other").Equal(decimal.NewFromFloat(0.04)),
		"unlisted tenants fall back to the global rate")
}

func TestParseTenantRates(t *testing.T) {
	rates, err := parseTenantRates("a=0.05, b=0.02")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.True(t, rates["a"].Equal(decimal.NewFromFloat(0.05)))
	assert.True(t, rates["b"].Equal(decimal.NewFromFloat(0.02)))

	_, err = parseTenantRates("a=1.5")
	assert.Error(t, err)

	_, err = parseTenantRates("missing-rate")
	assert.Error(t, err)

	_, err = parseTenantRates("=0.05")
	assert.Error(t, err)
}
