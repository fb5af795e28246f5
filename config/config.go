package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"casino/database"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// House configuration
	HouseEdgeRate       decimal.Decimal            // fraction of every stake routed to distribution (e.g. 0.04)
	TenantHouseEdgeRate map[string]decimal.Decimal // per-tenant overrides of HouseEdgeRate

	// Reward distribution configuration
	XPPerUnitStaked         int64           // VIP XP accrued per whole currency unit staked
	AffiliateCommissionRate decimal.Decimal // referrer share of the house-edge contribution
	AffiliateInstantPayout  bool            // pay commission to the referrer wallet immediately

	// Wallet configuration
	DefaultCurrency string

	// Worker configuration
	DistributionRetryMinutes int // interval between distribution retry sweeps
	StuckBetCutoffMinutes    int // age after which a pending bet is considered stuck

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// House settings with defaults
		HouseEdgeRate:           decimal.NewFromFloat(0.04),
		XPPerUnitStaked:         100,
		AffiliateCommissionRate: decimal.NewFromFloat(0.10),
		AffiliateInstantPayout:  false,

		// Wallet
		DefaultCurrency: getEnvWithDefault("DEFAULT_CURRENCY", "USDT"),

		// Workers
		DistributionRetryMinutes: 1,
		StuckBetCutoffMinutes:    30,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if edge := os.Getenv("HOUSE_EDGE_RATE"); edge != "" {
		parsed, err := decimal.NewFromString(edge)
		if err != nil || parsed.IsNegative() || parsed.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("HOUSE_EDGE_RATE must be a decimal in [0,1): %q", edge)
		}
		config.HouseEdgeRate = parsed
	}
	if overrides := os.Getenv("TENANT_HOUSE_EDGE_RATES"); overrides != "" {
		parsed, err := parseTenantRates(overrides)
		if err != nil {
			return nil, fmt.Errorf("invalid TENANT_HOUSE_EDGE_RATES: %w", err)
		}
		config.TenantHouseEdgeRate = parsed
	}
	if rate := os.Getenv("AFFILIATE_COMMISSION_RATE"); rate != "" {
		parsed, err := decimal.NewFromString(rate)
		if err != nil || parsed.IsNegative() {
			return nil, fmt.Errorf("AFFILIATE_COMMISSION_RATE must be a non-negative decimal: %q", rate)
		}
		config.AffiliateCommissionRate = parsed
	}
	if xp := os.Getenv("XP_PER_UNIT_STAKED"); xp != "" {
		if parsed, err := strconv.ParseInt(xp, 10, 64); err == nil {
			config.XPPerUnitStaked = parsed
		}
	}
	if instant := os.Getenv("AFFILIATE_INSTANT_PAYOUT"); instant != "" {
		config.AffiliateInstantPayout = instant == "true" || instant == "1"
	}
	if retry := os.Getenv("DISTRIBUTION_RETRY_MINUTES"); retry != "" {
		if parsed, err := strconv.Atoi(retry); err == nil && parsed > 0 {
			config.DistributionRetryMinutes = parsed
		}
	}
	if cutoff := os.Getenv("STUCK_BET_CUTOFF_MINUTES"); cutoff != "" {
		if parsed, err := strconv.Atoi(cutoff); err == nil && parsed > 0 {
			config.StuckBetCutoffMinutes = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// HouseEdgeFor returns the house edge for a tenant, falling back to the
// global rate when the tenant has no override.
func (c *Config) HouseEdgeFor(tenantID string) decimal.Decimal {
	if rate, ok := c.TenantHouseEdgeRate[tenantID]; ok {
		return rate
	}
	return c.HouseEdgeRate
}

// parseTenantRates parses "tenant-id=0.05,tenant-id=0.03" pairs
func parseTenantRates(raw string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("malformed pair %q", pair)
		}
		rate, err := decimal.NewFromString(parts[1])
		if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("rate for %s must be a decimal in [0,1): %q", parts[0], parts[1])
		}
		rates[parts[0]] = rate
	}
	return rates, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		HouseEdgeRate:           decimal.NewFromFloat(0.04),
		XPPerUnitStaked:         100,
		AffiliateCommissionRate: decimal.NewFromFloat(0.10),
		DefaultCurrency:         "USDT",

		DistributionRetryMinutes: 1,
		StuckBetCutoffMinutes:    30,
	}
}
