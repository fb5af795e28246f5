package events

import "github.com/shopspring/decimal"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange         EventType = "balance_change"
	EventTypeBetSettled            EventType = "bet_settled"
	EventTypeVIPLevelUp            EventType = "vip_level_up"
	EventTypeSeedRotated           EventType = "seed_rotated"
	EventTypeDistributionCompleted EventType = "distribution_completed"
	EventTypeDistributionFailed    EventType = "distribution_failed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a wallet balance change that occurred
type BalanceChangeEvent struct {
	WalletID        string
	TenantID        string
	UserID          string
	OldBalance      decimal.Decimal
	NewBalance      decimal.Decimal
	ChangeAmount    decimal.Decimal
	TransactionType string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// BetSettledEvent represents a bet reaching a terminal status
type BetSettledEvent struct {
	BetID      string
	TenantID   string
	UserID     string
	GameType   string
	Stake      decimal.Decimal
	Payout     decimal.Decimal
	Status     string
	Multiplier decimal.Decimal
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// VIPLevelUpEvent represents a user crossing a VIP level threshold
type VIPLevelUpEvent struct {
	TenantID string
	UserID   string
	OldLevel int
	NewLevel int
	Bonus    decimal.Decimal
}

func (e VIPLevelUpEvent) Type() EventType {
	return EventTypeVIPLevelUp
}

// SeedRotatedEvent discloses a retired server seed for fairness verification
type SeedRotatedEvent struct {
	SeedPairID     string
	UserID         string
	ServerSeed     string
	ServerSeedHash string
	FinalNonce     int64
}

func (e SeedRotatedEvent) Type() EventType {
	return EventTypeSeedRotated
}

// DistributionCompletedEvent marks the reward fan-out done for a bet
type DistributionCompletedEvent struct {
	BetID            string
	TenantID         string
	PoolContribution decimal.Decimal
	AffiliateAmount  decimal.Decimal
	XPAwarded        int64
}

func (e DistributionCompletedEvent) Type() EventType {
	return EventTypeDistributionCompleted
}

// DistributionFailedEvent marks a fan-out failure queued for retry
type DistributionFailedEvent struct {
	BetID  string
	Reason string
}

func (e DistributionFailedEvent) Type() EventType {
	return EventTypeDistributionFailed
}
