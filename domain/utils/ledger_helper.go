package utils

import (
	"context"
	"fmt"

	"casino/domain/entities"
	"casino/domain/events"
	"casino/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordLedgerEntry records a wallet ledger entry and emits the balance
// change event. This is the single entry point for all balance changes in
// the system.
func RecordLedgerEntry(ctx context.Context, ledgerRepo interfaces.LedgerRepository, eventPublisher interfaces.EventPublisher, wallet *entities.Wallet, entry *entities.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}

	if err := ledgerRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	event := events.BalanceChangeEvent{
		WalletID:        entry.WalletID,
		TenantID:        entry.TenantID,
		UserID:          wallet.UserID,
		OldBalance:      entry.BalanceBefore,
		NewBalance:      entry.BalanceAfter,
		ChangeAmount:    entry.ChangeAmount,
		TransactionType: entry.TransactionType.String(),
	}
	log.WithFields(log.Fields{
		"walletID":        event.WalletID,
		"transactionType": event.TransactionType,
		"changeAmount":    event.ChangeAmount,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}
