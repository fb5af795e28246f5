package application

import (
	"context"
	"fmt"
	"time"

	"casino/config"

	log "github.com/sirupsen/logrus"
)

// TenantDiscovery lists tenants with unfinished settlement work.
type TenantDiscovery interface {
	ListTenantsWithPendingWork(ctx context.Context) ([]string, error)
}

// DistributionWorker retries failed reward fan-outs and sweeps stuck
// pending bets. Both effects are idempotent, so overlapping runs and
// crash-restart replays are safe.
type DistributionWorker struct {
	engine     *WalletEngine
	uowFactory UnitOfWorkFactory
	tenants    TenantDiscovery
	kick       chan struct{}
}

// NewDistributionWorker creates a new distribution retry worker
func NewDistributionWorker(engine *WalletEngine, uowFactory UnitOfWorkFactory, tenants TenantDiscovery) *DistributionWorker {
	return &DistributionWorker{
		engine:     engine,
		uowFactory: uowFactory,
		tenants:    tenants,
		kick:       make(chan struct{}, 1),
	}
}

// Notify schedules a sweep ahead of the next tick. Non-blocking; nudges
// arriving while a sweep is already scheduled coalesce into one.
func (w *DistributionWorker) Notify() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Start begins the periodic sweep. The returned function stops the worker.
func (w *DistributionWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	interval := time.Duration(config.Get().DistributionRetryMinutes) * time.Minute

	go func() {
		log.WithField("interval", interval).Info("Distribution retry worker started")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Distribution retry worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Distribution retry worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				if err := w.sweep(ctx); err != nil {
					log.WithError(err).Error("Distribution sweep failed")
				}
			case <-w.kick:
				if err := w.sweep(ctx); err != nil {
					log.WithError(err).Error("Distribution sweep failed")
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// sweep processes every tenant with pending work.
func (w *DistributionWorker) sweep(ctx context.Context) error {
	tenantIDs, err := w.tenants.ListTenantsWithPendingWork(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	for _, tenantID := range tenantIDs {
		if err := w.sweepTenant(ctx, tenantID); err != nil {
			log.WithError(err).WithField("tenantID", tenantID).Error("Tenant sweep failed")
			// Continue with other tenants
		}
	}
	return nil
}

func (w *DistributionWorker) sweepTenant(ctx context.Context, tenantID string) error {
	undistributed, stuck, err := w.collect(ctx, tenantID)
	if err != nil {
		return err
	}

	var retried, settled int
	for _, betID := range undistributed {
		if err := w.engine.DistributeBet(ctx, tenantID, betID); err != nil {
			log.WithError(err).WithField("betID", betID).Warn("Distribution retry failed")
			continue
		}
		retried++
	}

	for _, betID := range stuck {
		if _, err := w.engine.ResolveBet(ctx, tenantID, betID); err != nil {
			log.WithError(err).WithField("betID", betID).Warn("Stuck bet settlement failed")
			continue
		}
		settled++
	}

	if retried > 0 || settled > 0 {
		log.WithFields(log.Fields{
			"tenantID":       tenantID,
			"redistributed":  retried,
			"settledPending": settled,
		}).Info("Completed distribution sweep")
	}
	return nil
}

// collect reads the work lists in a short read-only transaction.
func (w *DistributionWorker) collect(ctx context.Context, tenantID string) (undistributed, stuck []string, err error) {
	uow := w.uowFactory.CreateForTenant(tenantID)
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetUndistributed(ctx, 100)
	if err != nil {
		return nil, nil, err
	}
	for _, bet := range bets {
		undistributed = append(undistributed, bet.ID)
	}

	cutoff := time.Now().UTC().Add(-time.Duration(config.Get().StuckBetCutoffMinutes) * time.Minute)
	pending, err := uow.BetRepository().GetStuckPending(ctx, cutoff)
	if err != nil {
		return nil, nil, err
	}
	for _, bet := range pending {
		// Multi-step bets stay pending while their session is live; the
		// player may just be thinking.
		if bet.GameType.IsMultiStep() {
			continue
		}
		stuck = append(stuck, bet.ID)
	}

	return undistributed, stuck, nil
}
