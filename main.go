package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"casino/application"
	"casino/config"
	"casino/database"
	"casino/domain/events"
	"casino/domain/services"
	"casino/infrastructure"
	"casino/repository"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env")
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	// Check for bonus grant subcommand
	if len(os.Args) > 1 && os.Args[1] == "grant-bonus" {
		if err := handleBonusGrant(); err != nil {
			log.Fatal("Bonus grant error: ", err)
		}
		return
	}

	// Check for bonus stats subcommand
	if len(os.Args) > 1 && os.Args[1] == "bonus-stats" {
		if err := handleBonusStats(); err != nil {
			log.Fatal("Bonus stats error: ", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func run(ctx context.Context) error {
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.MigrateUp(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsClient.Close()

	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient)
	if err := eventPublisher.EnsureDomainEventStream(); err != nil {
		return fmt.Errorf("failed to ensure event stream: %w", err)
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, func() application.TransactionalEventPublisher {
		return infrastructure.NewNATSTransactionalPublisher(eventPublisher)
	})

	engine := application.NewWalletEngine(
		uowFactory,
		services.NewFairnessService(),
		infrastructure.NewGameLock(),
		eventPublisher,
	)

	worker := application.NewDistributionWorker(engine, uowFactory, repository.NewTenantDiscovery(db))

	// A distribution failure pulls the next retry sweep forward instead of
	// waiting out the full ticker interval. The local handler covers this
	// instance's own failures; the durable subscription covers failures
	// published by peers.
	eventPublisher.RegisterLocalHandler(events.EventTypeDistributionFailed, func(ctx context.Context, event events.Event) error {
		worker.Notify()
		return nil
	})
	if err := eventPublisher.SubscribeDistributionFailures(func(event events.DistributionFailedEvent) {
		log.WithFields(log.Fields{
			"betID":  event.BetID,
			"reason": event.Reason,
		}).Info("Distribution failure reported, scheduling retry sweep")
		worker.Notify()
	}); err != nil {
		return fmt.Errorf("failed to subscribe to distribution failures: %w", err)
	}

	stopWorker := worker.Start(ctx)
	defer stopWorker()

	log.Info("Wallet engine running")
	<-ctx.Done()
	return nil
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: casino migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// newAdminEngine wires an engine for one-shot admin commands. The admin
// path publishes nothing; events here would have no consumers.
func newAdminEngine(ctx context.Context) (*application.WalletEngine, func(), error) {
	db, err := database.NewConnection(ctx, config.Get().GetDatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, func() application.TransactionalEventPublisher {
		return infrastructure.NewNATSTransactionalPublisher(&dummyEventPublisher{})
	})
	engine := application.NewWalletEngine(
		uowFactory,
		services.NewFairnessService(),
		infrastructure.NewGameLock(),
		&dummyEventPublisher{},
	)
	return engine, db.Close, nil
}

// handleBonusGrant credits sticky bonus funds from the command line for
// promotions and manual compensation.
func handleBonusGrant() error {
	if len(os.Args) < 5 {
		return fmt.Errorf("usage: casino grant-bonus tenant-id wallet-id amount")
	}
	tenantID := os.Args[2]
	walletID := os.Args[3]
	amount, err := decimal.NewFromString(os.Args[4])
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	ctx := context.Background()
	engine, closeDB, err := newAdminEngine(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := engine.GrantBonus(ctx, tenantID, walletID, amount); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"tenantID": tenantID,
		"walletID": walletID,
		"amount":   amount,
	}).Info("Bonus granted")
	return nil
}

// handleBonusStats prints a wallet's lifetime bonus figures.
func handleBonusStats() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: casino bonus-stats tenant-id wallet-id")
	}
	tenantID := os.Args[2]
	walletID := os.Args[3]

	ctx := context.Background()
	engine, closeDB, err := newAdminEngine(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	stats, err := engine.GetBonusStats(ctx, tenantID, walletID)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"walletID":     stats.WalletID,
		"bonusGranted": stats.BonusGranted,
		"bonusWagered": stats.BonusWagered,
		"bonusBalance": stats.BonusBalance,
	}).Info("Bonus stats")
	return nil
}

// dummyEventPublisher is a no-op event publisher for admin commands
type dummyEventPublisher struct{}

func (d *dummyEventPublisher) Publish(event events.Event) error {
	return nil
}
