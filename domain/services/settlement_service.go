package services

import (
	"context"
	"fmt"
	"time"

	"casino/config"
	"casino/domain/entities"
	"casino/domain/events"
	"casino/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	betRepo        interfaces.BetRepository
	sessionRepo    interfaces.GameSessionRepository
	seedRepo       interfaces.SeedPairRepository
	walletRepo     interfaces.WalletRepository
	walletService  interfaces.WalletService
	fairness       interfaces.FairnessService
	eventPublisher interfaces.EventPublisher
}

// NewSettlementService creates a new bet settlement coordinator bound to
// the caller's unit of work.
func NewSettlementService(
	betRepo interfaces.BetRepository,
	sessionRepo interfaces.GameSessionRepository,
	seedRepo interfaces.SeedPairRepository,
	walletRepo interfaces.WalletRepository,
	walletService interfaces.WalletService,
	fairness interfaces.FairnessService,
	eventPublisher interfaces.EventPublisher,
) interfaces.SettlementService {
	return &settlementService{
		betRepo:        betRepo,
		sessionRepo:    sessionRepo,
		seedRepo:       seedRepo,
		walletRepo:     walletRepo,
		walletService:  walletService,
		fairness:       fairness,
		eventPublisher: eventPublisher,
	}
}

// PlaceBet validates parameters, reserves the stake and creates the
// pending bet record. For multi-step games it also opens the active
// session. Replaying with the same betID returns the existing bet without
// touching the wallet again.
func (s *settlementService) PlaceBet(ctx context.Context, req entities.PlaceBetRequest) (*entities.BetResult, error) {
	if !req.Stake.IsPositive() {
		return nil, &entities.BetParameterError{Reason: "stake must be positive"}
	}
	if !req.GameType.Valid() {
		return nil, &entities.BetParameterError{Reason: fmt.Sprintf("unknown game type %q", req.GameType)}
	}
	if err := ValidateGameParams(req.GameType, req.GameParams); err != nil {
		return nil, err
	}

	betID := req.BetID
	if betID == "" {
		betID = uuid.New().String()
	} else {
		existing, err := s.betRepo.GetByID(ctx, betID)
		if err != nil {
			return nil, fmt.Errorf("failed to check for existing bet: %w", err)
		}
		if existing != nil {
			wallet, err := s.walletRepo.GetByID(ctx, existing.WalletID)
			if err != nil {
				return nil, fmt.Errorf("failed to get wallet for replayed bet: %w", err)
			}
			return betResult(existing, wallet.Balance), nil
		}
	}

	wallet, err := s.walletRepo.GetByUser(ctx, req.UserID, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return nil, entities.ErrWalletNotFound
	}

	if req.GameType.IsMultiStep() {
		active, err := s.sessionRepo.GetActiveByUser(ctx, req.UserID, req.GameType)
		if err != nil {
			return nil, fmt.Errorf("failed to check for active session: %w", err)
		}
		if active != nil {
			return nil, &entities.BetParameterError{Reason: "an active game is already in progress"}
		}
	}

	pair, err := s.activeSeedPair(ctx, wallet.TenantID, req.UserID)
	if err != nil {
		return nil, err
	}
	nonce, err := s.seedRepo.IncrementNonce(ctx, pair.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to advance nonce: %w", err)
	}

	if err := s.walletService.ReserveStake(ctx, wallet.ID, betID, req.Stake); err != nil {
		return nil, err
	}

	// The reservation locked the wallet row. Re-read it so the bonus split
	// reflects the balance the stake was actually reserved against, not the
	// earlier unlocked read.
	walletID := wallet.ID
	wallet, err = s.walletRepo.GetForUpdate(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read wallet %s: %w", walletID, err)
	}
	if wallet == nil {
		return nil, entities.ErrWalletNotFound
	}

	bet := &entities.Bet{
		ID:         betID,
		TenantID:   wallet.TenantID,
		UserID:     req.UserID,
		WalletID:   wallet.ID,
		Currency:   wallet.Currency,
		GameType:   req.GameType,
		Stake:      req.Stake,
		BonusStake: decimal.Min(wallet.BonusBalance, req.Stake),
		Status:     entities.BetPending,
		Multiplier: decimal.Zero,
		Payout:     decimal.Zero,
		SeedPairID: pair.ID,
		Nonce:      nonce,
		GameParams: req.GameParams,
	}
	if err := s.betRepo.Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	if req.GameType.IsMultiStep() {
		gridSize := defaultGridSize
		if raw, ok := bet.GameParams["gridSize"]; ok {
			gridSize, _ = intParam(map[string]any{"gridSize": raw}, "gridSize")
		}
		mineCount, _ := intParam(bet.GameParams, "mineCount")

		session := &entities.GameSession{
			ID:         uuid.New().String(),
			BetID:      bet.ID,
			TenantID:   bet.TenantID,
			UserID:     bet.UserID,
			GameType:   bet.GameType,
			GridSize:   gridSize,
			MineCount:  mineCount,
			Revealed:   []int{},
			Multiplier: decimal.NewFromInt(1),
			Status:     entities.SessionActive,
		}
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to create game session: %w", err)
		}
	}

	return betResult(bet, wallet.Balance), nil
}

// ResolveSingleShot resolves a one-decision bet: one oracle roll, one pay
// table lookup, stake settled and payout credited in the same transaction.
// A bet that is already terminal returns its stored result, which makes
// crash recovery a pure replay.
func (s *settlementService) ResolveSingleShot(ctx context.Context, betID string) (*entities.BetResult, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, entities.ErrNoActiveGame
	}
	if bet.Status.IsTerminal() {
		wallet, err := s.walletRepo.GetByID(ctx, bet.WalletID)
		if err != nil {
			return nil, fmt.Errorf("failed to get wallet: %w", err)
		}
		return betResult(bet, wallet.Balance), nil
	}
	if bet.GameType.IsMultiStep() {
		return nil, &entities.BetParameterError{Reason: "multi-step bets settle through reveal or cashout"}
	}

	pair, err := s.seedRepo.GetByID(ctx, bet.SeedPairID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seed pair: %w", err)
	}

	roll := s.fairness.Outcome(pair.ServerSeed, pair.ClientSeed, bet.Nonce, 0)
	multiplier, won, err := ResolveSingleShot(bet.GameType, bet.GameParams, roll, config.Get().HouseEdgeFor(bet.TenantID))
	if err != nil {
		return nil, err
	}

	payout := bet.Stake.Mul(multiplier).Round(8)
	status := entities.BetLost
	if won {
		status = entities.BetWon
	}

	if err := s.settleBet(ctx, bet, status, roll, multiplier, payout); err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByID(ctx, bet.WalletID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet after settlement: %w", err)
	}
	return betResult(bet, wallet.Balance), nil
}

// RevealStep applies one reveal to an active mines session. The hazard map
// was fixed at placement by the seed triple, so the reveal only checks
// membership. Safe reveals move no money; hitting a mine settles the stake
// as lost exactly once.
func (s *settlementService) RevealStep(ctx context.Context, gameID string, position int) (*entities.SessionView, error) {
	session, err := s.sessionRepo.GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if session == nil || session.Status.IsTerminal() {
		return nil, entities.ErrNoActiveGame
	}
	if err := session.ValidateStep(position); err != nil {
		return nil, err
	}

	bet, err := s.betRepo.GetByID(ctx, session.BetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	pair, err := s.seedRepo.GetByID(ctx, bet.SeedPairID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seed pair: %w", err)
	}

	mines := s.fairness.MinePositions(pair.ServerSeed, pair.ClientSeed, bet.Nonce, session.Tiles(), session.MineCount)
	for _, mine := range mines {
		if mine == position {
			return s.loseSession(ctx, session, bet, mines)
		}
	}

	session.Revealed = append(session.Revealed, position)
	session.Multiplier = MinesMultiplier(session.Tiles(), session.MineCount, len(session.Revealed), config.Get().HouseEdgeFor(session.TenantID))

	if session.AllSafeRevealed() {
		return s.winSession(ctx, session, bet, entities.SessionWon, mines)
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return &entities.SessionView{
		GameID:        session.ID,
		Status:        session.Status,
		Revealed:      session.Revealed,
		Multiplier:    session.Multiplier,
		CurrentPayout: bet.Stake.Mul(session.Multiplier).Round(8),
	}, nil
}

// CashOut settles an active session at its current multiplier. Requires at
// least one revealed tile; an untouched board can only be played or lost.
func (s *settlementService) CashOut(ctx context.Context, gameID string) (*entities.SessionView, error) {
	session, err := s.sessionRepo.GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if session == nil || session.Status.IsTerminal() {
		return nil, entities.ErrNoActiveGame
	}
	if len(session.Revealed) == 0 {
		return nil, &entities.BetParameterError{Reason: "cannot cash out before revealing a tile"}
	}

	bet, err := s.betRepo.GetByID(ctx, session.BetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	pair, err := s.seedRepo.GetByID(ctx, bet.SeedPairID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seed pair: %w", err)
	}
	mines := s.fairness.MinePositions(pair.ServerSeed, pair.ClientSeed, bet.Nonce, session.Tiles(), session.MineCount)

	return s.winSession(ctx, session, bet, entities.SessionCashedOut, mines)
}

// loseSession transitions the session to lost and settles the bet with
// zero payout.
func (s *settlementService) loseSession(ctx context.Context, session *entities.GameSession, bet *entities.Bet, mines []int) (*entities.SessionView, error) {
	session.Status = entities.SessionLost
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := s.settleBet(ctx, bet, entities.BetLost, 0, decimal.Zero, decimal.Zero); err != nil {
		return nil, err
	}

	return &entities.SessionView{
		GameID:        session.ID,
		Status:        session.Status,
		Revealed:      session.Revealed,
		Multiplier:    decimal.Zero,
		CurrentPayout: decimal.Zero,
		MinePositions: mines,
	}, nil
}

// winSession archives the session into a won bet at the current
// multiplier.
func (s *settlementService) winSession(ctx context.Context, session *entities.GameSession, bet *entities.Bet, status entities.SessionStatus, mines []int) (*entities.SessionView, error) {
	session.Status = status
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	payout := bet.Stake.Mul(session.Multiplier).Round(8)
	if err := s.settleBet(ctx, bet, entities.BetWon, 0, session.Multiplier, payout); err != nil {
		return nil, err
	}

	return &entities.SessionView{
		GameID:        session.ID,
		Status:        session.Status,
		Revealed:      session.Revealed,
		Multiplier:    session.Multiplier,
		CurrentPayout: payout,
		MinePositions: mines,
	}, nil
}

// settleBet consumes the stake, credits the payout split across cash and
// bonus portions, and marks the bet terminal. One transaction, exactly
// once per bet: the pending->terminal transition guards replays.
func (s *settlementService) settleBet(ctx context.Context, bet *entities.Bet, status entities.BetStatus, outcome float64, multiplier, payout decimal.Decimal) error {
	if bet.Status.IsTerminal() {
		return nil
	}

	if err := s.walletService.SettleStake(ctx, bet.WalletID, bet.ID, bet.Stake, bet.BonusStake); err != nil {
		return err
	}

	if payout.IsPositive() {
		bonusPart := payout.Mul(bet.BonusShare()).Round(8)
		cashPart := payout.Sub(bonusPart)
		if bonusPart.IsPositive() {
			if err := s.walletService.Credit(ctx, bet.WalletID, bonusPart, entities.PortionBonus, entities.TransactionTypePayoutBonus, &bet.ID); err != nil {
				return err
			}
		}
		if cashPart.IsPositive() {
			if err := s.walletService.Credit(ctx, bet.WalletID, cashPart, entities.PortionCash, entities.TransactionTypePayoutCash, &bet.ID); err != nil {
				return err
			}
		}
	}

	now := time.Now().UTC()
	bet.Status = status
	bet.Outcome = outcome
	bet.Multiplier = multiplier
	bet.Payout = payout
	bet.SettledAt = &now
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return fmt.Errorf("failed to update bet: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BetSettledEvent{
		BetID:      bet.ID,
		TenantID:   bet.TenantID,
		UserID:     bet.UserID,
		GameType:   string(bet.GameType),
		Stake:      bet.Stake,
		Payout:     bet.Payout,
		Status:     string(bet.Status),
		Multiplier: bet.Multiplier,
	}); err != nil {
		log.WithError(err).WithField("betID", bet.ID).Error("Failed to publish bet settled event")
	}

	return nil
}

// activeSeedPair returns the user's active seed pair, creating one with a
// fresh commitment on first use.
func (s *settlementService) activeSeedPair(ctx context.Context, tenantID, userID string) (*entities.SeedPair, error) {
	pair, err := s.seedRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active seed pair: %w", err)
	}
	if pair != nil {
		return pair, nil
	}

	seed, hash, err := s.fairness.NewServerSeed()
	if err != nil {
		return nil, err
	}
	pair = &entities.SeedPair{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		UserID:         userID,
		ServerSeed:     seed,
		ServerSeedHash: hash,
		ClientSeed:     uuid.New().String(),
		Active:         true,
	}
	if err := s.seedRepo.Create(ctx, pair); err != nil {
		return nil, fmt.Errorf("failed to create seed pair: %w", err)
	}
	return pair, nil
}

func betResult(bet *entities.Bet, balance decimal.Decimal) *entities.BetResult {
	return &entities.BetResult{
		BetID:      bet.ID,
		Status:     bet.Status,
		Stake:      bet.Stake,
		Multiplier: bet.Multiplier,
		Payout:     bet.Payout,
		NewBalance: balance,
	}
}
