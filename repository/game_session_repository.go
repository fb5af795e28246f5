package repository

import (
	"context"
	"fmt"

	"casino/database"
	"casino/domain/entities"
	"casino/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type gameSessionRepository struct {
	q        Queryable
	tenantID string
}

// NewGameSessionRepository creates a new game session repository
func NewGameSessionRepository(db *database.DB, tenantID string) interfaces.GameSessionRepository {
	return &gameSessionRepository{q: db.Pool, tenantID: tenantID}
}

// newGameSessionRepository creates a new game session repository with a transaction and tenant scope
func newGameSessionRepository(tx Queryable, tenantID string) interfaces.GameSessionRepository {
	return &gameSessionRepository{
		q:        tx,
		tenantID: tenantID,
	}
}

const sessionColumns = `id, bet_id, tenant_id, user_id, game_type, grid_size, mine_count,
	revealed, multiplier, status, created_at, updated_at`

func scanSession(row pgx.Row) (*entities.GameSession, error) {
	var session entities.GameSession
	err := row.Scan(
		&session.ID,
		&session.BetID,
		&session.TenantID,
		&session.UserID,
		&session.GameType,
		&session.GridSize,
		&session.MineCount,
		&session.Revealed,
		&session.Multiplier,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *gameSessionRepository) Create(ctx context.Context, session *entities.GameSession) error {
	query := `
		INSERT INTO game_sessions (id, bet_id, tenant_id, user_id, game_type, grid_size,
			mine_count, revealed, multiplier, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		session.ID,
		session.BetID,
		r.tenantID,
		session.UserID,
		session.GameType,
		session.GridSize,
		session.MineCount,
		session.Revealed,
		session.Multiplier,
		session.Status,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create game session: %w", err)
	}

	return nil
}

func (r *gameSessionRepository) GetByID(ctx context.Context, id string) (*entities.GameSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE id = $1 AND tenant_id = $2`

	session, err := scanSession(r.q.QueryRow(ctx, query, id, r.tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to get game session: %w", err)
	}
	return session, nil
}

// GetByIDForUpdate locks the session row so concurrent reveals on the same
// game serialize instead of double-settling.
func (r *gameSessionRepository) GetByIDForUpdate(ctx context.Context, id string) (*entities.GameSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE`

	session, err := scanSession(r.q.QueryRow(ctx, query, id, r.tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock game session: %w", err)
	}
	return session, nil
}

func (r *gameSessionRepository) GetActiveByUser(ctx context.Context, userID string, gameType entities.GameType) (*entities.GameSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE tenant_id = $1 AND user_id = $2 AND game_type = $3 AND status = 'active'`

	session, err := scanSession(r.q.QueryRow(ctx, query, r.tenantID, userID, gameType))
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return session, nil
}

func (r *gameSessionRepository) Update(ctx context.Context, session *entities.GameSession) error {
	query := `
		UPDATE game_sessions
		SET revealed = $1, multiplier = $2, status = $3, updated_at = NOW()
		WHERE id = $4 AND tenant_id = $5`

	tag, err := r.q.Exec(ctx, query,
		session.Revealed,
		session.Multiplier,
		session.Status,
		session.ID,
		r.tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game session %s not found", session.ID)
	}
	return nil
}
