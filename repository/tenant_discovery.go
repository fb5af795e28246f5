package repository

import (
	"context"
	"fmt"

	"casino/application"
	"casino/database"
)

type tenantDiscovery struct {
	db *database.DB
}

// NewTenantDiscovery creates a cross-tenant lookup used by background
// workers. This is the only query surface not scoped to a single tenant.
func NewTenantDiscovery(db *database.DB) application.TenantDiscovery {
	return &tenantDiscovery{db: db}
}

func (t *tenantDiscovery) ListTenantsWithPendingWork(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT tenant_id
		FROM bets
		WHERE (status IN ('won', 'lost') AND NOT distributed)
		   OR status = 'pending'`

	rows, err := t.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants with pending work: %w", err)
	}
	defer rows.Close()

	var tenantIDs []string
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return nil, fmt.Errorf("failed to scan tenant id: %w", err)
		}
		tenantIDs = append(tenantIDs, tenantID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tenant ids: %w", err)
	}

	return tenantIDs, nil
}
