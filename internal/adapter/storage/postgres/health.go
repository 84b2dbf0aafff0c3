package postgres

import "context"

// HealthCheck reports PostgreSQL reachability for the deep health endpoint.
// A failing ledger database makes every wallet operation fail, so this check
// drives the whole service DEGRADED.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping runs a trivial query through the pool.
func (h *HealthCheck) Ping(ctx context.Context) error {
	_, err := h.pool.Exec(ctx, "SELECT 1")
	return err
}

// Name identifies this dependency in the health report.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
