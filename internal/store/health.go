package store

import (
	"context"
	"time"

	"github.com/genomemcp/genomemcp/internal/health"
)

// HealthCheck returns the health status of the database.
func (db *DB) HealthCheck() health.ComponentHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	h := health.ComponentHealth{Name: "database", Status: health.StatusOK}
	if err := db.PingContext(ctx); err != nil {
		h.Status = health.StatusError
		h.Message = err.Error()
		h.LastError = time.Now()
		return h
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_history").Scan(&count); err != nil {
		h.Status = health.StatusDegraded
		h.Message = "cannot query user_history: " + err.Error()
		h.LastError = time.Now()
		return h
	}
	h.LastOK = time.Now()
	return h
}
