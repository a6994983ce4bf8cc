package repository

import (
	"context"
	"fmt"

	"campus_marketplace/models"

	"github.com/jmoiron/sqlx"
)

// StatsRepo runs the reporting aggregates as plain SQL over sqlx.
type StatsRepo struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) OrderStats(ctx context.Context) (models.OrderStats, error) {
	const q = `
		SELECT
			COUNT(*)                                                          AS total_orders,
			COUNT(*) FILTER (WHERE status = 'pending')                        AS pending_orders,
			COUNT(*) FILTER (WHERE status = 'completed')                      AS completed_orders,
			COUNT(*) FILTER (WHERE status = 'cancelled')                      AS cancelled_orders,
			COALESCE(SUM(total) FILTER (WHERE status = 'completed'), 0)       AS revenue,
			COALESCE(SUM(service_fee) FILTER (WHERE status = 'completed'), 0) AS fees_collected
		FROM orders
	`
	var s models.OrderStats
	if err := r.db.GetContext(ctx, &s, q); err != nil {
		return s, fmt.Errorf("StatsRepo.OrderStats: %w", err)
	}
	return s, nil
}

func (r *StatsRepo) MonthlySales(ctx context.Context, months int) ([]models.MonthlySales, error) {
	const q = `
		SELECT
			to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
			COUNT(*)                                           AS orders,
			COALESCE(SUM(total), 0)                            AS sales
		FROM orders
		WHERE status = 'completed'
		  AND created_at >= date_trunc('month', now()) - ($1 * interval '1 month')
		GROUP BY 1
		ORDER BY 1
	`
	out := []models.MonthlySales{}
	if err := r.db.SelectContext(ctx, &out, q, months-1); err != nil {
		return nil, fmt.Errorf("StatsRepo.MonthlySales: %w", err)
	}
	return out, nil
}
