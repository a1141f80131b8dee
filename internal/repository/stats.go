package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// StatsRepository выполняет агрегирующие запросы по таблице shipments.
// Все периоды полуоткрытые: [from, to)
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository создает репозиторий статистики
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountShipments возвращает количество отправок, созданных в периоде
func (r *StatsRepository) CountShipments(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shipments WHERE created_at >= $1 AND created_at < $2`, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count shipments: %w", err)
	}
	return n, nil
}

// SumRevenue возвращает сумму непустых revenue за период; пустая выборка даёт 0
func (r *StatsRepository) SumRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(revenue), 0) FROM shipments WHERE created_at >= $1 AND created_at < $2`, from, to).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return sum, nil
}

// MonthlyShipmentStats возвращает агрегаты только по месяцам, в которых есть данные.
// Месяц определяется в часовом поясе from. Дополнение нулями выполняет сервис
func (r *StatsRepository) MonthlyShipmentStats(ctx context.Context, from, to time.Time) ([]model.MonthlyStat, error) {
	query := `SELECT EXTRACT(MONTH FROM created_at AT TIME ZONE $3)::int AS month, COUNT(*), COALESCE(SUM(revenue), 0)
		FROM shipments WHERE created_at >= $1 AND created_at < $2
		GROUP BY month ORDER BY month`
	rows, err := r.db.QueryContext(ctx, query, from, to, from.Location().String())
	if err != nil {
		return nil, fmt.Errorf("failed to select monthly stats: %w", err)
	}
	defer rows.Close()
	var stats []model.MonthlyStat
	for rows.Next() {
		var st model.MonthlyStat
		if err := rows.Scan(&st.Month, &st.Shipments, &st.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stat: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly stats: %w", err)
	}
	return stats, nil
}
