package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// StatsRepo определяет агрегирующие запросы по отправкам за период [from, to)
type StatsRepo interface {
	CountShipments(ctx context.Context, from, to time.Time) (int, error)
	SumRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	MonthlyShipmentStats(ctx context.Context, from, to time.Time) ([]model.MonthlyStat, error)
}

// StatsService считает сводку по отправкам. Результат не кэшируется:
// текущий год, месяц и день определяются в момент вызова
type StatsService struct {
	repo StatsRepo
	now  func() time.Time
	loc  *time.Location
}

// NewStatsService создаёт сервис статистики; loc задаёт границы суток (по умолчанию UTC)
func NewStatsService(r StatsRepo, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{repo: r, now: time.Now, loc: loc}
}

// Overview возвращает итоги текущего года, 12 месячных корзин, итоги месяца и дня
func (s *StatsService) Overview(ctx context.Context) (*model.StatsOverview, error) {
	now := s.now().In(s.loc)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, s.loc)
	yearEnd := yearStart.AddDate(1, 0, 0)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	var (
		total, today int
		revenue      decimal.Decimal
		rows         []model.MonthlyStat
	)
	// запросы независимы и выполняются параллельно
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = s.repo.CountShipments(gctx, yearStart, yearEnd)
		return err
	})
	g.Go(func() (err error) {
		revenue, err = s.repo.SumRevenue(gctx, yearStart, yearEnd)
		return err
	})
	g.Go(func() (err error) {
		rows, err = s.repo.MonthlyShipmentStats(gctx, yearStart, yearEnd)
		return err
	})
	g.Go(func() (err error) {
		today, err = s.repo.CountShipments(gctx, dayStart, dayStart.AddDate(0, 0, 1))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// дополняем нулями месяцы без данных
	monthly := make([]model.MonthlyStat, 12)
	for i := range monthly {
		monthly[i] = model.MonthlyStat{Month: i + 1, Revenue: decimal.Zero}
	}
	for _, row := range rows {
		if row.Month >= 1 && row.Month <= 12 {
			monthly[row.Month-1].Shipments = row.Shipments
			monthly[row.Month-1].Revenue = row.Revenue
		}
	}

	return &model.StatsOverview{
		Year:               now.Year(),
		Month:              int(now.Month()),
		TotalShipments:     total,
		TotalRevenue:       revenue,
		ShipmentsThisMonth: monthly[monthStart.Month()-1].Shipments,
		ShipmentsToday:     today,
		Monthly:            monthly,
	}, nil
}
