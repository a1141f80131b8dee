package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// TestStatsOverview_ZeroFilled проверяет периоды запросов и дополнение пустых месяцев нулями
func TestStatsOverview_ZeroFilled(t *testing.T) {
	yearStart := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	dayStart := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	var (
		mu         sync.Mutex
		countCalls = map[time.Time]time.Time{}
	)
	repo := &mockStatsRepo{
		countFn: func(ctx context.Context, from, to time.Time) (int, error) {
			mu.Lock()
			countCalls[from] = to
			mu.Unlock()
			if from.Equal(dayStart) {
				return 2, nil
			}
			return 7, nil
		},
		sumFn: func(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
			assert.True(t, from.Equal(yearStart))
			assert.True(t, to.Equal(yearEnd))
			return decimal.RequireFromString("1250.50"), nil
		},
		monthlyFn: func(ctx context.Context, from, to time.Time) ([]model.MonthlyStat, error) {
			return []model.MonthlyStat{
				{Month: 1, Shipments: 3, Revenue: decimal.RequireFromString("500.00")},
				{Month: 3, Shipments: 4, Revenue: decimal.RequireFromString("750.50")},
			}, nil
		},
	}
	s := &StatsService{repo: repo, now: fixedClock(testNow), loc: time.UTC}

	got, err := s.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2025, got.Year)
	assert.Equal(t, 3, got.Month)
	assert.Equal(t, 7, got.TotalShipments)
	assert.True(t, got.TotalRevenue.Equal(decimal.RequireFromString("1250.50")))
	assert.Equal(t, 4, got.ShipmentsThisMonth)
	assert.Equal(t, 2, got.ShipmentsToday)

	require.Len(t, got.Monthly, 12)
	for i, m := range got.Monthly {
		assert.Equal(t, i+1, m.Month)
	}
	assert.Equal(t, 0, got.Monthly[1].Shipments)
	assert.True(t, got.Monthly[1].Revenue.IsZero())
	assert.Equal(t, 0, got.Monthly[11].Shipments)

	require.Len(t, countCalls, 2)
	assert.True(t, countCalls[yearStart].Equal(yearEnd))
	assert.True(t, countCalls[dayStart].Equal(dayStart.AddDate(0, 0, 1)))
}

// TestStatsOverview_Empty проверяет сводку по пустой базе
func TestStatsOverview_Empty(t *testing.T) {
	repo := &mockStatsRepo{
		countFn:   func(ctx context.Context, from, to time.Time) (int, error) { return 0, nil },
		sumFn:     func(ctx context.Context, from, to time.Time) (decimal.Decimal, error) { return decimal.Zero, nil },
		monthlyFn: func(ctx context.Context, from, to time.Time) ([]model.MonthlyStat, error) { return nil, nil },
	}
	s := &StatsService{repo: repo, now: fixedClock(testNow), loc: time.UTC}
	got, err := s.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalShipments)
	assert.True(t, got.TotalRevenue.IsZero())
	assert.Len(t, got.Monthly, 12)
	assert.Equal(t, 0, got.ShipmentsThisMonth)
}

// TestStatsOverview_Location проверяет, что границы суток считаются в заданной зоне
func TestStatsOverview_Location(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	// 31 декабря 23:30 UTC: уже 1 января в CET
	now := time.Date(2024, time.December, 31, 23, 30, 0, 0, time.UTC)
	var sumFrom time.Time
	repo := &mockStatsRepo{
		countFn: func(ctx context.Context, from, to time.Time) (int, error) { return 0, nil },
		sumFn: func(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
			sumFrom = from
			return decimal.Zero, nil
		},
		monthlyFn: func(ctx context.Context, from, to time.Time) ([]model.MonthlyStat, error) { return nil, nil },
	}
	s := &StatsService{repo: repo, now: fixedClock(now), loc: loc}
	got, err := s.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year)
	assert.Equal(t, 1, got.Month)
	assert.True(t, sumFrom.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, loc)))
}

func TestStatsOverview_RepoError(t *testing.T) {
	testErr := errors.New("db down")
	repo := &mockStatsRepo{
		countFn:   func(ctx context.Context, from, to time.Time) (int, error) { return 0, testErr },
		sumFn:     func(ctx context.Context, from, to time.Time) (decimal.Decimal, error) { return decimal.Zero, nil },
		monthlyFn: func(ctx context.Context, from, to time.Time) ([]model.MonthlyStat, error) { return nil, nil },
	}
	s := NewStatsService(repo, nil)
	_, err := s.Overview(context.Background())
	assert.Equal(t, testErr, err)
}
