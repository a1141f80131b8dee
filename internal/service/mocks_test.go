package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
	cachepkg "github.com/Motje3/QR-Scanner-Tracking-sub000/pkg/cache"
)

// mockShipmentRepo реализует ShipmentRepo; поля-функции задают поведение каждого метода
type mockShipmentRepo struct {
	createFn       func(ctx context.Context, s model.Shipment) (*model.Shipment, error)
	getFn          func(ctx context.Context, id int) (*model.Shipment, error)
	listFn         func(ctx context.Context) ([]model.Shipment, error)
	listAssigneeFn func(ctx context.Context, username string) ([]model.Shipment, error)
	updateStatusFn func(ctx context.Context, id int, status, actor string, at time.Time) (*model.Shipment, error)
}

func (m *mockShipmentRepo) CreateShipment(ctx context.Context, s model.Shipment) (*model.Shipment, error) {
	return m.createFn(ctx, s)
}
func (m *mockShipmentRepo) GetShipment(ctx context.Context, id int) (*model.Shipment, error) {
	return m.getFn(ctx, id)
}
func (m *mockShipmentRepo) ListShipments(ctx context.Context) ([]model.Shipment, error) {
	return m.listFn(ctx)
}
func (m *mockShipmentRepo) ListShipmentsByAssignee(ctx context.Context, username string) ([]model.Shipment, error) {
	return m.listAssigneeFn(ctx, username)
}
func (m *mockShipmentRepo) UpdateShipmentStatus(ctx context.Context, id int, status, actor string, at time.Time) (*model.Shipment, error) {
	return m.updateStatusFn(ctx, id, status, actor, at)
}

// mockIssueRepo реализует IssueReportRepo
type mockIssueRepo struct {
	createFn       func(ctx context.Context, rep model.IssueReport) (*model.IssueReport, error)
	getFn          func(ctx context.Context, id int) (*model.IssueReport, error)
	listFn         func(ctx context.Context) ([]model.IssueReport, error)
	listJoinedFn   func(ctx context.Context) ([]model.IssueReportWithShipment, error)
	listShipmentFn func(ctx context.Context, shipmentID int) ([]model.IssueReport, error)
	listAssigneeFn func(ctx context.Context, username string) ([]model.IssueReport, error)
	updateFn       func(ctx context.Context, rep *model.IssueReport) (*model.IssueReport, error)
}

func (m *mockIssueRepo) CreateIssueReport(ctx context.Context, rep model.IssueReport) (*model.IssueReport, error) {
	return m.createFn(ctx, rep)
}
func (m *mockIssueRepo) GetIssueReport(ctx context.Context, id int) (*model.IssueReport, error) {
	return m.getFn(ctx, id)
}
func (m *mockIssueRepo) ListIssueReports(ctx context.Context) ([]model.IssueReport, error) {
	return m.listFn(ctx)
}
func (m *mockIssueRepo) ListIssueReportsWithShipments(ctx context.Context) ([]model.IssueReportWithShipment, error) {
	return m.listJoinedFn(ctx)
}
func (m *mockIssueRepo) ListIssueReportsByShipment(ctx context.Context, shipmentID int) ([]model.IssueReport, error) {
	return m.listShipmentFn(ctx, shipmentID)
}
func (m *mockIssueRepo) ListIssueReportsByAssignee(ctx context.Context, username string) ([]model.IssueReport, error) {
	return m.listAssigneeFn(ctx, username)
}
func (m *mockIssueRepo) UpdateIssueReport(ctx context.Context, rep *model.IssueReport) (*model.IssueReport, error) {
	return m.updateFn(ctx, rep)
}

// mockStatsRepo реализует StatsRepo
type mockStatsRepo struct {
	countFn   func(ctx context.Context, from, to time.Time) (int, error)
	sumFn     func(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	monthlyFn func(ctx context.Context, from, to time.Time) ([]model.MonthlyStat, error)
}

func (m *mockStatsRepo) CountShipments(ctx context.Context, from, to time.Time) (int, error) {
	return m.countFn(ctx, from, to)
}
func (m *mockStatsRepo) SumRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return m.sumFn(ctx, from, to)
}
func (m *mockStatsRepo) MonthlyShipmentStats(ctx context.Context, from, to time.Time) ([]model.MonthlyStat, error) {
	return m.monthlyFn(ctx, from, to)
}

// mockCache симулирует кэш Redis с настраиваемым поведением методов
type mockCache struct {
	set   func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	get   func(ctx context.Context, key string) ([]byte, error)
	inval func(ctx context.Context, key string) error
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.set == nil {
		return nil
	}
	return m.set(ctx, key, value, ttl)
}
func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.get == nil {
		return nil, cachepkg.ErrCacheMiss
	}
	return m.get(ctx, key)
}
func (m *mockCache) Invalidate(ctx context.Context, key string) error {
	if m.inval == nil {
		return nil
	}
	return m.inval(ctx, key)
}

// mockLogger накапливает опубликованные события
type mockLogger struct {
	published [][]byte
	err       error
}

func (m *mockLogger) PublishLog(data []byte) error {
	m.published = append(m.published, data)
	return m.err
}

// fixedClock возвращает функцию времени, всегда отдающую t
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ptr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }
