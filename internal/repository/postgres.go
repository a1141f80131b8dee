package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// ErrNotFound возвращается при отсутствии записи
var ErrNotFound = errors.New("record not found")

// ErrEmptyTitle возвращается при попытке сохранить отчёт без заголовка.
// Сервис проверяет заголовок раньше; ошибка защищает прямых вызывающих репозитория
var ErrEmptyTitle = errors.New("title cannot be empty")

const shipmentColumns = `id, status, destination, assigned_to, expected_delivery, weight, revenue, created_at, last_updated_by, last_updated_at`

const issueColumns = `id, title, description, image_url, shipment_id, created_at, is_important, is_fixed, resolved_at`

// rowScanner объединяет *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShipment(row rowScanner) (*model.Shipment, error) {
	var s model.Shipment
	err := row.Scan(&s.ID, &s.Status, &s.Destination, &s.AssignedTo, &s.ExpectedDelivery,
		&s.Weight, &s.Revenue, &s.CreatedAt, &s.LastUpdatedBy, &s.LastUpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanIssueReport(row rowScanner) (*model.IssueReport, error) {
	var r model.IssueReport
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.ImageURL, &r.ShipmentID,
		&r.CreatedAt, &r.IsImportant, &r.IsFixed, &r.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ShipmentRepository реализует доступ к таблице shipments
type ShipmentRepository struct {
	db *sql.DB
}

// NewShipmentRepository создает новый репозиторий отправок
func NewShipmentRepository(db *sql.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// CreateShipment сохраняет новую отправку и возвращает её с присвоенным id
func (r *ShipmentRepository) CreateShipment(ctx context.Context, s model.Shipment) (*model.Shipment, error) {
	query := `INSERT INTO shipments(status, destination, assigned_to, expected_delivery, weight, revenue, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, s.Status, s.Destination, s.AssignedTo, s.ExpectedDelivery, s.Weight, s.Revenue, s.CreatedAt).
		Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert shipment: %w", err)
	}
	return &s, nil
}

// GetShipment возвращает отправку по id
func (r *ShipmentRepository) GetShipment(ctx context.Context, id int) (*model.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE id=$1`
	s, err := scanShipment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	return s, nil
}

// ListShipments возвращает все отправки в порядке id
func (r *ShipmentRepository) ListShipments(ctx context.Context) ([]model.Shipment, error) {
	return r.queryShipments(ctx, `SELECT `+shipmentColumns+` FROM shipments ORDER BY id`)
}

// ListShipmentsByAssignee возвращает отправки, назначенные пользователю username
func (r *ShipmentRepository) ListShipmentsByAssignee(ctx context.Context, username string) ([]model.Shipment, error) {
	return r.queryShipments(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE assigned_to=$1 ORDER BY id`, username)
}

// UpdateShipmentStatus меняет статус и поля аудита одним UPDATE.
// Блокировок нет: при конкурентной записи побеждает последний
func (r *ShipmentRepository) UpdateShipmentStatus(ctx context.Context, id int, status, actor string, at time.Time) (*model.Shipment, error) {
	query := `UPDATE shipments SET status=$1, last_updated_by=$2, last_updated_at=$3 WHERE id=$4
		RETURNING ` + shipmentColumns
	s, err := scanShipment(r.db.QueryRowContext(ctx, query, status, actor, at, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update shipment status: %w", err)
	}
	return s, nil
}

func (r *ShipmentRepository) queryShipments(ctx context.Context, query string, args ...interface{}) ([]model.Shipment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select shipments: %w", err)
	}
	defer rows.Close()
	shipments := make([]model.Shipment, 0)
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipment: %w", err)
		}
		shipments = append(shipments, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shipments: %w", err)
	}
	return shipments, nil
}

// IssueReportRepository реализует доступ к таблице issue_reports
type IssueReportRepository struct {
	db *sql.DB
}

// NewIssueReportRepository создает новый репозиторий отчётов о проблемах
func NewIssueReportRepository(db *sql.DB) *IssueReportRepository {
	return &IssueReportRepository{db: db}
}

// CreateIssueReport сохраняет новый отчёт и возвращает его с присвоенным id
func (r *IssueReportRepository) CreateIssueReport(ctx context.Context, rep model.IssueReport) (*model.IssueReport, error) {
	if strings.TrimSpace(rep.Title) == "" {
		return nil, ErrEmptyTitle
	}
	query := `INSERT INTO issue_reports(title, description, image_url, shipment_id, created_at, is_important, is_fixed, resolved_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rep.Title, rep.Description, rep.ImageURL, rep.ShipmentID,
		rep.CreatedAt, rep.IsImportant, rep.IsFixed, rep.ResolvedAt).
		Scan(&rep.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert issue report: %w", err)
	}
	return &rep, nil
}

// GetIssueReport возвращает отчёт по id
func (r *IssueReportRepository) GetIssueReport(ctx context.Context, id int) (*model.IssueReport, error) {
	query := `SELECT ` + issueColumns + ` FROM issue_reports WHERE id=$1`
	rep, err := scanIssueReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get issue report: %w", err)
	}
	return rep, nil
}

// ListIssueReports возвращает все отчёты, новые первыми
func (r *IssueReportRepository) ListIssueReports(ctx context.Context) ([]model.IssueReport, error) {
	return r.queryIssueReports(ctx, `SELECT `+issueColumns+` FROM issue_reports ORDER BY created_at DESC, id DESC`)
}

// ListIssueReportsByShipment возвращает отчёты, ссылающиеся на shipmentID, новые первыми
func (r *IssueReportRepository) ListIssueReportsByShipment(ctx context.Context, shipmentID int) ([]model.IssueReport, error) {
	return r.queryIssueReports(ctx, `SELECT `+issueColumns+` FROM issue_reports WHERE shipment_id=$1 ORDER BY created_at DESC, id DESC`, shipmentID)
}

// ListIssueReportsByAssignee возвращает отчёты по отправкам, назначенным username.
// Связь вычисляется при каждом запросе через shipments.assigned_to
func (r *IssueReportRepository) ListIssueReportsByAssignee(ctx context.Context, username string) ([]model.IssueReport, error) {
	query := `SELECT i.id, i.title, i.description, i.image_url, i.shipment_id, i.created_at, i.is_important, i.is_fixed, i.resolved_at
		FROM issue_reports i JOIN shipments s ON s.id = i.shipment_id
		WHERE s.assigned_to=$1 ORDER BY i.created_at DESC, i.id DESC`
	return r.queryIssueReports(ctx, query, username)
}

// ListIssueReportsWithShipments возвращает все отчёты вместе со связанными отправками.
// Висячая ссылка shipment_id даёт Shipment=nil, а не ошибку
func (r *IssueReportRepository) ListIssueReportsWithShipments(ctx context.Context) ([]model.IssueReportWithShipment, error) {
	query := `SELECT i.id, i.title, i.description, i.image_url, i.shipment_id, i.created_at, i.is_important, i.is_fixed, i.resolved_at,
		s.id, s.status, s.destination, s.assigned_to, s.expected_delivery, s.weight, s.revenue, s.created_at, s.last_updated_by, s.last_updated_at
		FROM issue_reports i LEFT JOIN shipments s ON s.id = i.shipment_id
		ORDER BY i.created_at DESC, i.id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select issue reports with shipments: %w", err)
	}
	defer rows.Close()
	result := make([]model.IssueReportWithShipment, 0)
	for rows.Next() {
		var (
			item     model.IssueReportWithShipment
			shipment model.Shipment
			sID      sql.NullInt64
			sStatus  sql.NullString
			sRevenue decimal.NullDecimal
			sCreated sql.NullTime
		)
		issue := &item.IssueReport
		err := rows.Scan(&issue.ID, &issue.Title, &issue.Description, &issue.ImageURL, &issue.ShipmentID,
			&issue.CreatedAt, &issue.IsImportant, &issue.IsFixed, &issue.ResolvedAt,
			&sID, &sStatus, &shipment.Destination, &shipment.AssignedTo, &shipment.ExpectedDelivery,
			&shipment.Weight, &sRevenue, &sCreated, &shipment.LastUpdatedBy, &shipment.LastUpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue report with shipment: %w", err)
		}
		if sID.Valid {
			shipment.ID = int(sID.Int64)
			shipment.Status = sStatus.String
			shipment.CreatedAt = sCreated.Time
			if sRevenue.Valid {
				rev := sRevenue.Decimal
				shipment.Revenue = &rev
			}
			item.Shipment = &shipment
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate issue reports: %w", err)
	}
	return result, nil
}

// UpdateIssueReport перезаписывает изменяемые поля отчёта целиком.
// Слияние частичного обновления выполняет сервис
func (r *IssueReportRepository) UpdateIssueReport(ctx context.Context, rep *model.IssueReport) (*model.IssueReport, error) {
	if strings.TrimSpace(rep.Title) == "" {
		return nil, ErrEmptyTitle
	}
	query := `UPDATE issue_reports SET title=$1, description=$2, image_url=$3, shipment_id=$4,
		is_important=$5, is_fixed=$6, resolved_at=$7 WHERE id=$8 RETURNING ` + issueColumns
	updated, err := scanIssueReport(r.db.QueryRowContext(ctx, query,
		rep.Title, rep.Description, rep.ImageURL, rep.ShipmentID,
		rep.IsImportant, rep.IsFixed, rep.ResolvedAt, rep.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update issue report: %w", err)
	}
	return updated, nil
}

func (r *IssueReportRepository) queryIssueReports(ctx context.Context, query string, args ...interface{}) ([]model.IssueReport, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select issue reports: %w", err)
	}
	defer rows.Close()
	reports := make([]model.IssueReport, 0)
	for rows.Next() {
		rep, err := scanIssueReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue report: %w", err)
		}
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate issue reports: %w", err)
	}
	return reports, nil
}
