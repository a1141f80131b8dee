package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// IssueReportRepo определяет интерфейс репозитория отчётов о проблемах
type IssueReportRepo interface {
	CreateIssueReport(ctx context.Context, rep model.IssueReport) (*model.IssueReport, error)
	GetIssueReport(ctx context.Context, id int) (*model.IssueReport, error)
	ListIssueReports(ctx context.Context) ([]model.IssueReport, error)
	ListIssueReportsWithShipments(ctx context.Context) ([]model.IssueReportWithShipment, error)
	ListIssueReportsByShipment(ctx context.Context, shipmentID int) ([]model.IssueReport, error)
	ListIssueReportsByAssignee(ctx context.Context, username string) ([]model.IssueReport, error)
	UpdateIssueReport(ctx context.Context, rep *model.IssueReport) (*model.IssueReport, error)
}

// IssueReportService реализует логику отчётов о проблемах:
// - валидация заголовка и ссылки на отправку (существование отправки не проверяется)
// - частичное обновление со связкой isFixed / resolvedAt
// - выборки по отправке и по исполнителю отправки
type IssueReportService struct {
	repo   IssueReportRepo
	cache  Cache
	logger Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewIssueReportService создаёт сервис отчётов
func NewIssueReportService(r IssueReportRepo, c Cache, l Logger, ttl time.Duration) *IssueReportService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &IssueReportService{repo: r, cache: c, logger: l, ttl: ttl, now: time.Now}
}

func issueKey(id int) string {
	return fmt.Sprintf("issue:%d", id)
}

func validateTitle(verr *ValidationError, title string) {
	if strings.TrimSpace(title) == "" {
		verr.add("title", "title is required")
		return
	}
	if !utf8.ValidString(title) {
		verr.add("title", "title must be valid UTF-8")
		return
	}
	if utf8.RuneCountInString(title) > model.MaxIssueTitleLength {
		verr.add("title", fmt.Sprintf("title must be at most %d characters", model.MaxIssueTitleLength))
	}
}

func validateShipmentID(verr *ValidationError, id *int) {
	if id != nil && *id < 0 {
		verr.add("shipmentId", "shipmentId cannot be negative")
	}
}

// Create сохраняет новый отчёт; isImportant и isFixed всегда false, resolvedAt пуст
func (s *IssueReportService) Create(ctx context.Context, in model.CreateIssueReportInput) (*model.IssueReport, error) {
	verr := &ValidationError{}
	validateTitle(verr, in.Title)
	validateShipmentID(verr, in.ShipmentID)
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}
	rep, err := s.repo.CreateIssueReport(ctx, model.IssueReport{
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ShipmentID:  in.ShipmentID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}
	publishEvent(s.logger, model.EventIssueCreated, rep.ID, "", rep, rep.CreatedAt)
	return rep, nil
}

// Get возвращает отчёт по id, сначала пытаясь прочитать его из кэша
func (s *IssueReportService) Get(ctx context.Context, id int) (*model.IssueReport, error) {
	key := issueKey(id)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached model.IssueReport
		if json.Unmarshal(data, &cached) == nil {
			return &cached, nil
		}
	}
	rep, err := s.repo.GetIssueReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(rep); err == nil {
		_ = s.cache.Set(ctx, key, data, s.ttl)
	}
	return rep, nil
}

// List возвращает все отчёты, новые первыми
func (s *IssueReportService) List(ctx context.Context) ([]model.IssueReport, error) {
	return s.repo.ListIssueReports(ctx)
}

// ListWithShipments возвращает все отчёты с присоединённой отправкой
func (s *IssueReportService) ListWithShipments(ctx context.Context) ([]model.IssueReportWithShipment, error) {
	return s.repo.ListIssueReportsWithShipments(ctx)
}

// ListByShipment возвращает отчёты по отправке; пустой результат не является ошибкой
func (s *IssueReportService) ListByShipment(ctx context.Context, shipmentID int) ([]model.IssueReport, error) {
	return s.repo.ListIssueReportsByShipment(ctx, shipmentID)
}

// ListByAssignee возвращает отчёты по отправкам, назначенным username ("мои проблемы")
func (s *IssueReportService) ListByAssignee(ctx context.Context, username string) ([]model.IssueReport, error) {
	return s.repo.ListIssueReportsByAssignee(ctx, username)
}

// Update применяет частичное обновление к отчёту id.
// Чтение и запись не блокируются: при гонке побеждает последняя запись
func (s *IssueReportService) Update(ctx context.Context, id int, patch model.IssueReportPatch) (*model.IssueReport, error) {
	verr := &ValidationError{}
	if patch.Title.Set {
		validateTitle(verr, patch.Title.Value)
	}
	if patch.ShipmentID.Set {
		validateShipmentID(verr, patch.ShipmentID.Value)
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}
	current, err := s.repo.GetIssueReport(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	applyIssuePatch(current, patch, now)
	updated, err := s.repo.UpdateIssueReport(ctx, current)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Invalidate(ctx, issueKey(id))
	publishEvent(s.logger, model.EventIssueUpdated, id, "", updated, now)
	return updated, nil
}

// applyIssuePatch копирует присутствующие поля патча в rep.
// Связка isFixed / resolvedAt:
//   - isFixed=true: resolvedAt из патча, иначе now
//   - isFixed=false: resolvedAt очищается, даже если передан в том же патче
//   - isFixed отсутствует, resolvedAt задан: isFixed становится true
func applyIssuePatch(rep *model.IssueReport, patch model.IssueReportPatch, now time.Time) {
	if patch.Title.Set {
		rep.Title = patch.Title.Value
	}
	if patch.Description.Set {
		rep.Description = patch.Description.Value
	}
	if patch.ImageURL.Set {
		rep.ImageURL = patch.ImageURL.Value
	}
	if patch.ShipmentID.Set {
		rep.ShipmentID = patch.ShipmentID.Value
	}
	if patch.IsImportant.Set {
		rep.IsImportant = patch.IsImportant.Value
	}
	switch {
	case patch.IsFixed.Set && patch.IsFixed.Value:
		rep.IsFixed = true
		if patch.ResolvedAt.Set && patch.ResolvedAt.Value != nil {
			resolved := *patch.ResolvedAt.Value
			rep.ResolvedAt = &resolved
		} else {
			resolved := now
			rep.ResolvedAt = &resolved
		}
	case patch.IsFixed.Set:
		rep.IsFixed = false
		rep.ResolvedAt = nil
	case patch.ResolvedAt.Set && patch.ResolvedAt.Value != nil:
		resolved := *patch.ResolvedAt.Value
		rep.IsFixed = true
		rep.ResolvedAt = &resolved
	}
}
