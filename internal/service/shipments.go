package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// ShipmentRepo определяет интерфейс репозитория отправок
type ShipmentRepo interface {
	CreateShipment(ctx context.Context, s model.Shipment) (*model.Shipment, error)
	GetShipment(ctx context.Context, id int) (*model.Shipment, error)
	ListShipments(ctx context.Context) ([]model.Shipment, error)
	ListShipmentsByAssignee(ctx context.Context, username string) ([]model.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, id int, status, actor string, at time.Time) (*model.Shipment, error)
}

// ShipmentService реализует жизненный цикл отправки:
// - создание со статусом "In afwachting"
// - смена статуса с полями аудита (единственная мутация после создания)
// - выборки по исполнителю и дате доставки
type ShipmentService struct {
	repo   ShipmentRepo
	cache  Cache
	logger Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewShipmentService создаёт сервис отправок
func NewShipmentService(r ShipmentRepo, c Cache, l Logger, ttl time.Duration) *ShipmentService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ShipmentService{repo: r, cache: c, logger: l, ttl: ttl, now: time.Now}
}

func shipmentKey(id int) string {
	return fmt.Sprintf("shipment:%d", id)
}

// Create создаёт отправку: статус всегда начальный, остальные поля копируются как есть
func (s *ShipmentService) Create(ctx context.Context, in model.CreateShipmentInput) (*model.Shipment, error) {
	verr := &ValidationError{}
	if in.Revenue != nil && in.Revenue.IsNegative() {
		verr.add("revenue", "revenue cannot be negative")
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}
	shipment, err := s.repo.CreateShipment(ctx, model.Shipment{
		Status:           model.InitialShipmentStatus,
		Destination:      in.Destination,
		AssignedTo:       in.AssignedTo,
		ExpectedDelivery: in.ExpectedDelivery,
		Weight:           in.Weight,
		Revenue:          in.Revenue,
		CreatedAt:        s.now(),
	})
	if err != nil {
		return nil, err
	}
	publishEvent(s.logger, model.EventShipmentCreated, shipment.ID, "", shipment, shipment.CreatedAt)
	return shipment, nil
}

// Get возвращает отправку по id, сначала пытаясь прочитать её из кэша
func (s *ShipmentService) Get(ctx context.Context, id int) (*model.Shipment, error) {
	key := shipmentKey(id)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached model.Shipment
		if json.Unmarshal(data, &cached) == nil {
			return &cached, nil
		}
	}
	shipment, err := s.repo.GetShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(shipment); err == nil {
		_ = s.cache.Set(ctx, key, data, s.ttl)
	}
	return shipment, nil
}

// List возвращает все отправки
func (s *ShipmentService) List(ctx context.Context) ([]model.Shipment, error) {
	return s.repo.ListShipments(ctx)
}

// UpdateStatus меняет статус отправки и записывает, кто и когда это сделал.
// Отсутствующий id даёт repository.ErrNotFound без побочных эффектов
func (s *ShipmentService) UpdateStatus(ctx context.Context, id int, status, actor string) (*model.Shipment, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(status) == "" {
		verr.add("status", "status is required")
	}
	if strings.TrimSpace(actor) == "" {
		verr.add("actor", "actor is required")
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}
	at := s.now()
	shipment, err := s.repo.UpdateShipmentStatus(ctx, id, status, actor, at)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Invalidate(ctx, shipmentKey(id))
	publishEvent(s.logger, model.EventShipmentStatusUpdated, id, actor, shipment, at)
	return shipment, nil
}

// ListForAssignee возвращает отправки пользователя username.
// Если date задана, остаются только отправки, у которых expectedDelivery
// разбирается в ту же календарную дату; неразборчивые значения отбрасываются
func (s *ShipmentService) ListForAssignee(ctx context.Context, username string, date *time.Time) ([]model.Shipment, error) {
	shipments, err := s.repo.ListShipmentsByAssignee(ctx, username)
	if err != nil {
		return nil, err
	}
	if date == nil {
		return shipments, nil
	}
	filtered := make([]model.Shipment, 0, len(shipments))
	for _, sh := range shipments {
		if sh.ExpectedDelivery == nil {
			continue
		}
		if d, ok := ParseDeliveryDate(*sh.ExpectedDelivery); ok && sameDay(d, *date) {
			filtered = append(filtered, sh)
		}
	}
	return filtered, nil
}
