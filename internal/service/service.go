package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// Cache определяет интерфейс кэширования результатов операций (Redis)
// Методы позволяют записывать, читать и инвалидировать кэш по ключу
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Invalidate(ctx context.Context, key string) error
}

// Logger определяет интерфейс публикации событий аудита (NATS)
type Logger interface {
	PublishLog(data []byte) error
}

// DefaultCacheTTL: время жизни записей в кэше, если не задано в конфигурации
const DefaultCacheTTL = time.Minute

// publishEvent сериализует сущность в событие аудита и отправляет его в лог.
// Ошибка публикации не влияет на результат операции
func publishEvent(l Logger, eventType string, entityID int, actor string, entity interface{}, at time.Time) {
	payload, err := json.Marshal(entity)
	if err != nil {
		return
	}
	data, err := json.Marshal(model.Event{
		Type:       eventType,
		EntityID:   entityID,
		Actor:      actor,
		Payload:    payload,
		OccurredAt: at,
	})
	if err != nil {
		return
	}
	_ = l.PublishLog(data)
}
