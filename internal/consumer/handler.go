// Пакет consumer буферизует события аудита из NATS и пакетно пишет их в ClickHouse
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// Repo описывает пакетную запись событий в ClickHouse
type Repo interface {
	BatchInsertEvents(ctx context.Context, events []model.Event) error
}

// ErrInvalidEvent возвращается для сообщения без типа или id сущности
var ErrInvalidEvent = errors.New("invalid event")

// maxBufferedBatches ограничивает буфер при недоступном ClickHouse (в пакетах batchSize)
const maxBufferedBatches = 10

// Consumer буферизует события и отправляет их пакетно.
// Пакет, который не удалось записать, возвращается в начало буфера
type Consumer struct {
	repo      Repo
	batchSize int
	log       *zap.Logger
	mu        sync.Mutex
	events    []model.Event
	dropped   int
}

// NewConsumer создаёт Consumer с указанным репозиторием и размером пакета
func NewConsumer(repo Repo, batchSize int, log *zap.Logger) *Consumer {
	if batchSize <= 0 {
		batchSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{repo: repo, batchSize: batchSize, log: log, events: make([]model.Event, 0, batchSize)}
}

// HandleMessage разбирает сообщение NATS, добавляет событие в буфер
// и при достижении batchSize отправляет пакет
func (c *Consumer) HandleMessage(ctx context.Context, data []byte) error {
	var e model.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" || e.EntityID <= 0 {
		return ErrInvalidEvent
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	c.log.Debug("событие получено", zap.String("type", e.Type), zap.Int("entity_id", e.EntityID))

	c.mu.Lock()
	c.events = append(c.events, e)
	if len(c.events) < c.batchSize {
		c.mu.Unlock()
		return nil
	}
	batch := c.take()
	c.mu.Unlock()
	return c.write(ctx, batch)
}

// Flush отправляет все накопленные события, если они есть
func (c *Consumer) Flush(ctx context.Context) error {
	c.mu.Lock()
	if len(c.events) == 0 {
		c.mu.Unlock()
		return nil
	}
	batch := c.take()
	c.mu.Unlock()
	return c.write(ctx, batch)
}

// Pending возвращает число событий в буфере
func (c *Consumer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Dropped возвращает число событий, отброшенных из-за переполнения буфера
func (c *Consumer) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// ScheduleFlush регистрирует периодический Flush в планировщике sched
func (c *Consumer) ScheduleFlush(sched *cron.Cron, schedule string) (cron.EntryID, error) {
	return sched.AddFunc(schedule, func() {
		if err := c.Flush(context.Background()); err != nil {
			c.log.Error("периодическая запись не удалась", zap.Error(err))
		}
	})
}

// take забирает весь буфер; вызывается под mu
func (c *Consumer) take() []model.Event {
	batch := make([]model.Event, len(c.events))
	copy(batch, c.events)
	c.events = c.events[:0]
	return batch
}

func (c *Consumer) write(ctx context.Context, batch []model.Event) error {
	if err := c.repo.BatchInsertEvents(ctx, batch); err != nil {
		c.requeue(batch)
		return err
	}
	return nil
}

// requeue возвращает неудачный пакет в начало буфера, отбрасывая самые старые события сверх лимита
func (c *Consumer) requeue(batch []model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := append(batch, c.events...)
	limit := c.batchSize * maxBufferedBatches
	if over := len(merged) - limit; over > 0 {
		c.dropped += over
		c.log.Warn("буфер событий переполнен", zap.Int("dropped", over))
		merged = merged[over:]
	}
	c.events = merged
}
