package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// ClickhouseRepo реализует пакетную запись событий аудита в ClickHouse
type ClickhouseRepo struct {
	db  *sql.DB
	log *zap.Logger
}

// NewClickhouseRepo создаёт новый репозиторий для ClickHouse
func NewClickhouseRepo(db *sql.DB, log *zap.Logger) *ClickhouseRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClickhouseRepo{db: db, log: log}
}

// BatchInsertEvents записывает пакет событий в таблицу tracking_events
func (r *ClickhouseRepo) BatchInsertEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	// clickhouse-go собирает блок из всех Exec внутри транзакции
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin clickhouse batch: %w", err)
	}
	r.log.Debug("начало пакетной вставки событий", zap.Int("count", len(events)))
	query := `INSERT INTO tracking_events (EventType, EntityId, Actor, Payload, OccurredAt) VALUES (?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare clickhouse batch: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, e := range events {
		_, err := stmt.ExecContext(ctx, e.Type, int64(e.EntityID), e.Actor, string(e.Payload), e.OccurredAt)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert event %s: %w", e.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clickhouse batch: %w", err)
	}
	r.log.Info("события записаны в ClickHouse", zap.Int("count", len(events)))
	return nil
}
