package model

import (
	"encoding/json"
	"time"
)

// Типы событий аудита, публикуемых в NATS
const (
	EventShipmentCreated       = "shipment.created"
	EventShipmentStatusUpdated = "shipment.status_updated"
	EventIssueCreated          = "issue.created"
	EventIssueUpdated          = "issue.updated"
)

// Event: запись аудита об изменении отправки или отчёта (таблица tracking_events в ClickHouse)
// Payload содержит JSON сущности после изменения
type Event struct {
	Type       string          `json:"type"`
	EntityID   int             `json:"entityId"`
	Actor      string          `json:"actor,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}
