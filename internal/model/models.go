package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitialShipmentStatus: статус, с которым создаётся каждая отправка
const InitialShipmentStatus = "In afwachting"

// MaxIssueTitleLength ограничивает длину заголовка отчёта о проблеме
const MaxIssueTitleLength = 255

// Shipment представляет отправку (таблица shipments)
// assignedTo и expectedDelivery хранятся как свободный текст
type Shipment struct {
	ID               int              `db:"id" json:"id"`
	Status           string           `db:"status" json:"status"`
	Destination      *string          `db:"destination" json:"destination"`
	AssignedTo       *string          `db:"assigned_to" json:"assignedTo"`
	ExpectedDelivery *string          `db:"expected_delivery" json:"expectedDelivery"`
	Weight           *string          `db:"weight" json:"weight"`
	Revenue          *decimal.Decimal `db:"revenue" json:"revenue"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	LastUpdatedBy    *string          `db:"last_updated_by" json:"lastUpdatedBy"`
	LastUpdatedAt    *time.Time       `db:"last_updated_at" json:"lastUpdatedAt"`
}

// CreateShipmentInput: поля запроса на создание отправки, все необязательные
type CreateShipmentInput struct {
	Destination      *string          `json:"destination"`
	AssignedTo       *string          `json:"assignedTo"`
	ExpectedDelivery *string          `json:"expectedDelivery"`
	Weight           *string          `json:"weight"`
	Revenue          *decimal.Decimal `json:"revenue"`
}

// IssueReport представляет отчёт о проблеме (таблица issue_reports)
// ShipmentID: слабая ссылка: внешнего ключа нет, отправка может не существовать
type IssueReport struct {
	ID          int        `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description"`
	ImageURL    *string    `db:"image_url" json:"imageUrl"`
	ShipmentID  *int       `db:"shipment_id" json:"shipmentId"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	IsImportant bool       `db:"is_important" json:"isImportant"`
	IsFixed     bool       `db:"is_fixed" json:"isFixed"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolvedAt"`
}

// IssueReportWithShipment: отчёт, обогащённый связанной отправкой (nil, если её нет)
type IssueReportWithShipment struct {
	IssueReport
	Shipment *Shipment `json:"shipment"`
}

// CreateIssueReportInput: поля запроса на создание отчёта о проблеме
type CreateIssueReportInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	ShipmentID  *int    `json:"shipmentId"`
}

// IssueReportPatch описывает частичное обновление отчёта.
// Отсутствующее поле означает "не менять", а не "очистить"
type IssueReportPatch struct {
	Title       Optional[string]     `json:"title"`
	Description Optional[*string]    `json:"description"`
	ImageURL    Optional[*string]    `json:"imageUrl"`
	ShipmentID  Optional[*int]       `json:"shipmentId"`
	IsImportant Optional[bool]       `json:"isImportant"`
	IsFixed     Optional[bool]       `json:"isFixed"`
	ResolvedAt  Optional[*time.Time] `json:"resolvedAt"`
}
