package model

import "github.com/shopspring/decimal"

// MonthlyStat: агрегаты отправок за один календарный месяц
type MonthlyStat struct {
	Month     int             `json:"month"`
	Shipments int             `json:"shipments"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// StatsOverview: сводка по отправкам за текущий год, месяц и день
// Monthly всегда содержит 12 элементов (январь..декабрь)
type StatsOverview struct {
	Year               int             `json:"year"`
	Month              int             `json:"month"`
	TotalShipments     int             `json:"totalShipments"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	ShipmentsThisMonth int             `json:"shipmentsThisMonth"`
	ShipmentsToday     int             `json:"shipmentsToday"`
	Monthly            []MonthlyStat   `json:"monthly"`
}
