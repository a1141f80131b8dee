package service

import (
	"strings"
	"time"
)

// deliveryDateLayouts: форматы, в которых приложения записывают expectedDelivery.
// Первым идёт привычный для водителей день-месяц-год
var deliveryDateLayouts = []string{
	"02-01-2006",
	"2-1-2006",
	"02-01-2006 15:04",
	"02/01/2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDeliveryDate разбирает свободный текст expectedDelivery.
// Возвращает false, если ни один формат не подошёл
func ParseDeliveryDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range deliveryDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sameDay сравнивает календарные даты без учёта времени и часового пояса
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
