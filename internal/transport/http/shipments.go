package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// dateQueryLayout: формат параметра ?date= в выборке по исполнителю
const dateQueryLayout = "2006-01-02"

// CreateShipment обрабатывает POST /api/shipments
// Возвращает 201 с заголовком Location созданной отправки
func (h *Handler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var in model.CreateShipmentInput
	if err := decodeBody(r, &in); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	shipment, err := h.shipments.Create(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/shipments/%d", shipment.ID))
	writeJSON(w, http.StatusCreated, shipment)
}

// ListShipments обрабатывает GET /api/shipments
func (h *Handler) ListShipments(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.shipments.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if shipments == nil {
		shipments = []model.Shipment{}
	}
	writeJSON(w, http.StatusOK, shipments)
}

// GetShipment обрабатывает GET /api/shipments/{id}
func (h *Handler) GetShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid id")
		return
	}
	shipment, err := h.shipments.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

// UpdateShipmentStatus обрабатывает PUT /api/shipments/{id}/status
// 1. Берёт исполнителя из контекста (ActorMiddleware), без него отвечает 401
// 2. Декодирует тело {status}
// 3. Вызывает сервис и возвращает обновлённую отправку
func (h *Handler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorResponse{Code: codeUnauthorized, Message: "errors.common.unauthorized"})
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	shipment, err := h.shipments.UpdateStatus(r.Context(), id, req.Status, actor)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

// ListAssignedShipments обрабатывает GET /api/shipments/assigned/{username}?date=YYYY-MM-DD
func (h *Handler) ListAssignedShipments(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(mux.Vars(r)["username"])
	if username == "" {
		badRequest(w, "invalid username")
		return
	}
	var date *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse(dateQueryLayout, raw)
		if err != nil {
			badRequest(w, "invalid date")
			return
		}
		date = &d
	}
	shipments, err := h.shipments.ListForAssignee(r.Context(), username, date)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if shipments == nil {
		shipments = []model.Shipment{}
	}
	writeJSON(w, http.StatusOK, shipments)
}
