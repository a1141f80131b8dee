package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
)

// CreateIssueReport обрабатывает POST /api/issuereports
func (h *Handler) CreateIssueReport(w http.ResponseWriter, r *http.Request) {
	var in model.CreateIssueReportInput
	if err := decodeBody(r, &in); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	rep, err := h.issues.Create(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/issuereports/%d", rep.ID))
	writeJSON(w, http.StatusCreated, rep)
}

// ListIssueReports обрабатывает GET /api/issuereports
// С ?includeShipment=true каждый отчёт содержит поле shipment
func (h *Handler) ListIssueReports(w http.ResponseWriter, r *http.Request) {
	include := false
	if raw := r.URL.Query().Get("includeShipment"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "invalid includeShipment")
			return
		}
		include = v
	}
	if include {
		reports, err := h.issues.ListWithShipments(r.Context())
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		if reports == nil {
			reports = []model.IssueReportWithShipment{}
		}
		writeJSON(w, http.StatusOK, reports)
		return
	}
	reports, err := h.issues.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilReports(reports))
}

// GetIssueReport обрабатывает GET /api/issuereports/{id}
func (h *Handler) GetIssueReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid id")
		return
	}
	rep, err := h.issues.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// UpdateIssueReport обрабатывает PATCH /api/issuereports/{id}
// Меняются только присутствующие в теле поля
func (h *Handler) UpdateIssueReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid id")
		return
	}
	var patch model.IssueReportPatch
	if err := decodeBody(r, &patch); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	rep, err := h.issues.Update(r.Context(), id, patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ListShipmentIssueReports обрабатывает GET /api/issuereports/shipment/{shipmentId}
func (h *Handler) ListShipmentIssueReports(w http.ResponseWriter, r *http.Request) {
	// ссылка на отправку слабая: 0 допустим так же, как при создании отчёта
	shipmentID, ok := pathInt(r, "shipmentId", 0)
	if !ok {
		badRequest(w, "invalid shipmentId")
		return
	}
	reports, err := h.issues.ListByShipment(r.Context(), shipmentID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilReports(reports))
}

// ListAssignedIssueReports обрабатывает GET /api/issuereports/assigned/{username}
func (h *Handler) ListAssignedIssueReports(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(mux.Vars(r)["username"])
	if username == "" {
		badRequest(w, "invalid username")
		return
	}
	reports, err := h.issues.ListByAssignee(r.Context(), username)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilReports(reports))
}

func nonNilReports(reports []model.IssueReport) []model.IssueReport {
	if reports == nil {
		return []model.IssueReport{}
	}
	return reports
}
