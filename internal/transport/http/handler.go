package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/model"
	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/repository"
	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/service"
)

// ShipmentService задаёт операции над отправками, используемые хендлером
type ShipmentService interface {
	Create(ctx context.Context, in model.CreateShipmentInput) (*model.Shipment, error)
	Get(ctx context.Context, id int) (*model.Shipment, error)
	List(ctx context.Context) ([]model.Shipment, error)
	UpdateStatus(ctx context.Context, id int, status, actor string) (*model.Shipment, error)
	ListForAssignee(ctx context.Context, username string, date *time.Time) ([]model.Shipment, error)
}

// IssueReportService задаёт операции над отчётами о проблемах
type IssueReportService interface {
	Create(ctx context.Context, in model.CreateIssueReportInput) (*model.IssueReport, error)
	Get(ctx context.Context, id int) (*model.IssueReport, error)
	List(ctx context.Context) ([]model.IssueReport, error)
	ListWithShipments(ctx context.Context) ([]model.IssueReportWithShipment, error)
	ListByShipment(ctx context.Context, shipmentID int) ([]model.IssueReport, error)
	ListByAssignee(ctx context.Context, username string) ([]model.IssueReport, error)
	Update(ctx context.Context, id int, patch model.IssueReportPatch) (*model.IssueReport, error)
}

// StatsService отдаёт сводку для панели администратора
type StatsService interface {
	Overview(ctx context.Context) (*model.StatsOverview, error)
}

// ReadinessCheck проверяет одну зависимость сервиса (Postgres, Redis)
type ReadinessCheck func(ctx context.Context) error

// Handler реализует HTTP-эндпоинты отправок, отчётов и статистики
type Handler struct {
	shipments ShipmentService
	issues    IssueReportService
	stats     StatsService
	log       *zap.Logger
	checks    map[string]ReadinessCheck
}

// NewHandler создаёт новый HTTP Handler
func NewHandler(shipments ShipmentService, issues IssueReportService, stats StatsService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		shipments: shipments,
		issues:    issues,
		stats:     stats,
		log:       log,
		checks:    map[string]ReadinessCheck{},
	}
}

// AddReadinessCheck регистрирует проверку для /readyz
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// RegisterRoutes регистрирует маршруты API
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")
	r.HandleFunc("/readyz", h.Readyz).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/shipments", h.CreateShipment).Methods("POST")
	api.HandleFunc("/shipments", h.ListShipments).Methods("GET")
	api.HandleFunc("/shipments/{id:[0-9]+}", h.GetShipment).Methods("GET")
	api.HandleFunc("/shipments/{id:[0-9]+}/status", h.UpdateShipmentStatus).Methods("PUT")
	api.HandleFunc("/shipments/assigned/{username}", h.ListAssignedShipments).Methods("GET")

	api.HandleFunc("/issuereports", h.CreateIssueReport).Methods("POST")
	api.HandleFunc("/issuereports", h.ListIssueReports).Methods("GET")
	api.HandleFunc("/issuereports/{id:[0-9]+}", h.GetIssueReport).Methods("GET")
	api.HandleFunc("/issuereports/{id:[0-9]+}", h.UpdateIssueReport).Methods("PATCH")
	api.HandleFunc("/issuereports/shipment/{shipmentId:[0-9]+}", h.ListShipmentIssueReports).Methods("GET")
	api.HandleFunc("/issuereports/assigned/{username}", h.ListAssignedIssueReports).Methods("GET")

	api.HandleFunc("/stats/overview", h.StatsOverview).Methods("GET")
}

// Коды ошибок в теле ответа
const (
	codeBadRequest   = 1
	codeValidation   = 2
	codeNotFound     = 3
	codeUnauthorized = 4
	codeInternal     = 5
)

// ErrorResponse модель ошибки API
type ErrorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	if resp.Details == nil {
		resp.Details = map[string]interface{}{}
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, ErrorResponse{Code: codeBadRequest, Message: msg})
}

// handleServiceError переводит ошибку сервиса в HTTP-ответ.
// Внутренние детали пишутся только в лог
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, ErrorResponse{Code: codeValidation, Message: "errors.common.validation", Details: verr.Fields})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrorResponse{Code: codeNotFound, Message: "errors.common.notFound"})
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, ErrorResponse{Code: codeInternal, Message: "errors.common.tryAgainLater"})
	}
}

// pathID извлекает положительный целочисленный параметр пути name
func pathID(r *http.Request, name string) (int, bool) {
	return pathInt(r, name, 1)
}

// pathInt извлекает целочисленный параметр пути name не меньше minID
func pathInt(r *http.Request, name string, minID int) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id < minID {
		return 0, false
	}
	return id, true
}

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Healthz возвращает статус работы сервиса
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz выполняет зарегистрированные проверки; при любой ошибке отвечает 503
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	failed := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		h.log.Warn("readiness check failed", zap.Any("checks", failed))
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// StatsOverview обрабатывает GET /api/stats/overview
func (h *Handler) StatsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Overview(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
