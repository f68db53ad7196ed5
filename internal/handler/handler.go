// Package handler содержит HTTP-обработчики API панели продавца.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/marketdash/internal/backend"
	"github.com/mmeshcher/marketdash/internal/middleware"
	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/pricing"
	"github.com/mmeshcher/marketdash/internal/service"
	"github.com/mmeshcher/marketdash/internal/stock"
	"github.com/mmeshcher/marketdash/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Logout(ctx context.Context, sess model.Session) error

	Platforms(ctx context.Context, sess model.Session) ([]model.PlatformInfo, error)
	Credentials(ctx context.Context, sess model.Session) ([]model.Credential, error)
	CreateCredential(ctx context.Context, sess model.Session, in model.CredentialInput) (*model.Credential, error)
	UpdateCredential(ctx context.Context, sess model.Session, id int64, in model.CredentialInput) (*model.Credential, error)
	DeleteCredential(ctx context.Context, sess model.Session, id int64) error
	SetCredentialVisibility(ctx context.Context, sess model.Session, credentialID int64, visible bool) error
	SetTrendyolVisibility(ctx context.Context, sess model.Session, country string, visible bool) error

	LoadOrders(ctx context.Context, sess model.Session) (*service.OrdersView, error)
	RefreshAll(ctx context.Context, sess model.Session) (service.RefreshReport, error)
	Stock(ctx context.Context, sess model.Session, skus []string) stock.Result
	ExportPrepList(ctx context.Context, sess model.Session, w io.Writer) error

	Calculator(ctx context.Context, sess model.Session) (*model.CalculatorData, error)
	SaveCalculator(ctx context.Context, sess model.Session, data model.CalculatorData) error
	FlushCalculator(ctx context.Context, sess model.Session) error
	SavePending(sess model.Session) bool
	StageProduct(ctx context.Context, sess model.Session, key string, patch json.RawMessage) (*model.Product, error)
	CommitProduct(ctx context.Context, sess model.Session, key string) (*model.Product, error)
	CancelProductEdit(sess model.Session, key string) bool
	PendingEdits(sess model.Session) []model.Product
	PriceTable(ctx context.Context, sess model.Session) ([]pricing.PriceRow, error)
	FetchAllPrices(ctx context.Context, sess model.Session, credentialID int64) (service.PriceFetchReport, error)

	SetAutoRefresh(sess model.Session, enabled bool) service.AutoRefreshStatus
	AutoRefresh(sess model.Session) service.AutoRefreshStatus

	CourierAccounts(ctx context.Context, sess model.Session, credentialID int64) (json.RawMessage, error)
	Addresses(ctx context.Context, sess model.Session, credentialID int64) (json.RawMessage, error)
	OrderDetails(ctx context.Context, sess model.Session, in backend.OrderDetailsRequest) (json.RawMessage, error)
	GenerateAWB(ctx context.Context, sess model.Session, payload json.RawMessage) (json.RawMessage, error)
}

// Handler реализует HTTP-обработчики API панели продавца.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type errorResponse struct {
	Error  string                 `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError переводит ошибку сервиса в HTTP-ответ.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr validation.Errors
	var statusErr *backend.StatusError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: verr})
	case errors.Is(err, backend.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "backend session expired, log in again")
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrNoPendingEdit):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidPatch):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoEmagCredential):
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound:
		writeMessage(w, http.StatusNotFound, statusErr.Body)
	case errors.As(err, &statusErr):
		h.logger.Warn("backend request failed", zap.String("path", r.URL.Path), zap.Error(err))
		if statusErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(statusErr.RetryAfter.Seconds())))
		}
		writeMessage(w, http.StatusBadGateway, "backend request failed, try again")
	case errors.Is(err, backend.ErrUnavailable), errors.Is(err, backend.ErrNoPrice):
		h.logger.Warn("backend unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		writeMessage(w, http.StatusBadGateway, "backend unavailable, try again")
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func decode(r *http.Request, v any) bool {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func session(r *http.Request) model.Session {
	sess, _ := middleware.SessionFromContext(r.Context())
	return sess
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func queryID(r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	return id, err == nil && id >= 0
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// Login выполняет вход на бэкенде и устанавливает cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(r, &req) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			writeMessage(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.writeError(w, r, err)
		return
	}

	h.authMiddleware.SetAuthCookie(w, sess.ID)
	writeJSON(w, http.StatusOK, loginResponse{UserID: sess.UserID, Name: sess.Name})
}

// Logout завершает сессию и удаляет cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), session(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Platforms возвращает список поддерживаемых платформ.
func (h *Handler) Platforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.service.Platforms(r.Context(), session(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, platforms)
}

// Credentials возвращает учётные данные пользователя.
func (h *Handler) Credentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.service.Credentials(r.Context(), session(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

// CreateCredential создаёт учётные данные маркетплейса.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var in model.CredentialInput
	if !decode(r, &in) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cred, err := h.service.CreateCredential(r.Context(), session(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cred)
}

// UpdateCredential изменяет учётные данные маркетплейса.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid credential id")
		return
	}
	var in model.CredentialInput
	if !decode(r, &in) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cred, err := h.service.UpdateCredential(r.Context(), session(r), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cred)
}

// DeleteCredential удаляет учётные данные маркетплейса.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid credential id")
		return
	}
	if err := h.service.DeleteCredential(r.Context(), session(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

// SetCredentialVisibility включает или скрывает заказы учётных данных.
func (h *Handler) SetCredentialVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid credential id")
		return
	}
	var req visibilityRequest
	if !decode(r, &req) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.SetCredentialVisibility(r.Context(), session(r), id, req.Visible); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTrendyolVisibility включает или скрывает заказы Trendyol одной страны.
func (h *Handler) SetTrendyolVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if !decode(r, &req) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.SetTrendyolVisibility(r.Context(), session(r), chi.URLParam(r, "country"), req.Visible); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
