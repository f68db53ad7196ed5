package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/pricing"
)

type calculatorResponse struct {
	*model.CalculatorData
	SavePending bool `json:"save_pending"`
}

// Calculator возвращает документ калькулятора.
func (h *Handler) Calculator(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	data, err := h.service.Calculator(r.Context(), sess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calculatorResponse{CalculatorData: data, SavePending: h.service.SavePending(sess)})
}

// SaveCalculator заменяет документ калькулятора. Сохранение на бэкенде откладывается.
func (h *Handler) SaveCalculator(w http.ResponseWriter, r *http.Request) {
	var data model.CalculatorData
	if !decode(r, &data) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.SaveCalculator(r.Context(), session(r), data); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// FlushCalculator немедленно сохраняет отложенные изменения калькулятора.
func (h *Handler) FlushCalculator(w http.ResponseWriter, r *http.Request) {
	if err := h.service.FlushCalculator(r.Context(), session(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StageProduct применяет частичную правку к строке калькулятора без сохранения.
func (h *Handler) StageProduct(w http.ResponseWriter, r *http.Request) {
	var patch json.RawMessage
	if !decode(r, &patch) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.service.StageProduct(r.Context(), session(r), chi.URLParam(r, "key"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CommitProduct переносит правку строки в документ калькулятора.
func (h *Handler) CommitProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.CommitProduct(r.Context(), session(r), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CancelProductEdit отбрасывает правку строки.
func (h *Handler) CancelProductEdit(w http.ResponseWriter, r *http.Request) {
	if !h.service.CancelProductEdit(session(r), chi.URLParam(r, "key")) {
		writeMessage(w, http.StatusNotFound, "no pending edit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PendingEdits возвращает несохранённые правки строк.
func (h *Handler) PendingEdits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.PendingEdits(session(r)))
}

// Prices возвращает таблицу цен всех изделий по каналам.
func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.PriceTable(r.Context(), session(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// FetchPrices запрашивает цены eMAG для всех артикулов калькулятора.
func (h *Handler) FetchPrices(w http.ResponseWriter, r *http.Request) {
	credentialID, ok := queryID(r, "credential_id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid credential id")
		return
	}
	report, err := h.service.FetchAllPrices(r.Context(), session(r), credentialID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Productivity считает цену безубыточности по затратам на единицу.
func (h *Handler) Productivity(w http.ResponseWriter, r *http.Request) {
	var in pricing.ProductivityInput
	if !decode(r, &in) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, pricing.Productivity(in))
}

type autoRefreshRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAutoRefresh включает или выключает автообновление заказов.
func (h *Handler) SetAutoRefresh(w http.ResponseWriter, r *http.Request) {
	var req autoRefreshRequest
	if !decode(r, &req) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, h.service.SetAutoRefresh(session(r), req.Enabled))
}

// AutoRefresh возвращает состояние автообновления и время до следующего прохода.
func (h *Handler) AutoRefresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.AutoRefresh(session(r)))
}
