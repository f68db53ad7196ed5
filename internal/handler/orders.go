package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/marketdash/internal/backend"
	"github.com/mmeshcher/marketdash/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Orders возвращает сведённый список заказов и сводку по артикулам.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.LoadOrders(r.Context(), session(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RefreshOrders запускает обновление заказов по всем учётным данным.
// Если обновление уже идёт, возвращается отчёт с признаком skipped.
func (h *Handler) RefreshOrders(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RefreshAll(r.Context(), session(r))
	if err != nil && !errors.Is(err, service.ErrRefreshInProgress) {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportSummary отдаёт список подготовки в формате XLSX.
func (h *Handler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportPrepList(r.Context(), session(r), &buf); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="prep-list.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write xlsx response", zap.Error(err))
	}
}

type stockRequest struct {
	SKUs []string `json:"skus"`
}

type stockResponse struct {
	Stock  map[string]map[string]float64 `json:"stock"`
	Errors map[string]string             `json:"errors,omitempty"`
}

// Stock возвращает остатки артикулов у всех провайдеров. Ошибка одного провайдера не мешает остальным.
func (h *Handler) Stock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if !decode(r, &req) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	skus := make([]string, 0, len(req.SKUs))
	for _, sku := range req.SKUs {
		if sku = strings.TrimSpace(sku); sku != "" {
			skus = append(skus, sku)
		}
	}

	res := h.service.Stock(r.Context(), session(r), skus)

	resp := stockResponse{Stock: make(map[string]map[string]float64, len(backend.Providers))}
	for _, p := range backend.Providers {
		levels := res.Levels[p]
		if levels == nil {
			levels = map[string]float64{}
		}
		resp.Stock[string(p)] = levels
	}
	if len(res.Errors) > 0 {
		resp.Errors = make(map[string]string, len(res.Errors))
		for p, msg := range res.Errors {
			resp.Errors[string(p)] = msg
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
