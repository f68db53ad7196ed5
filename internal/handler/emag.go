package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mmeshcher/marketdash/internal/backend"
)

func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// CourierAccounts возвращает курьерские аккаунты eMAG учётных данных credential_id.
func (h *Handler) CourierAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r, "credential_id")
	if !ok || id == 0 {
		writeMessage(w, http.StatusBadRequest, "credential_id is required")
		return
	}
	raw, err := h.service.CourierAccounts(r.Context(), session(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, raw)
}

// Addresses возвращает адреса отправителя eMAG учётных данных credential_id.
func (h *Handler) Addresses(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r, "credential_id")
	if !ok || id == 0 {
		writeMessage(w, http.StatusBadRequest, "credential_id is required")
		return
	}
	raw, err := h.service.Addresses(r.Context(), session(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, raw)
}

// OrderDetails возвращает подробности заказа eMAG.
func (h *Handler) OrderDetails(w http.ResponseWriter, r *http.Request) {
	var req backend.OrderDetailsRequest
	if !decode(r, &req) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	raw, err := h.service.OrderDetails(r.Context(), session(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, raw)
}

// GenerateAWB создаёт накладную eMAG. Тело запроса передаётся бэкенду без изменений.
func (h *Handler) GenerateAWB(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if !decode(r, &payload) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	raw, err := h.service.GenerateAWB(r.Context(), session(r), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, raw)
}
