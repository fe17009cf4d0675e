package http

import (
	"fmt"
	"net/http"

	"distress-score/domain"
	"distress-score/service"
)

type BatchHandler struct {
	service *service.BatchService
}

func NewBatchHandler(service *service.BatchService) *BatchHandler {
	return &BatchHandler{service: service}
}

// Batch handles POST /distress/batch. A listing with missing fields fails the
// whole request; listings with out-of-range values come back in "rejected".
func (h *BatchHandler) Batch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	input, err := req.Input()
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("%w: %w", service.ErrInvalidInput, err))
		return
	}

	result, err := h.service.Rank(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}
