package http

import (
	"fmt"
	"net/http"

	"distress-score/domain"
	"distress-score/service"
)

// requestInput converts a wire request, tagging absent fields as invalid input.
func requestInput(req domain.DistressRequest) (domain.DistressInput, error) {
	input, err := req.Input()
	if err != nil {
		return domain.DistressInput{}, fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}
	return input, nil
}

type DistressHandler struct {
	service   *service.DistressService
	narrative *service.NarrativeService
}

func NewDistressHandler(
	service *service.DistressService,
	narrative *service.NarrativeService,
) *DistressHandler {
	return &DistressHandler{service: service, narrative: narrative}
}

// Score handles POST /distress/score.
func (h *DistressHandler) Score(w http.ResponseWriter, r *http.Request) {
	input, ok := h.readInput(w, r)
	if !ok {
		return
	}

	result, err := h.service.Score(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// Explain handles POST /distress/explain.
func (h *DistressHandler) Explain(w http.ResponseWriter, r *http.Request) {
	input, ok := h.readInput(w, r)
	if !ok {
		return
	}

	explanation, err := h.service.Explain(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.narrative != nil {
		explanation.Narrative, explanation.Source = h.narrative.Narrate(r.Context(), input, explanation)
	}

	writeJSON(w, r, http.StatusOK, explanation)
}

func (h *DistressHandler) readInput(w http.ResponseWriter, r *http.Request) (domain.DistressInput, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return domain.DistressInput{}, false
	}

	var req domain.DistressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return domain.DistressInput{}, false
	}

	input, err := requestInput(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return domain.DistressInput{}, false
	}
	return input, true
}
