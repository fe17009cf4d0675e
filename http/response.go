package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"distress-score/service"
)

const maxBodyBytes = 1 << 20

var errUnsupportedMediaType = errors.New("Content-Type must be application/json")

// decodeJSON requires a JSON content type and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return errUnsupportedMediaType
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeDecodeError maps a decodeJSON failure to 415 or 400.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	requestLogger(r).Debug().Err(err).Msg("rejecting request body")
	if errors.Is(err, errUnsupportedMediaType) {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// writeServiceError maps service errors to 400 for bad input and 500 otherwise.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrBatchTooLarge):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		requestLogger(r).Error().Err(err).Msg("request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeJSON encodes into a buffer first so an encoding failure can still
// produce a clean 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		requestLogger(r).Error().Err(err).Msg("error encoding response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		requestLogger(r).Warn().Err(err).Msg("error writing response")
	}
}

func requestLogger(r *http.Request) *zerolog.Logger {
	l := log.With().Str("request_id", RequestIDFromContext(r.Context())).Logger()
	return &l
}
