package handler

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/lifecompass/finance-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// readBody returns the request body, capped at maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.ErrValidation{Field: "body", Message: err.Error()}
	}
	return body, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &domain.ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// queryFloat parses a required, finite float query parameter.
func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, &domain.ErrValidation{Field: name, Message: "query parameter is required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &domain.ErrValidation{Field: name, Message: "must be a finite number"}
	}
	return v, nil
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var unsupported *domain.ErrUnsupportedCurrency
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: validation.Field})
	case errors.As(err, &unsupported):
		logger.Debug("unsupported currency", zap.String("currency", unsupported.Currency))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &external):
		logger.Error("external service failure", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream service unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
