package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yravipati/countydata/internal/lookup"
	"github.com/yravipati/countydata/internal/middleware"
)

const maxBodyBytes = 1 << 20

type handler struct {
	svc    Lookuper
	logger *slog.Logger
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Use POST /county_data",
	})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		h.writeDetail(w, r, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) countyData(w http.ResponseWriter, r *http.Request) {
	var req lookup.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeDetail(w, r, http.StatusBadRequest, "request body must be a JSON object with zip and measure_name")
		return
	}

	records, err := h.svc.Lookup(r.Context(), req)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, records)
}

func (h *handler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	var le *lookup.Error
	if errors.As(err, &le) {
		h.writeDetail(w, r, statusFor(le.Code), le.Message)
		return
	}
	h.logger.Error("lookup failed",
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"error", err,
	)
	h.writeDetail(w, r, http.StatusInternalServerError, "internal server error")
}

func statusFor(code lookup.ErrorCode) int {
	switch code {
	case lookup.CodeBadRequest:
		return http.StatusBadRequest
	case lookup.CodeNotFound:
		return http.StatusNotFound
	case lookup.CodeTeapot:
		return http.StatusTeapot
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeDetail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	h.writeJSON(w, r, status, map[string]string{"detail": detail})
}

// writeJSON writes v with status. The header is already sent when encoding
// fails, so the failure is only logged.
func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("write response failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
	}
}
