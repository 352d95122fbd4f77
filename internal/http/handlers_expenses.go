package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"paydesk/internal/core"
	"paydesk/internal/log"
)

// handleListExpenses answers GET /api/expenses.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	args, err := ParseExpenseArgs(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	collection, err := s.service.Resolve(r.Context(), args)
	if err != nil {
		s.writeResolveError(w, r, err)
		return
	}

	NewJSONResponse().Payload(BuildCollection(collection)).Write(w)
}

// writeResolveError maps service errors onto status codes. Validation
// problems name the cause; not-found names the reference; everything
// else is opaque and gets logged here instead.
func (s *Server) writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var ve *core.ValidationError
	if errors.As(err, &ve) {
		BadRequestError(ve.Error()).Write(w)
		return
	}

	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		NotFoundError(nf.Error()).Write(w)
		return
	}

	log.FromContext(ctx).ErrorContext(ctx, "Expense resolve failed",
		log.FieldError, err,
		log.FieldPath, r.URL.Path,
		log.FieldQuery, r.URL.RawQuery)
	InternalServerError().Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.pinger == nil {
		checks["store"] = "not_configured"
	} else if err := s.pinger.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": checks,
	})
}
