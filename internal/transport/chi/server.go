// Package chi is the HTTP transport: route handlers, request parsing and
// domain error mapping for the associations API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bhalbert/rest-api/internal/db"
	"github.com/bhalbert/rest-api/internal/domain"
	associationuc "github.com/bhalbert/rest-api/internal/usecase/association"
	evidenceuc "github.com/bhalbert/rest-api/internal/usecase/evidence"
)

// ErrorResponse is the JSON error body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned to clients.
const (
	CodeBadRequest     = "bad_request"
	CodeUnauthorized   = "unauthorized"
	CodeNotFound       = "not_found"
	CodeRateLimited    = "rate_limited"
	CodeBackendTimeout = "backend_timeout"
	CodeInternalError  = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the use case services behind the HTTP routes.
type Server struct {
	associations  *associationuc.Service
	evidence      *evidenceuc.Service
	statsIndexes  associationuc.StatsIndexes
	store         db.Store
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	associations *associationuc.Service,
	evidence *evidenceuc.Service,
	statsIndexes associationuc.StatsIndexes,
	store db.Store,
	logger *zap.Logger,
) *Server {
	s := &Server{
		associations: associations,
		evidence:     evidence,
		statsIndexes: statsIndexes,
		store:        store,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrBackendTimeout, http.StatusGatewayTimeout, CodeBackendTimeout),
	}
	return s
}

// Routes registers every handler on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/associations", s.GetAssociations)
	r.Post("/api/associations", s.GetAssociations)
	r.Get("/api/associations/tree", s.GetAssociationsTree)
	r.Post("/api/associations/tree", s.GetAssociationsTree)
	r.Get("/api/evidence/filter", s.FilterEvidence)
	r.Post("/api/evidence/filter", s.FilterEvidence)
	r.Get("/api/stats", s.GetStats)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// GetAssociations handles GET and POST /api/associations. A non-empty id
// list short-circuits to a direct lookup.
func (s *Server) GetAssociations(w http.ResponseWriter, r *http.Request) {
	req, err := parseAssociationRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	p, err := req.searchParams()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if len(req.IDs) > 0 {
		page, err := s.associations.GetByIDs(r.Context(), req.IDs, p)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	page, err := s.associations.Get(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetAssociationsTree handles GET and POST /api/associations/tree.
func (s *Server) GetAssociationsTree(w http.ResponseWriter, r *http.Request) {
	req, err := parseAssociationRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	p, err := req.searchParams()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	result, err := s.associations.GetTree(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// FilterEvidence handles GET and POST /api/evidence/filter.
func (s *Server) FilterEvidence(w http.ResponseWriter, r *http.Request) {
	req, err := parseEvidenceRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	if len(req.IDs) > 0 {
		page, err := s.evidence.GetByIDs(r.Context(), req.IDs)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	page, err := s.evidence.Get(r.Context(), req.query())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetStats handles GET /api/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.associations.Stats(r.Context(), s.statsIndexes)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"cache": "ok"}
	status := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		checks["cache"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrBackendTimeout,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
