package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pemrank/internal/domain"
	"github.com/kailas-cloud/pemrank/internal/transport/wire"
	healthuc "github.com/kailas-cloud/pemrank/internal/usecase/health"
	rankuc "github.com/kailas-cloud/pemrank/internal/usecase/rank"
	apiv1 "github.com/kailas-cloud/pemrank/pkg/api/v1"
)

// maxBodyBytes bounds a POST /rank body. 500 fully populated candidates fit comfortably.
const maxBodyBytes = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the ranking API.
type Server struct {
	rank          *rankuc.Service
	binder        *wire.Binder
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	rank *rankuc.Service,
	binder *wire.Binder,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		rank:   rank,
		binder: binder,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMalformedRequest, http.StatusBadRequest, apiv1.ErrorCodeBadRequest),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, apiv1.ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, apiv1.ErrorCodeRateLimited),
	}
	return s
}

// Rank handles POST /rank.
func (s *Server) Rank(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	raw, err := s.binder.Decode(r.Body)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	req, err := s.binder.Bind(raw)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.rank.Rank(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setLatencyHeader(w, time.Since(start))
	writeJSON(w, http.StatusOK, wire.Response(resp))
}

// HealthCheck handles GET /health. Liveness holds while the process serves;
// a failing optional dependency only degrades the status.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, http.StatusOK, apiv1.HealthResponse{
		OK:                 true,
		Status:             string(report.Status),
		Checks:             checks,
		CalibrationVersion: report.CalibrationVersion,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setLatencyHeader(w http.ResponseWriter, d time.Duration) {
	ms := float64(d.Microseconds()) / 1000
	w.Header().Set(apiv1.LatencyHeader, strconv.FormatFloat(ms, 'f', 3, 64))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiv1.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation and decode errors describe the caller's own payload and are passed through.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if errors.Is(err, domain.ErrMalformedRequest) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrRateLimited,
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
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			s.logger.Debug("request rejected", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, apiv1.ErrorCodeInternalError, "internal error")
}
