// Package server exposes the orchestrator over HTTP: one trigger endpoint
// that runs a full planning pass for a staged shipment request, plus health
// and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fulfillkit/inboundplan"
)

// PlanPreparer is the part of the orchestrator the server drives.
type PlanPreparer interface {
	PreparePlan(ctx context.Context, params *inboundplan.PreparePlanInput) (*inboundplan.PreparePlanOutput, error)
}

type Options struct {
	Logger         *zap.Logger
	Registry       *prometheus.Registry
	RequestTimeout time.Duration
}

func WithServerLogger(l *zap.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

func WithRegistry(r *prometheus.Registry) func(*Options) {
	return func(o *Options) {
		o.Registry = r
	}
}

func WithRequestTimeout(d time.Duration) func(*Options) {
	return func(o *Options) {
		o.RequestTimeout = d
	}
}

type Server struct {
	preparer PlanPreparer
	logger   *zap.Logger
	registry *prometheus.Registry
	timeout  time.Duration

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New(preparer PlanPreparer, optFns ...func(*Options)) *Server {
	o := &Options{
		Logger:         zap.NewNop(),
		Registry:       prometheus.NewRegistry(),
		RequestTimeout: 5 * time.Minute,
	}
	for _, opt := range optFns {
		opt(o)
	}
	s := &Server{
		preparer: preparer,
		logger:   o.Logger,
		registry: o.Registry,
		timeout:  o.RequestTimeout,
	}
	factory := promauto.With(s.registry)
	s.requests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "inboundplan_http_requests_total",
		Help: "HTTP requests by handler and status code.",
	}, []string{"handler", "code"})
	s.duration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inboundplan_http_request_duration_seconds",
		Help:    "HTTP request latency by handler.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"handler"})
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/inbound-plans", s.instrument("prepare_plan", http.HandlerFunc(s.handlePreparePlan)))
	mux.Handle("/healthz", s.instrument("healthz", http.HandlerFunc(s.handleHealthz)))
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// statusRecorder captures the written status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(handler string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.requests.WithLabelValues(handler, strconv.Itoa(rec.status)).Inc()
		s.duration.WithLabelValues(handler).Observe(time.Since(start).Seconds())
	})
}

type preparePlanRequest struct {
	RequestID           string            `json:"requestId"`
	ExpirationOverrides map[string]string `json:"expirationOverrides,omitempty"`
	QuantityOverrides   map[string]int    `json:"quantityOverrides,omitempty"`
}

type preparePlanResponse struct {
	TraceID string                  `json:"traceId"`
	Result  *inboundplan.PlanResult `json:"result,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

func (s *Server) handlePreparePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSON(w, http.StatusMethodNotAllowed, preparePlanResponse{Error: "method not allowed"})
		return
	}
	var body preparePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, preparePlanResponse{Error: "malformed request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	out, err := s.preparer.PreparePlan(ctx, &inboundplan.PreparePlanInput{
		RequestID:           body.RequestID,
		ExpirationOverrides: body.ExpirationOverrides,
		QuantityOverrides:   body.QuantityOverrides,
	})
	if err != nil {
		status, message := classifyError(err)
		traceID := ""
		if out != nil {
			traceID = out.TraceID
		}
		if status >= 500 {
			s.logger.Error("plan preparation failed",
				zap.String("request_id", body.RequestID),
				zap.Error(err),
			)
		}
		s.writeJSON(w, status, preparePlanResponse{TraceID: traceID, Error: message})
		return
	}
	s.writeJSON(w, http.StatusOK, preparePlanResponse{TraceID: out.TraceID, Result: out.Result})
}

// classifyError maps caller mistakes to 4xx and keeps everything else a
// 500 with a generic message; the detail stays in the server log.
func classifyError(err error) (int, string) {
	var notProvided *inboundplan.RequestIDNotProvidedError
	var invalid *inboundplan.InvalidRequestIDError
	var notFound *inboundplan.RequestNotFoundError
	switch {
	case errors.As(err, &notProvided), errors.As(err, &invalid):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &notFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "plan preparation failed"
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}
