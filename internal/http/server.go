// Package http serves the JSON API of the tracker: the item catalog, the
// monthly view with its edits and the unpaid summary.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "debikan/internal/log"
	"debikan/internal/metrics"
	"debikan/internal/middleware/trace"
	"debikan/internal/services"
)

// ReadyFunc reports whether the backing store can serve requests.
type ReadyFunc func(ctx context.Context) error

// Options wires the server to the services.
type Options struct {
	Months  *services.MonthService
	Items   *services.ItemService
	Ready   ReadyFunc
	Metrics *metrics.Metrics
	Logger  *applog.Logger

	// WriteLimit is the number of writes a client may issue per minute.
	WriteLimit int
}

type Server struct {
	http.Server
	months      *services.MonthService
	items       *services.ItemService
	ready       ReadyFunc
	metrics     *metrics.Metrics
	logger      *applog.Logger
	rateLimiter *rateLimiter
	tracer      *trace.Middleware
	startedAt   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.WriteLimit <= 0 {
		opts.WriteLimit = 600
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		months:      opts.Months,
		items:       opts.Items,
		ready:       opts.Ready,
		metrics:     opts.Metrics,
		logger:      opts.Logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(opts.WriteLimit, time.Minute),
		tracer:      trace.NewMiddleware(opts.Logger, extractClientIP, opts.Metrics),
		startedAt:   time.Now(),
	}

	s.handle(mux, "GET /healthz", s.handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	s.handle(mux, "GET /api/items", s.handleListItems)
	s.handle(mux, "POST /api/items", s.handleCreateItem)
	s.handle(mux, "PUT /api/items/{id}", s.handleUpdateItem)
	s.handle(mux, "DELETE /api/items/{id}", s.handleDeleteItem)

	s.handle(mux, "GET /api/months/{month}", s.handleGetMonth)
	s.handle(mux, "POST /api/months/{month}/reload", s.handleReloadMonth)
	s.handle(mux, "GET /api/months/{month}/summary", s.handleMonthSummary)
	s.handle(mux, "PUT /api/months/{month}/items/{id}/amount", s.handleSetAmount)
	s.handle(mux, "PUT /api/months/{month}/items/{id}/paid", s.handleSetPaid)
	s.handle(mux, "PUT /api/months/{month}/items/{id}/date", s.handleSetDate)

	return s
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.tracer.Wrap(pattern, s.withSecurityHeaders(h)))
}

// withSecurityHeaders adds security headers and rate limits writes.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientIP := extractClientIP(r)

		if isSuspicious(r) {
			applog.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		setSecurityHeaders(w.Header())

		if r.Method != http.MethodGet && r.Method != http.MethodHead && !s.rateLimiter.allow(clientIP, time.Now()) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:     "rate limit exceeded",
				RequestID: trace.GetRequestID(ctx),
			})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next(w, r)
	}
}

// Shutdown drains the HTTP server and stops background routines. Pending
// amount writes belong to the month service and are flushed by its owner.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
		s.logger.InfoContext(ctx, "HTTP server stopped",
			applog.FieldOperation, applog.OpShutdown,
			"requests_served", s.tracer.TotalRequests())
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks the store and reports session cache and write queue
// state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]any)

	switch {
	case s.ready == nil:
		checks["store"] = "not_configured"
	default:
		if err := s.ready(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status = "not_ready"
			code = http.StatusServiceUnavailable
			s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		} else {
			checks["store"] = "ok"
		}
	}

	if s.months != nil {
		checks["sessions"] = map[string]any{
			"cached":         s.months.Sessions().Size(),
			"pending_writes": s.months.PendingWrites(),
		}
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"rejected":       s.rateLimiter.Hits(),
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
