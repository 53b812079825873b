// Package httpapi exposes the service over HTTP: customer CRUD, the demo
// session endpoints, the service banner, health probes, and the Prometheus
// scrape endpoint. Handlers translate between JSON and the domain services;
// no business rules live here.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxfront/voxfront/internal/config"
	"github.com/voxfront/voxfront/internal/customer"
	"github.com/voxfront/voxfront/internal/health"
	"github.com/voxfront/voxfront/internal/observe"
	"github.com/voxfront/voxfront/internal/session"
)

// Version is reported in the root banner.
const Version = "1.0.0"

const shutdownTimeout = 10 * time.Second

// Server wires the HTTP surface onto the domain services.
type Server struct {
	cfg       *config.Config
	customers *customer.Store
	sessions  *session.Service
	metrics   *observe.Metrics
}

// New creates a Server. metrics may be nil to disable the request metrics
// middleware (probes and /metrics itself stay available).
func New(cfg *config.Config, customers *customer.Store, sessions *session.Service, metrics *observe.Metrics) *Server {
	return &Server{
		cfg:       cfg,
		customers: customers,
		sessions:  sessions,
		metrics:   metrics,
	}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("GET /api/customers", s.handleListCustomers)
	mux.HandleFunc("POST /api/customers", s.handleCreateCustomer)
	mux.HandleFunc("GET /api/customers/{id}", s.handleGetCustomer)
	mux.HandleFunc("PATCH /api/customers/{id}", s.handleUpdateCustomer)
	mux.HandleFunc("DELETE /api/customers/{id}", s.handleDeleteCustomer)

	mux.HandleFunc("GET /api/demo/config", s.handleConfigStatus)
	mux.HandleFunc("POST /api/demo/session", s.handleCreateSession)
	mux.HandleFunc("GET /api/demo/session/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/demo/session/{id}/end", s.handleEndSession)
	mux.HandleFunc("GET /api/demo/sessions", s.handleListSessions)

	probes := health.New(
		health.Checker{Name: "room", Check: s.checkRoom},
		health.Checker{Name: "realtime", Check: s.checkRealtime},
	)
	probes.Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	if s.metrics != nil {
		h = observe.Middleware(s.metrics)(h)
	}
	return cors(h)
}

// cors allows any origin so the browser demo frontend can call the API from
// a different host or port. Preflight requests are answered here and never
// reach the route table.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) checkRoom(context.Context) error {
	if !s.cfg.RoomConfigured() {
		return errors.New("room service credentials not configured")
	}
	return nil
}

func (s *Server) checkRealtime(context.Context) error {
	if !s.cfg.RealtimeConfigured() {
		return errors.New("realtime API key not configured")
	}
	return nil
}

// handleRoot serves the service banner: name, version, config status, and a
// map of the main endpoints.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Voxfront Voice Agent API",
		"version": Version,
		"status":  "running",
		"config":  s.cfg.Status(),
		"endpoints": map[string]string{
			"health":         "/health",
			"metrics":        "/metrics",
			"config":         "/api/demo/config",
			"create_session": "POST /api/demo/session",
			"customers":      "/api/customers",
		},
	})
}
