package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/storeload/storeload/pkg/metrics"
)

// StatusServer exposes a running test over HTTP: a JSON snapshot at
// /status, Prometheus metrics at /metrics, and a liveness probe at
// /healthz.
type StatusServer struct {
	agg  *metrics.Aggregator
	log  *zap.Logger
	srv  *http.Server
	addr string
}

// NewStatusServer builds the server for the given port. The aggregator is
// registered as a Prometheus collector on a private registry so the handler
// exports only run metrics.
func NewStatusServer(port int, agg *metrics.Aggregator, logger *zap.Logger) (*StatusServer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	if err := registry.Register(agg); err != nil {
		return nil, fmt.Errorf("register run collector: %w", err)
	}

	s := &StatusServer{
		agg:  agg,
		log:  logger,
		addr: fmt.Sprintf(":%d", port),
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler, for serving on an external listener.
func (s *StatusServer) Handler() http.Handler { return s.srv.Handler }

// Start begins serving and returns once the listener is bound.
func (s *StatusServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.log.Info("status server listening", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("status server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the server, waiting for in-flight requests up to the ctx
// deadline.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	stats := s.agg.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.log.Warn("encode status snapshot", zap.Error(err))
	}
}

func (s *StatusServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}
