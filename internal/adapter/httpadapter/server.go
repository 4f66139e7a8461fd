package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SpotCatalogue lists and resolves spot profiles.
type SpotCatalogue interface {
	Profiles() []domain.SpotProfile
	Lookup(spotID string) (domain.SpotProfile, bool)
	Resolve(spotID string) domain.SpotProfile
}

// ConditionsAggregator evaluates one (spot, bucket) on demand.
type ConditionsAggregator interface {
	Aggregate(ctx context.Context, req domain.AggregateRequest) (domain.AggregatedConditions, error)
}

// Server exposes health, readiness, metrics and the surf conditions API.
type Server struct {
	httpServer *http.Server
	spots      SpotCatalogue
	aggregator ConditionsAggregator
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /spots routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, spots SpotCatalogue, aggregator ConditionsAggregator, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		spots:      spots,
		aggregator: aggregator,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /spots", s.handleListSpots)
	mux.HandleFunc("GET /spots/{spotID}", s.handleGetSpot)
	mux.HandleFunc("POST /spots/{spotID}/conditions", s.handleConditions)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
