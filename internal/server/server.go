// Package server exposes the engine entry points as MCP tools over HTTP.
//
// Each POST body is a protocol.CallToolRequest. The tool's response envelope
// is returned as JSON text content; a non-zero envelope code also sets
// isError on the result. Prometheus metrics are served on /metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	maxBodyBytes      = 1 << 20
)

// Tools is the set of entry points served. *engine.Service implements it.
type Tools interface {
	CalculateMenuItemCarbon(ctx context.Context, req *carbon.FootprintRequest) engine.Response[*engine.Data]
	RecalculateMenuItems(ctx context.Context, restaurantID string, ids []string) engine.Response[*carbon.BatchSummary]
	GetCarbonFactors(ctx context.Context, items []factor.LookupItem, region string) engine.Response[[]factor.LookupRecord]
}

// Server is the HTTP tool endpoint.
type Server struct {
	tools      Tools
	handlers   map[string]toolHandler
	gatherer   prometheus.Gatherer
	httpServer *http.Server
}

// New creates a Server listening on addr. A nil gatherer serves the default
// prometheus registry.
func New(tools Tools, addr string, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{tools: tools, gatherer: gatherer}
	s.registerTools()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHTTP)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	log := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("component", "server").Str("addr", s.httpServer.Addr).Msg("tool server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Str("component", "server").Msg("shutting down tool server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := logging.ContextWithTraceID(r.Context(), logging.NewTraceID())
	log := logging.FromContext(ctx)

	var request protocol.CallToolRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	handler, ok := s.handlers[request.Name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	start := time.Now()
	result, err := handler(ctx, &request)
	if err != nil {
		log.Error().Ctx(ctx).Str("component", "server").Str("tool", request.Name).Err(err).Msg("tool call failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Debug().
		Ctx(ctx).
		Str("component", "server").
		Str("tool", request.Name).
		Bool("is_error", result.IsError).
		Dur("duration", time.Since(start)).
		Msg("tool call served")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Warn().Ctx(ctx).Str("component", "server").Err(err).Msg("failed to encode response")
	}
}
