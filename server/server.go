// Package server exposes the model cache and node executor over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ollamanodes/cache"
	"ollamanodes/config"
	"ollamanodes/nodes"
)

// Pinger checks that a daemon answers. model.Gateway satisfies it.
type Pinger interface {
	Ping(ctx context.Context, endpoint string) error
}

type Options struct {
	Cache    *cache.ModelCache
	Pinger   Pinger
	Executor *nodes.Executor
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// DefaultEndpoint answers requests that do not name one.
	DefaultEndpoint string
}

type Server struct {
	cache           *cache.ModelCache
	pinger          Pinger
	executor        *nodes.Executor
	defaultEndpoint string
}

// NewHandler builds the route tree.
func NewHandler(opts Options) http.Handler {
	s := &Server{
		cache:           opts.Cache,
		pinger:          opts.Pinger,
		executor:        opts.Executor,
		defaultEndpoint: opts.DefaultEndpoint,
	}
	if s.defaultEndpoint == "" {
		s.defaultEndpoint = config.DefaultEndpoint
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)
	r.Route("/ollama", func(r chi.Router) {
		r.Get("/models", s.Models)
		r.Get("/cache", s.Cache)
		if s.executor != nil {
			r.Get("/nodes", s.Nodes)
			r.Post("/nodes/{name}", s.RunNode)
		}
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	return r
}

func (s *Server) endpoint(r *http.Request) string {
	if e := strings.TrimSpace(r.URL.Query().Get("endpoint")); e != "" {
		return e
	}
	return s.defaultEndpoint
}

// Models handles GET /ollama/models. It refreshes the cache for the endpoint
// so a UI can repopulate its dropdowns without talking to the daemon itself.
func (s *Server) Models(w http.ResponseWriter, r *http.Request) {
	endpoint := s.endpoint(r)
	ctx := config.WithRequestID(r.Context(), config.NewRequestID("api"))
	config.Infof(ctx, "🌐 API request to fetch models from %s", endpoint)

	models, err := s.cache.Refresh(ctx, endpoint)
	if err != nil {
		config.Infof(ctx, "❌ API error fetching models: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, modelsResponse{
		Success:  true,
		Models:   models,
		Count:    len(models),
		Endpoint: endpoint,
	})
}

// Cache handles GET /ollama/cache. It never contacts the daemon.
func (s *Server) Cache(w http.ResponseWriter, r *http.Request) {
	endpoint := s.endpoint(r)
	models := s.cache.Get(endpoint)
	writeJSON(w, http.StatusOK, modelsResponse{
		Success:  true,
		Models:   models,
		Count:    len(models),
		Endpoint: endpoint,
		Cached:   s.cache.Has(endpoint),
	})
}

// Health handles GET /healthz by pinging the endpoint.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	endpoint := s.endpoint(r)
	if s.pinger == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Endpoint: endpoint})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.pinger.Ping(ctx, endpoint); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "unavailable",
			Endpoint: endpoint,
			Error:    err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Endpoint: endpoint})
}

// Nodes handles GET /ollama/nodes.
func (s *Server) Nodes(w http.ResponseWriter, r *http.Request) {
	specs := s.executor.Registry().Specs()
	views := make([]nodeView, 0, len(specs))
	for _, spec := range specs {
		views = append(views, newNodeView(spec))
	}
	writeJSON(w, http.StatusOK, views)
}

// RunNode handles POST /ollama/nodes/{name}.
func (s *Server) RunNode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body runRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	if _, err := s.executor.Registry().Get(name); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	res, err := s.executor.Execute(r.Context(), nodes.Request{
		NodeID: body.NodeID,
		Node:   name,
		Inputs: body.Inputs,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) {
			status = http.StatusRequestTimeout
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Success: true,
		Outputs: res.Outputs,
		Text:    res.Text,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		config.Debugf(context.Background(), "response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	config.Infof(ctx, "🌐 Listening on %s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
