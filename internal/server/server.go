// Package server exposes the generation pipeline over HTTP: batch
// generation, XML and zip export, health, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rotativa/internal/article"
	"rotativa/internal/export"
	"rotativa/internal/generate"
	"rotativa/internal/logging"
	"rotativa/internal/metrics"
	"rotativa/internal/services"
)

// Runner executes one generation batch.
type Runner interface {
	Run(ctx context.Context, req generate.Request) ([]article.Article, error)
}

// HealthChecker verifies the model provider is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server serves the batch API.
type Server struct {
	bind      string
	logger    *slog.Logger
	runner    Runner
	formatter *export.Formatter
	health    HealthChecker
	metrics   *metrics.Metrics

	listener net.Listener
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHealthChecker attaches the model provider health probe.
func WithHealthChecker(h HealthChecker) Option {
	return func(s *Server) {
		s.health = h
	}
}

// WithMetrics attaches batch metrics and enables the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New builds a Server bound to the given address.
func New(bind string, runner Runner, formatter *export.Formatter, opts ...Option) *Server {
	s := &Server{
		bind:      bind,
		logger:    logging.NewNop(),
		runner:    runner,
		formatter: formatter,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.formatter == nil {
		s.formatter = export.NewFormatter()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/articles", s.handleArticles)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/export/zip", s.handleExportZip)
	mux.HandleFunc("/api/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

type articlePayload struct {
	Title         string `json:"titulo"`
	Subtitle      string `json:"subtitulo"`
	Body          string `json:"articulo"`
	ModelSubtitle string `json:"subtitulo_modelo,omitempty"`
}

type batchResponse struct {
	Articles []articlePayload `json:"articulos"`
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeBatchRequest(w, r)
	if !ok {
		return
	}
	articles, err := s.runner.Run(r.Context(), req)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	payload := batchResponse{Articles: make([]articlePayload, 0, len(articles))}
	for _, art := range articles {
		payload.Articles = append(payload.Articles, articlePayload{
			Title:         export.SynthesizeTitle(art.Title, req.Query, req.Keyword),
			Subtitle:      art.Subtitle,
			Body:          art.Body,
			ModelSubtitle: art.ModelSubtitle,
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeBatchRequest(w, r)
	if !ok {
		return
	}
	batch, err := s.runBatch(r.Context(), req)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	payload, err := s.formatter.XML(batch)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+export.XMLFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) handleExportZip(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeBatchRequest(w, r)
	if !ok {
		return
	}
	batch, err := s.runBatch(r.Context(), req)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	payload, err := s.formatter.Zip(batch)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=rotativa_export.zip")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload := map[string]any{"status": "ok", "service": "rotativa"}
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()
		if err := s.health.HealthCheck(ctx); err != nil {
			payload["status"] = "degraded"
			payload["llm"] = err.Error()
			s.writeJSON(w, http.StatusServiceUnavailable, payload)
			return
		}
		payload["llm"] = "ok"
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) decodeBatchRequest(w http.ResponseWriter, r *http.Request) (generate.Request, bool) {
	var req generate.Request
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	return req, true
}

func (s *Server) runBatch(ctx context.Context, req generate.Request) (export.Batch, error) {
	articles, err := s.runner.Run(ctx, req)
	if err != nil {
		return export.Batch{}, err
	}
	return export.Batch{
		Query:    req.Query,
		Keyword:  req.Keyword,
		Articles: articles,
	}, nil
}

// writeRunError maps the error taxonomy onto HTTP statuses: caller
// mistakes are 400, upstream outages are 502, the rest are 500.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case services.IsUpstream(err):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
