// Package server exposes the verification engine over HTTP for the serve
// command: analyze, stored-run lookups, health, and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/okarpov/claimlens/internal/model"
	"github.com/okarpov/claimlens/internal/pipeline"
	"github.com/okarpov/claimlens/internal/store"
)

// Server wraps the engine with an HTTP surface
type Server struct {
	engine *pipeline.Engine
	log    *zap.Logger
	http   *http.Server
}

// New creates a server listening on addr. The Prometheus gatherer backs the
// /metrics endpoint; pass the registry the stats collector was built with.
func New(addr string, engine *pipeline.Engine, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{engine: engine, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/analyses/{runID}/claims", s.handleClaims)
	r.Get("/analyses/{runID}/verified-text", s.handleVerifiedText)
	r.Get("/claims/{claimID}/evidence", s.handleEvidence)
	r.Get("/stats/providers", s.handleProviderStats)
	r.Get("/healthz", s.handleHealth)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until the listener fails or the
// server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type analyzeRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	run, err := s.engine.Analyze(r.Context(), req.Text, req.UserID)
	if err != nil {
		var short *pipeline.ErrInputTooShort
		if errors.As(err, &short) {
			writeError(w, http.StatusUnprocessableEntity, short.Error())
			return
		}
		s.log.Error("analyze failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.engine.Claims(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.ClaimResult{"claims": claims})
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	evidence, checks, err := s.engine.Evidence(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"evidence":  evidence,
		"citations": checks,
	})
}

func (s *Server) handleVerifiedText(w http.ResponseWriter, r *http.Request) {
	text, removed, err := s.engine.VerifiedText(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	if removed == nil {
		removed = []model.Claim{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verified_text":  text,
		"removed_claims": removed,
	})
}

func (s *Server) handleProviderStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]model.ProviderStats{"providers": s.engine.Stats()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "lookup failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
