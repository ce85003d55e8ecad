package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/MikeSquared-Agency/winnow/internal/pipeline"
	"github.com/MikeSquared-Agency/winnow/internal/store"
)

type Server struct {
	router    *chi.Mux
	http      *http.Server
	runner    *pipeline.Runner
	store     *store.Store // optional
	stateFile string
}

func NewServer(port int, stateFile string, runner *pipeline.Runner, db *store.Store) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		http:      &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: router},
		runner:    runner,
		store:     db,
		stateFile: stateFile,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/winnow/status", s.status)
	router.Post("/api/v1/winnow/normalize", s.normalize)

	return s
}

func (s *Server) Start() error {
	slog.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "winnow"})
}

type statusResponse struct {
	Service    string            `json:"service"`
	StateFile  string            `json:"state_file"`
	RecentRuns []pipeline.Report `json:"recent_runs"`
	StoredRuns []pipeline.Report `json:"stored_runs,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	state, err := pipeline.LoadState(s.stateFile)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"load state: %v"}`, err), http.StatusInternalServerError)
		return
	}

	limit := 10
	if n := r.URL.Query().Get("n"); n != "" {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			limit = v
		}
	}

	resp := statusResponse{
		Service:    "winnow",
		StateFile:  state.Path(),
		RecentRuns: state.Runs,
	}
	if len(resp.RecentRuns) > limit {
		resp.RecentRuns = resp.RecentRuns[:limit]
	}
	if resp.RecentRuns == nil {
		resp.RecentRuns = []pipeline.Report{}
	}

	// The database view is best-effort; the state file alone answers the
	// request.
	if s.store != nil {
		stored, err := s.store.RecentRuns(r.Context(), limit)
		if err != nil {
			slog.Warn("recent runs query failed", "error", err)
		} else {
			resp.StoredRuns = stored
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

type normalizeRequest struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Lenient bool   `json:"lenient"`
}

// normalize runs the cleaning chain synchronously and returns the report.
func (s *Server) normalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}
	if req.Input == "" || req.Output == "" {
		http.Error(w, `{"error":"input and output are required"}`, http.StatusBadRequest)
		return
	}

	rep, err := s.runner.Normalize(r.Context(), req.Input, req.Output, pipeline.NormalizeOptions{Lenient: req.Lenient})
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"normalize failed: %v"}`, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}
