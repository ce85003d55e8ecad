package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/MikeSquared-Agency/winnow/internal/config"
	"github.com/MikeSquared-Agency/winnow/internal/pipeline"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		ProgressEvery: 1000,
		ChunkSize:     100,
		StateFile:     filepath.Join(dir, "state.json"),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := pipeline.NewRunner(cfg, nil, nil, nil, logger)
	return NewServer(8750, cfg.StateFile, runner, nil), dir
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
	if body["service"] != "winnow" {
		t.Errorf("expected service winnow, got %q", body["service"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	// Seed the run history with one finished run.
	state, err := pipeline.LoadState(srv.stateFile)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	state.MarkRun(pipeline.Report{
		RunID:    uuid.New(),
		Op:       "normalize",
		Input:    "in.json",
		Output:   "out.json",
		Counters: pipeline.Counters{Total: 2, Kept: 2},
		Started:  time.Now().UTC(),
		Finished: time.Now().UTC(),
	})
	if err := state.Save(); err != nil {
		t.Fatalf("save state: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/winnow/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body statusResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Service != "winnow" {
		t.Errorf("expected service winnow, got %q", body.Service)
	}
	if len(body.RecentRuns) != 1 || body.RecentRuns[0].Op != "normalize" {
		t.Errorf("unexpected recent runs: %+v", body.RecentRuns)
	}
}

func TestStatusEndpointEmptyHistory(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/v1/winnow/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"recent_runs":[]`) {
		t.Errorf("expected empty recent_runs array, got %s", w.Body.String())
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	srv, dir := testServer(t)

	in := filepath.Join(dir, "in.json")
	corpus := `[{"system":"s","tools":[],"conversations":[{"from":"human","value":"hi"},{"from":"gpt","value":"hello"}]}]`
	if err := os.WriteFile(in, []byte(corpus), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	out := filepath.Join(dir, "out.json")

	body := `{"input":"` + in + `","output":"` + out + `"}`
	req := httptest.NewRequest("POST", "/api/v1/winnow/normalize", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var rep pipeline.Report
	if err := json.NewDecoder(w.Body).Decode(&rep); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if rep.Kept != 1 || rep.Op != "normalize" {
		t.Errorf("unexpected report: %+v", rep)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestNormalizeEndpointBadRequest(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing input", `{"output":"out.json"}`},
		{"missing output", `{"input":"in.json"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/winnow/normalize", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestNormalizeEndpointMissingInput(t *testing.T) {
	srv, dir := testServer(t)

	body := `{"input":"` + filepath.Join(dir, "nope.json") + `","output":"` + filepath.Join(dir, "out.json") + `"}`
	req := httptest.NewRequest("POST", "/api/v1/winnow/normalize", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
