package slack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPostRunSummary_Success(t *testing.T) {
	var posted string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json; charset=utf-8" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}

		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		json.Unmarshal(body, &payload)
		posted = payload["text"]

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	p := NewPoster(server.URL, discardLogger())
	text := "winnow normalize: kept 8/10 (1 dupes, 1 invalid, 0 dropped) in.json -> out.json in 1.5s"
	if err := p.PostRunSummary(context.Background(), text); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(posted, "winnow normalize") {
		t.Errorf("expected summary text, got %q", posted)
	}
}

func TestPostRunSummary_EmptyURLIsNoOp(t *testing.T) {
	p := NewPoster("", discardLogger())
	if err := p.PostRunSummary(context.Background(), "summary"); err != nil {
		t.Errorf("expected no-op, got %v", err)
	}

	var nilPoster *Poster
	if err := nilPoster.PostRunSummary(context.Background(), "summary"); err != nil {
		t.Errorf("expected nil poster no-op, got %v", err)
	}
}

func TestPostRunSummary_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewPoster(server.URL, discardLogger())
	if err := p.PostRunSummary(context.Background(), "summary"); err == nil {
		t.Fatal("expected error for server failure")
	}
}
