package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Poster sends run summaries to a Slack incoming webhook. A Poster with an
// empty URL is a no-op, so callers can wire it unconditionally.
type Poster struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewPoster(webhookURL string, logger *slog.Logger) *Poster {
	return &Poster{
		url:    webhookURL,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// PostRunSummary posts one line of text describing a finished run.
func (p *Poster) PostRunSummary(ctx context.Context, text string) error {
	if p == nil || p.url == "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook status %d", resp.StatusCode)
	}

	p.logger.Debug("posted run summary to slack")
	return nil
}
