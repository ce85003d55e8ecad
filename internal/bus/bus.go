// Package bus carries run traffic over NATS: finished-run reports out,
// run requests in.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/MikeSquared-Agency/winnow/internal/pipeline"
)

// SubjectRunCompleted carries finished-run reports as JSON.
const SubjectRunCompleted = "winnow.run.completed"

// SubjectRunRequest carries requests to start a cleaning run.
const SubjectRunRequest = "winnow.run.request"

// RunRequest asks the service to run one operation over a corpus.
type RunRequest struct {
	Op     string `json:"op"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Validate checks that the request names a runnable op and both paths.
func (r RunRequest) Validate() error {
	switch r.Op {
	case "normalize", "hermes", "strip":
	default:
		return fmt.Errorf("unknown op %q", r.Op)
	}
	if r.Input == "" {
		return fmt.Errorf("missing input path")
	}
	if r.Output == "" {
		return fmt.Errorf("missing output path")
	}
	return nil
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func Connect(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("winnow"),
		nats.Timeout(5 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

// PublishReport broadcasts a finished run.
func (c *Client) PublishReport(rep pipeline.Report) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return c.conn.Publish(SubjectRunCompleted, payload)
}

// SubscribeRunRequests hands validated run requests to handler. Malformed
// or incomplete payloads are logged and dropped.
func (c *Client) SubscribeRunRequests(handler func(RunRequest)) error {
	sub, err := c.conn.Subscribe(SubjectRunRequest, func(msg *nats.Msg) {
		var req RunRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.logger.Warn("bad run request payload", "error", err)
			return
		}
		if err := req.Validate(); err != nil {
			c.logger.Warn("run request rejected", "error", err)
			return
		}
		handler(req)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectRunRequest, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", SubjectRunRequest)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}
