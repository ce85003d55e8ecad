package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/winnow/internal/api"
	"github.com/MikeSquared-Agency/winnow/internal/bus"
	"github.com/MikeSquared-Agency/winnow/internal/config"
	"github.com/MikeSquared-Agency/winnow/internal/pipeline"
	"github.com/MikeSquared-Agency/winnow/internal/slack"
	"github.com/MikeSquared-Agency/winnow/internal/store"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if len(args) == 0 {
		usage()
		return 2
	}

	cmd, rest := args[0], args[1:]
	ctx := context.Background()

	switch cmd {
	case "-h", "--help", "help":
		usage()
		return 0
	case "normalize":
		return cmdNormalize(ctx, cfg, rest)
	case "hermes":
		return cmdHermes(ctx, cfg, rest)
	case "strip":
		return cmdStrip(ctx, cfg, rest)
	case "merge":
		return cmdMerge(ctx, cfg, rest)
	case "split":
		return cmdSplit(ctx, cfg, rest)
	case "stats":
		return cmdStats(ctx, cfg, rest)
	case "status":
		return cmdStatus(cfg, rest)
	case "serve":
		return cmdServe(cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n\n", cmd)
		usage()
		return 2
	}
}

// newBatchRunner wires a runner for one-shot CLI operations. Slack is the
// only side channel: the poster is a no-op without a webhook URL, and
// database/bus connections are for serve mode.
func newBatchRunner(cfg config.Config) *pipeline.Runner {
	poster := slack.NewPoster(cfg.SlackWebhook, slog.Default())
	return pipeline.NewRunner(cfg, nil, nil, poster, slog.Default())
}

func cmdNormalize(ctx context.Context, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	in := fs.String("in", "", "input corpus (JSON array or JSONL)")
	out := fs.String("out", "", "output path")
	lenient := fs.Bool("lenient", false, "warn on schema violations instead of dropping the record")
	keepDupes := fs.Bool("keep-dupes", false, "skip fingerprint deduplication")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "normalize: -in and -out are required")
		return 2
	}

	opts := pipeline.NormalizeOptions{Lenient: *lenient, KeepDupes: *keepDupes}
	if _, err := newBatchRunner(cfg).Normalize(ctx, *in, *out, opts); err != nil {
		fmt.Fprintln(os.Stderr, "normalize:", err)
		return 1
	}
	return 0
}

func cmdHermes(ctx context.Context, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("hermes", flag.ExitOnError)
	in := fs.String("in", "", "input corpus")
	out := fs.String("out", "", "output path")
	dedup := fs.Bool("dedup", false, "drop fingerprint duplicates of converted records")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "hermes: -in and -out are required")
		return 2
	}

	if _, err := newBatchRunner(cfg).ConvertHermes(ctx, *in, *out, pipeline.ConvertOptions{Dedup: *dedup}); err != nil {
		fmt.Fprintln(os.Stderr, "hermes:", err)
		return 1
	}
	return 0
}

func cmdStrip(ctx context.Context, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("strip", flag.ExitOnError)
	in := fs.String("in", "", "input corpus")
	out := fs.String("out", "", "output path")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "strip: -in and -out are required")
		return 2
	}

	if _, err := newBatchRunner(cfg).StripReasoning(ctx, *in, *out); err != nil {
		fmt.Fprintln(os.Stderr, "strip:", err)
		return 1
	}
	return 0
}

func cmdMerge(ctx context.Context, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	out := fs.String("out", "", "output path")
	dedup := fs.Bool("dedup", false, "drop fingerprint duplicates across inputs")
	fs.Parse(args)

	inputs := fs.Args()
	if *out == "" || len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "merge: -out and at least one input are required")
		return 2
	}

	if _, _, err := newBatchRunner(cfg).Merge(ctx, *out, inputs, *dedup); err != nil {
		fmt.Fprintln(os.Stderr, "merge:", err)
		return 1
	}
	return 0
}

func cmdSplit(ctx context.Context, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	in := fs.String("in", "", "input corpus")
	size := fs.Int("size", 0, "records per chunk (WINNOW_CHUNK_SIZE when 0)")
	outDir := fs.String("outdir", "", "chunk directory (input's directory when empty)")
	fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "split: -in is required")
		return 2
	}

	paths, _, err := newBatchRunner(cfg).Split(ctx, *in, *outDir, *size)
	if err != nil {
		fmt.Fprintln(os.Stderr, "split:", err)
		return 1
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return 0
}

func cmdStats(ctx context.Context, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	in := fs.String("in", "", "input corpus")
	fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "stats: -in is required")
		return 2
	}

	st, err := newBatchRunner(cfg).Stats(ctx, *in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stats:", err)
		return 1
	}
	fmt.Print(st.Format())
	return 0
}

func cmdStatus(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	n := fs.Int("n", 10, "number of runs to show")
	fs.Parse(args)

	state, err := pipeline.LoadState(cfg.StateFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "status:", err)
		return 1
	}

	runs := state.Runs
	if len(runs) > *n {
		runs = runs[:*n]
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return 0
	}

	fmt.Printf("Recent runs (%d):\n", len(runs))
	for _, rep := range runs {
		fmt.Printf("  %s  %s\n", rep.Finished.Format(time.RFC3339), rep.Oneline())
	}
	return 0
}

func cmdServe(cfg config.Config) int {
	slog.Info("winnow starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database (optional — runs are still tracked in the state file)
	var db *store.Store
	var sink pipeline.RunSink
	if cfg.DatabaseURL != "" {
		s, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			return 1
		}
		defer s.Close()
		db = s
		sink = s
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set — run history kept in state file only")
	}

	// NATS (optional)
	var busClient *bus.Client
	var publisher pipeline.Publisher
	if cfg.NatsURL != "" {
		c, err := bus.Connect(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			return 1
		}
		defer c.Close()
		busClient = c
		publisher = c
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set — bus run requests disabled")
	}

	poster := slack.NewPoster(cfg.SlackWebhook, slog.Default())
	runner := pipeline.NewRunner(cfg, sink, publisher, poster, slog.Default())

	if busClient != nil {
		err := busClient.SubscribeRunRequests(func(req bus.RunRequest) {
			var err error
			switch req.Op {
			case "normalize":
				_, err = runner.Normalize(ctx, req.Input, req.Output, pipeline.NormalizeOptions{})
			case "hermes":
				_, err = runner.ConvertHermes(ctx, req.Input, req.Output, pipeline.ConvertOptions{})
			case "strip":
				_, err = runner.StripReasoning(ctx, req.Input, req.Output)
			}
			if err != nil {
				slog.Error("bus run failed", "op", req.Op, "error", err)
			}
		})
		if err != nil {
			slog.Error("failed to subscribe to run requests", "error", err)
			return 1
		}
	}

	srv := api.NewServer(cfg.Port, cfg.StateFile, runner, db)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("winnow ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown failed", "error", err)
	}
	cancel()
	slog.Info("winnow stopped")
	return 0
}

func usage() {
	fmt.Fprint(os.Stderr, `winnow cleans ShareGPT-style tool-call corpora.

Usage: winnow <command> [flags]

Commands:
  normalize  repair, validate and deduplicate a corpus (-in, -out, -lenient, -keep-dupes)
  hermes     convert call turns to <tool_call>-tagged dialogue form (-in, -out, -dedup)
  strip      remove reasoning spans from model turns (-in, -out)
  merge      concatenate corpora (-out, -dedup, inputs...)
  split      chunk a corpus into fixed-size parts (-in, -size, -outdir)
  stats      summarize a corpus (-in)
  status     show recent runs (-n)
  serve      run the HTTP API and bus listener

Environment: WINNOW_PORT, WINNOW_STATE_FILE, WINNOW_CHUNK_SIZE,
WINNOW_PROGRESS_EVERY, DATABASE_URL, NATS_URL, NATS_TOKEN,
SLACK_WEBHOOK_URL, LOG_LEVEL
`)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// Logs go to stderr so batch summaries own stdout.
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
