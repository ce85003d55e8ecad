package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/winnow/internal/sharegpt"
)

// FileCount is one merge input's contribution to the output.
type FileCount struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
}

// Merge concatenates corpora in argument order into one output array. A
// missing or unreadable input is skipped with a warning; only a failed
// output write is fatal. With dedupe set, fingerprint duplicates across
// inputs are dropped.
func (r *Runner) Merge(ctx context.Context, out string, inputs []string, dedupe bool) (Report, []FileCount, error) {
	started := time.Now().UTC()

	var counters Counters
	dedup := NewDeduper()
	var merged []sharegpt.Record
	var files []FileCount

	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return Report{}, files, ctx.Err()
		default:
		}

		recs, skipped, err := sharegpt.ReadAny(in)
		if err != nil {
			r.logger.Warn("skipping unreadable input", "path", in, "error", err)
			continue
		}
		if skipped > 0 {
			r.logger.Warn("skipped unparseable lines", "path", in, "lines", skipped)
		}

		count := 0
		for _, rec := range recs {
			counters.Total++
			if dedupe && dedup.Seen(sharegpt.Fingerprint(rec)) {
				counters.Duplicate++
				continue
			}
			merged = append(merged, rec)
			counters.Kept++
			count++
		}
		files = append(files, FileCount{Path: in, Records: count})
		r.logger.Info("merged input", "path", in, "records", count)
	}

	if err := sharegpt.WriteFile(out, merged); err != nil {
		return Report{}, files, fmt.Errorf("write output: %w", err)
	}

	in := strings.Join(inputs, ",")
	return r.finishRun(ctx, "merge", in, out, counters, started, false), files, nil
}

// Split chunks one corpus into files of at most size records, named
// <stem>_part_N.json starting at 1, in outDir (the input's directory when
// empty). Returns the chunk paths in order; an empty corpus yields none.
func (r *Runner) Split(ctx context.Context, in, outDir string, size int) ([]string, Report, error) {
	started := time.Now().UTC()

	if size <= 0 {
		size = r.cfg.ChunkSize
	}
	if size <= 0 {
		return nil, Report{}, fmt.Errorf("chunk size must be positive, got %d", size)
	}

	recs, skipped, err := sharegpt.ReadAny(in)
	if err != nil {
		return nil, Report{}, fmt.Errorf("read input: %w", err)
	}
	if skipped > 0 {
		r.logger.Warn("skipped unparseable lines", "path", in, "lines", skipped)
	}

	stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	if outDir == "" {
		outDir = filepath.Dir(in)
	}

	var counters Counters
	var paths []string
	for start, n := 0, 1; start < len(recs); start, n = start+size, n+1 {
		select {
		case <-ctx.Done():
			return paths, Report{}, ctx.Err()
		default:
		}

		end := min(start+size, len(recs))
		path := filepath.Join(outDir, fmt.Sprintf("%s_part_%d.json", stem, n))
		if err := sharegpt.WriteFile(path, recs[start:end]); err != nil {
			return paths, Report{}, fmt.Errorf("write chunk %d: %w", n, err)
		}
		paths = append(paths, path)
		r.logger.Info("wrote chunk", "path", path, "records", end-start)
	}
	counters.Total = len(recs)
	counters.Kept = len(recs)

	rep := r.finishRun(ctx, "split", in, outDir, counters, started, false)
	return paths, rep, nil
}

// Stats summarizes a corpus without writing anything; the caller renders
// the result. Stats runs are not recorded in the state history.
func (r *Runner) Stats(ctx context.Context, in string) (sharegpt.Stats, error) {
	select {
	case <-ctx.Done():
		return sharegpt.Stats{}, ctx.Err()
	default:
	}

	recs, skipped, err := sharegpt.ReadAny(in)
	if err != nil {
		return sharegpt.Stats{}, fmt.Errorf("read input: %w", err)
	}
	if skipped > 0 {
		r.logger.Warn("skipped unparseable lines", "path", in, "lines", skipped)
	}
	return sharegpt.Summarize(recs), nil
}
