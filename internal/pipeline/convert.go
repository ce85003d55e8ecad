package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/winnow/internal/sharegpt"
	"github.com/MikeSquared-Agency/winnow/internal/toolcall"
)

// ConvertOptions control the hermes conversion.
type ConvertOptions struct {
	// Dedup drops fingerprint duplicates of the converted records. Off by
	// default: conversion is a re-encoding, not a cleaning pass.
	Dedup bool
}

// ConvertHermes rewrites a corpus into tagged dialogue form: function_call
// turns become gpt turns carrying <tool_call> spans, observation turns
// become human turns. A record with any unconvertible call payload is
// dropped whole.
func (r *Runner) ConvertHermes(ctx context.Context, in, out string, opts ConvertOptions) (Report, error) {
	started := time.Now().UTC()

	recs, skipped, err := sharegpt.ReadAny(in)
	if err != nil {
		return Report{}, fmt.Errorf("read input: %w", err)
	}
	if skipped > 0 {
		r.logger.Warn("skipped unparseable lines", "path", in, "lines", skipped)
	}

	var counters Counters
	dedup := NewDeduper()
	kept := make([]sharegpt.Record, 0, len(recs))

	for i, rec := range recs {
		select {
		case <-ctx.Done():
			return Report{}, ctx.Err()
		default:
		}
		counters.Total++
		r.progress("hermes", counters)

		converted, err := toolcall.ConvertRecord(rec)
		if err != nil {
			counters.Dropped++
			r.logger.Warn("record dropped", "record", i, "error", err)
			continue
		}

		if opts.Dedup && dedup.Seen(sharegpt.Fingerprint(converted)) {
			counters.Duplicate++
			continue
		}

		kept = append(kept, converted)
		counters.Kept++
	}

	if err := sharegpt.WriteFile(out, kept); err != nil {
		return Report{}, fmt.Errorf("write output: %w", err)
	}

	return r.finishRun(ctx, "hermes", in, out, counters, started, false), nil
}

// StripReasoning removes reasoning spans from a corpus already in tagged
// form: model turns that only think are dropped, announcements are injected
// in front of unannounced calls, and leftover markers are removed. Records
// with no surviving turns are dropped.
func (r *Runner) StripReasoning(ctx context.Context, in, out string) (Report, error) {
	started := time.Now().UTC()

	recs, skipped, err := sharegpt.ReadAny(in)
	if err != nil {
		return Report{}, fmt.Errorf("read input: %w", err)
	}
	if skipped > 0 {
		r.logger.Warn("skipped unparseable lines", "path", in, "lines", skipped)
	}

	var counters Counters
	kept := make([]sharegpt.Record, 0, len(recs))

	for i, rec := range recs {
		select {
		case <-ctx.Done():
			return Report{}, ctx.Err()
		default:
		}
		counters.Total++
		r.progress("strip", counters)

		filtered, ok := toolcall.FilterRecord(rec)
		if !ok {
			counters.Dropped++
			r.logger.Debug("record dropped, no surviving turns", "record", i)
			continue
		}

		kept = append(kept, filtered)
		counters.Kept++
	}

	if err := sharegpt.WriteFile(out, kept); err != nil {
		return Report{}, fmt.Errorf("write output: %w", err)
	}

	return r.finishRun(ctx, "strip", in, out, counters, started, false), nil
}
