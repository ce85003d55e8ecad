package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MikeSquared-Agency/winnow/internal/sharegpt"
	"github.com/MikeSquared-Agency/winnow/internal/toolcall"
)

// NormalizeOptions control the normalize operation.
type NormalizeOptions struct {
	// Lenient downgrades schema violations to warnings and keeps the
	// record.
	Lenient bool
	// KeepDupes skips fingerprint deduplication.
	KeepDupes bool
}

// Normalize runs the full cleaning chain over one corpus: repair
// function_call payloads, drop records still carrying tool-call residue,
// clean whitespace and field types, validate, and deduplicate. Survivors
// are written to out as a pretty-printed array.
func (r *Runner) Normalize(ctx context.Context, in, out string, opts NormalizeOptions) (Report, error) {
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
	fixNotes := make(map[string]int)
	kept := make([]sharegpt.Record, 0, len(recs))

	for i, rec := range recs {
		select {
		case <-ctx.Done():
			return Report{}, ctx.Err()
		default:
		}
		counters.Total++
		r.progress("normalize", counters)

		fixed, outcomes := toolcall.NormalizeRecord(rec)
		for _, oc := range outcomes {
			if !oc.Parsed {
				counters.Warned++
				r.logger.Warn("unparseable call payload left untouched",
					"record", i, "turn", oc.Turn)
				continue
			}
			fixNotes[oc.Outcome.Note]++
			if oc.Outcome.Kind != toolcall.FixNone {
				counters.Repaired++
			}
			if oc.Outcome.DataLoss {
				r.logger.Warn("arguments discarded during repair",
					"record", i, "turn", oc.Turn, "note", oc.Outcome.Note)
			}
		}

		if toolcall.TaintedRecord(fixed) {
			counters.Dropped++
			r.logger.Debug("record dropped as tainted", "record", i)
			continue
		}

		cleaned, _ := sharegpt.Clean(fixed)

		if err := sharegpt.Validate(cleaned); err != nil {
			if !opts.Lenient {
				counters.Invalid++
				r.logger.Debug("record rejected", "record", i, "error", err)
				continue
			}
			for _, w := range sharegpt.Inspect(cleaned) {
				r.logger.Warn("schema warning", "record", i, "warning", w)
			}
		}

		if !opts.KeepDupes && dedup.Seen(sharegpt.Fingerprint(cleaned)) {
			counters.Duplicate++
			continue
		}

		kept = append(kept, cleaned)
		counters.Kept++
	}

	if err := sharegpt.WriteFile(out, kept); err != nil {
		return Report{}, fmt.Errorf("write output: %w", err)
	}

	rep := r.finishRun(ctx, "normalize", in, out, counters, started, true)
	printFixNotes(fixNotes)
	return rep, nil
}

// printFixNotes renders the per-note repair tallies under the summary.
func printFixNotes(notes map[string]int) {
	if len(notes) == 0 {
		return
	}
	keys := make([]string, 0, len(notes))
	for note := range notes {
		keys = append(keys, note)
	}
	sort.Strings(keys)

	fmt.Println("Fix notes:")
	for _, note := range keys {
		fmt.Printf("  %-24s %d\n", note+":", notes[note])
	}
}
