// Package pipeline runs the corpus-cleaning operations: normalize,
// format conversion, reasoning removal, merge, split, and stats. Each
// operation reads a whole corpus, transforms it record by record with
// explicit counters, and writes the survivors in one pass.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Counters tallies one run's record dispositions. Dropped covers records
// the operation discarded outright (tainted residue, failed conversion, or
// no surviving turns, depending on the op); Invalid is schema rejections;
// Repaired and Warned count payload-level events and only apply to ops
// that repair.
type Counters struct {
	Total     int `json:"total"`
	Kept      int `json:"kept"`
	Dropped   int `json:"dropped"`
	Duplicate int `json:"duplicate"`
	Invalid   int `json:"invalid"`
	Repaired  int `json:"repaired"`
	Warned    int `json:"warned"`
}

// Add folds another tally into this one.
func (c *Counters) Add(o Counters) {
	c.Total += o.Total
	c.Kept += o.Kept
	c.Dropped += o.Dropped
	c.Duplicate += o.Duplicate
	c.Invalid += o.Invalid
	c.Repaired += o.Repaired
	c.Warned += o.Warned
}

// Summary renders the final tally block. Zero counts still print; the
// repair lines only mean something for ops that repair payloads, so
// withRepairs controls them.
func (c Counters) Summary(withRepairs bool) string {
	var sb strings.Builder
	sb.WriteString("=== Winnow Summary ===\n")
	fmt.Fprintf(&sb, "Total records:      %d\n", c.Total)
	fmt.Fprintf(&sb, "Kept:               %d\n", c.Kept)
	fmt.Fprintf(&sb, "Dropped (tainted):  %d\n", c.Dropped)
	fmt.Fprintf(&sb, "Duplicates:         %d\n", c.Duplicate)
	fmt.Fprintf(&sb, "Invalid:            %d\n", c.Invalid)
	if withRepairs {
		fmt.Fprintf(&sb, "Repaired payloads:  %d\n", c.Repaired)
		fmt.Fprintf(&sb, "Warned payloads:    %d\n", c.Warned)
	}
	return sb.String()
}

// Report describes one completed run. Counters is embedded so callers can
// reach the tallies directly off the report.
type Report struct {
	RunID    uuid.UUID `json:"run_id"`
	Op       string    `json:"op"`
	Input    string    `json:"input"`
	Output   string    `json:"output,omitempty"`
	Counters `json:"counters"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Duration is the wall-clock time the run took.
func (r Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Oneline renders the compact form used for Slack posts and log lines.
func (r Report) Oneline() string {
	c := r.Counters
	return fmt.Sprintf("winnow %s: kept %d/%d (%d dupes, %d invalid, %d dropped) %s -> %s in %s",
		r.Op, c.Kept, c.Total, c.Duplicate, c.Invalid, c.Dropped,
		r.Input, r.Output, r.Duration().Round(time.Millisecond))
}
