package sharegpt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Stats summarizes a corpus.
type Stats struct {
	Records       int
	Turns         int
	MinTurns      int
	MaxTurns      int
	RoleCounts    map[string]int
	WithSystem    int
	WithTools     int
	StrictInvalid int
	Domains       map[string]int
}

// Summarize walks the records once and aggregates corpus stats. The domain
// distribution reads the passthrough "domain" key some exports carry.
func Summarize(recs []Record) Stats {
	st := Stats{
		Records:    len(recs),
		RoleCounts: make(map[string]int),
		Domains:    make(map[string]int),
	}
	for i, rec := range recs {
		n := len(rec.Conversations)
		st.Turns += n
		if i == 0 || n < st.MinTurns {
			st.MinTurns = n
		}
		if n > st.MaxTurns {
			st.MaxTurns = n
		}
		for _, turn := range rec.Conversations {
			st.RoleCounts[turn.From]++
		}
		if rec.System != nil {
			st.WithSystem++
		}
		if rec.Tools != nil {
			st.WithTools++
		}
		if err := Validate(rec); err != nil {
			st.StrictInvalid++
		}

		domain := "unknown"
		if raw, ok := rec.Extra["domain"]; ok {
			var d string
			if err := json.Unmarshal(raw, &d); err == nil && d != "" {
				domain = d
			}
		}
		st.Domains[domain]++
	}
	return st
}

// AvgTurns is the mean turn count per record.
func (s Stats) AvgTurns() float64 {
	if s.Records == 0 {
		return 0
	}
	return float64(s.Turns) / float64(s.Records)
}

// Format renders the block the stats command prints.
func (s Stats) Format() string {
	var sb strings.Builder
	sb.WriteString("=== Corpus Stats ===\n")
	fmt.Fprintf(&sb, "Records:        %d\n", s.Records)
	fmt.Fprintf(&sb, "Turns:          %d (avg %.1f, min %d, max %d)\n", s.Turns, s.AvgTurns(), s.MinTurns, s.MaxTurns)
	fmt.Fprintf(&sb, "With system:    %d\n", s.WithSystem)
	fmt.Fprintf(&sb, "With tools:     %d\n", s.WithTools)
	fmt.Fprintf(&sb, "Strict-invalid: %d\n", s.StrictInvalid)

	if len(s.RoleCounts) > 0 {
		sb.WriteString("Turns by role:\n")
		roles := make([]string, 0, len(s.RoleCounts))
		for role := range s.RoleCounts {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			fmt.Fprintf(&sb, "  %-15s %d\n", role, s.RoleCounts[role])
		}
	}

	// Only worth printing when some record actually carries a domain.
	if len(s.Domains) > 1 || (len(s.Domains) == 1 && s.Domains["unknown"] == 0) {
		sb.WriteString("Records by domain:\n")
		domains := make([]string, 0, len(s.Domains))
		for d := range s.Domains {
			domains = append(domains, d)
		}
		sort.Strings(domains)
		for _, d := range domains {
			fmt.Fprintf(&sb, "  %-15s %d\n", d, s.Domains[d])
		}
	}

	return sb.String()
}
