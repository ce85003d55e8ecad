package sharegpt

import (
	"errors"
	"fmt"
	"strings"
)

// Validate applies the strict schema: a conversations key holding a
// non-empty array, every turn carrying a strict-vocabulary role and a
// non-blank value, and both system and tools keys present (empty values are
// fine, presence is the check). The first violation is returned.
func Validate(rec Record) error {
	if rec.Raw != nil {
		return errors.New("record is not an object")
	}
	if rec.Conversations == nil {
		return errors.New("missing conversations")
	}
	if len(rec.Conversations) == 0 {
		return errors.New("empty conversations")
	}
	for i, turn := range rec.Conversations {
		if turn.From == "" {
			return fmt.Errorf("turn %d: missing role", i)
		}
		if !IsStrictRole(turn.From) {
			return fmt.Errorf("turn %d: role %q not allowed", i, turn.From)
		}
		if strings.TrimSpace(turn.Value) == "" {
			return fmt.Errorf("turn %d: empty value", i)
		}
	}
	if rec.System == nil {
		return errors.New("missing system")
	}
	if rec.Tools == nil {
		return errors.New("missing tools")
	}
	return nil
}

// Inspect is the lenient pass used for pre-existing corpora: it reports
// problems as warnings instead of rejecting the record. Legacy role aliases
// are flagged but tolerated.
func Inspect(rec Record) []string {
	var warnings []string

	if rec.Raw != nil {
		return []string{"record is not an object"}
	}
	if rec.Conversations == nil {
		warnings = append(warnings, "missing conversations")
	} else if len(rec.Conversations) == 0 {
		warnings = append(warnings, "empty conversations")
	}
	for i, turn := range rec.Conversations {
		if turn.From == "" || turn.Value == "" {
			warnings = append(warnings, fmt.Sprintf("turn %d: missing role or value", i))
			continue
		}
		if IsLegacyRole(turn.From) {
			warnings = append(warnings, fmt.Sprintf("turn %d: legacy role %q", i, turn.From))
		} else if !IsStrictRole(turn.From) {
			warnings = append(warnings, fmt.Sprintf("turn %d: unknown role %q", i, turn.From))
		}
	}
	if rec.Tools == nil {
		warnings = append(warnings, "missing tools")
	}
	if rec.System == nil {
		warnings = append(warnings, "missing system")
	}
	return warnings
}
