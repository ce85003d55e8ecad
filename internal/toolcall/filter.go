package toolcall

import (
	"regexp"
	"strings"

	"github.com/MikeSquared-Agency/winnow/internal/sharegpt"
)

var (
	taggedSpanRe    = regexp.MustCompile(`(?s)<tool_call>.*?</tool_call>`)
	taggedPayloadRe = regexp.MustCompile(`(?s)<tool_call>\s*(\{.*?\})\s*</tool_call>`)
	nameKeyRe       = regexp.MustCompile(`"name"\s*:\s*"[^"]+"`)
	argsKeyRe       = regexp.MustCompile(`"arguments"\s*:\s*`)
	nameScanRe      = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
)

// HasToolCall reports whether a turn value carries a tool call: a matched
// tagged span, or a non-empty name key and an arguments key appearing
// together in raw payload text. An unclosed open marker on its own is
// residue, not a call.
func HasToolCall(value string) bool {
	if taggedSpanRe.MatchString(value) {
		return true
	}
	return nameKeyRe.MatchString(value) && argsKeyRe.MatchString(value)
}

// FunctionName extracts the called function's name from a turn value. The
// first tagged payload is tried first; when that is absent or does not
// parse, a bare name-key scan is the fallback.
func FunctionName(value string) (string, bool) {
	if m := taggedPayloadRe.FindStringSubmatch(value); m != nil {
		if call, err := ParseCall([]byte(m[1])); err == nil {
			if name := call.FuncName(); name != "" {
				return name, true
			}
		}
	}
	if m := nameScanRe.FindStringSubmatch(value); m != nil {
		return m[1], true
	}
	return "", false
}

// announceCall injects a plain-language announcement in front of the first
// tagged call. Without a tag to anchor on, or a findable name, the value is
// returned unchanged.
func announceCall(value string) string {
	idx := strings.Index(value, toolOpen)
	if idx < 0 {
		return value
	}
	name, ok := FunctionName(value)
	if !ok {
		return value
	}
	return value[:idx] + "I will call the function " + name + ".\n\n" + value[idx:]
}

// ScrubTurn applies the reasoning-removal policy to one turn:
//
//   - reasoning span, no call, model turn: drop the turn (pure chain of
//     thought with nothing actionable).
//   - reasoning span, no call, other turn: strip the spans, content
//     included.
//   - reasoning span and call: keep both.
//   - call without reasoning: announce the call in front of the first tag.
//
// Every surviving turn then has leftover reasoning markers removed, content
// kept. keep is false when the turn should be dropped.
func ScrubTurn(turn sharegpt.Turn) (scrubbed sharegpt.Turn, keep bool) {
	hasReasoning := HasReasoningSpan(turn.Value)
	hasCall := HasToolCall(turn.Value)
	switch {
	case hasReasoning && !hasCall:
		if isModelRole(turn.From) {
			return sharegpt.Turn{}, false
		}
		turn.Value = StripReasoningSpans(turn.Value)
	case hasCall && !hasReasoning:
		turn.Value = announceCall(turn.Value)
	}
	turn.Value = StripReasoningMarkers(turn.Value)
	return turn, true
}

func isModelRole(from string) bool {
	return strings.EqualFold(from, sharegpt.RoleGPT) || strings.EqualFold(from, sharegpt.RoleAssistant)
}

// FilterRecord applies ScrubTurn across a record's conversations. ok is
// false when nothing survives; a record with no conversations at all never
// survives this stage.
func FilterRecord(rec sharegpt.Record) (sharegpt.Record, bool) {
	kept := make([]sharegpt.Turn, 0, len(rec.Conversations))
	for _, turn := range rec.Conversations {
		scrubbed, keep := ScrubTurn(turn)
		if !keep {
			continue
		}
		kept = append(kept, scrubbed)
	}
	if len(kept) == 0 {
		return rec, false
	}
	out := rec
	out.Conversations = kept
	return out, true
}
