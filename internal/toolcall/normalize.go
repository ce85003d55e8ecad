package toolcall

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/MikeSquared-Agency/winnow/internal/sharegpt"
)

// FixKind identifies which repair branch handled an arguments value.
type FixKind int

const (
	FixNone FixKind = iota
	FixStringDict
	FixQuotes
	FixEmptyString
	FixCoerced
	FixWrongType
	FixAdded
)

// Outcome reports what a repair did. Note is the human-readable signal the
// run summary aggregates on; DataLoss marks repairs that discarded the
// original arguments text.
type Outcome struct {
	Kind     FixKind
	Note     string
	DataLoss bool
}

// RepairArguments applies the repair policy to a call's arguments and
// returns the repaired call. Name and extra keys are never touched.
//
// The policy, in priority order: a JSON object needs no fix; a string is
// re-parsed as JSON (with a single-to-double quote retry for brace-wrapped
// text), an empty string becomes an empty object, and any other string is
// discarded for an empty object; a non-object non-string value is replaced
// by an empty object; a missing key is added as an empty object.
func RepairArguments(call Call) (Call, Outcome) {
	fixed := call
	switch call.ArgShape() {
	case ShapeMapping:
		return call, Outcome{Kind: FixNone, Note: "No fix needed"}
	case ShapeEncodedString:
		args, outcome := repairStringArgs(call.Arguments)
		fixed.Arguments = args
		return fixed, outcome
	case ShapeMissing:
		fixed.Arguments = json.RawMessage("{}")
		return fixed, Outcome{Kind: FixAdded, Note: "Fixed: added arguments"}
	default:
		kind := jsonTypeName(call.Arguments)
		fixed.Arguments = json.RawMessage("{}")
		return fixed, Outcome{Kind: FixWrongType, Note: "Fixed: " + kind + " to dict", DataLoss: true}
	}
}

func repairStringArgs(raw json.RawMessage) (json.RawMessage, Outcome) {
	var s string
	_ = json.Unmarshal(raw, &s)

	if obj, ok := objectBytes(s); ok {
		return obj, Outcome{Kind: FixStringDict, Note: "Fixed: string to dict"}
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if obj, ok := objectBytes(strings.ReplaceAll(trimmed, "'", `"`)); ok {
			return obj, Outcome{Kind: FixQuotes, Note: "Fixed: quotes"}
		}
	}
	if trimmed == "" {
		return json.RawMessage("{}"), Outcome{Kind: FixEmptyString, Note: "Fixed: empty to dict"}
	}
	return json.RawMessage("{}"), Outcome{Kind: FixCoerced, Note: "Warning: empty dict", DataLoss: true}
}

// objectBytes reports whether s is the text of a JSON object, returning it
// compacted when so.
func objectBytes(s string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
		return nil, false
	}
	var buf bytes.Buffer
	_ = json.Compact(&buf, []byte(trimmed))
	return buf.Bytes(), true
}

func jsonTypeName(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// NormalizeValue repairs the payload inside one function_call turn value.
// The value may open with a reasoning span; the payload is whatever
// follows. A repaired (or reasoning-bearing) value is re-encoded as the
// span plus the compact payload. ok is false when the payload is not
// parseable at all, in which case the caller keeps the turn untouched.
func NormalizeValue(value string) (fixed string, outcome Outcome, ok bool) {
	reasoning, rest, found := SplitReasoning(value)
	call, err := ParseCall([]byte(rest))
	if err != nil {
		return value, Outcome{}, false
	}
	repaired, outcome := RepairArguments(call)
	if outcome.Kind == FixNone && !found {
		return value, outcome, true
	}
	var sb strings.Builder
	if found {
		sb.WriteString(reasoningOpen)
		sb.WriteString(reasoning)
		sb.WriteString(reasoningClose)
		sb.WriteByte('\n')
	}
	sb.WriteString(EncodeCall(repaired))
	return sb.String(), outcome, true
}

// TurnOutcome pairs a conversation index with the repair outcome there.
// Parsed is false for a payload that could not be decoded and was left
// untouched.
type TurnOutcome struct {
	Turn    int
	Outcome Outcome
	Parsed  bool
}

// NormalizeRecord repairs every function_call payload in a record. The
// input record is not mutated.
func NormalizeRecord(rec sharegpt.Record) (sharegpt.Record, []TurnOutcome) {
	if rec.Conversations == nil {
		return rec, nil
	}
	var outcomes []TurnOutcome
	out := rec
	out.Conversations = make([]sharegpt.Turn, len(rec.Conversations))
	copy(out.Conversations, rec.Conversations)
	for i, turn := range out.Conversations {
		if turn.From != sharegpt.RoleFunctionCall {
			continue
		}
		value, outcome, ok := NormalizeValue(turn.Value)
		if !ok {
			outcomes = append(outcomes, TurnOutcome{Turn: i})
			continue
		}
		out.Conversations[i].Value = value
		outcomes = append(outcomes, TurnOutcome{Turn: i, Outcome: outcome, Parsed: true})
	}
	return out, outcomes
}

// Tainted reports whether a turn value carries malformed tool-call residue:
// a broken tag marker or a leaked array-of-calls dump. Records with tainted
// turns are beyond repair and get dropped wholesale.
func Tainted(value string) bool {
	return strings.Contains(value, "<tool_") || strings.Contains(value, "\n[{")
}

// TaintedRecord reports whether any turn of the record is tainted.
func TaintedRecord(rec sharegpt.Record) bool {
	for _, turn := range rec.Conversations {
		if Tainted(turn.Value) {
			return true
		}
	}
	return false
}
