package toolcall

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/winnow/internal/sharegpt"
)

const (
	toolOpen  = "<tool_call>"
	toolClose = "</tool_call>"
)

// EncodeTagged renders the canonical tagged form of a call. Only name and
// arguments cross into tagged form; a missing name encodes as "" and
// missing arguments as {}. Nothing is repaired here.
func EncodeTagged(call Call) string {
	name := call.Name
	if name == nil {
		name = json.RawMessage(`""`)
	}
	args := call.Arguments
	if args == nil {
		args = json.RawMessage("{}")
	}
	payload := EncodeCall(Call{Name: name, Arguments: args})
	return toolOpen + "\n" + payload + "\n" + toolClose + "\n"
}

// ParseTagged scans a value for tagged call spans. It returns the text
// before the first open marker and the parsed payloads in order. An
// unclosed open marker ends the scan; a payload that does not parse is an
// error.
func ParseTagged(value string) (string, []Call, error) {
	first := strings.Index(value, toolOpen)
	if first < 0 {
		return value, nil, nil
	}
	before := value[:first]
	rest := value[first:]
	var calls []Call
	for {
		start := strings.Index(rest, toolOpen)
		if start < 0 {
			break
		}
		rest = rest[start+len(toolOpen):]
		end := strings.Index(rest, toolClose)
		if end < 0 {
			break
		}
		payload := strings.TrimSpace(rest[:end])
		call, err := ParseCall([]byte(payload))
		if err != nil {
			return before, calls, fmt.Errorf("tagged payload %d: %w", len(calls), err)
		}
		calls = append(calls, call)
		rest = rest[end+len(toolClose):]
	}
	return before, calls, nil
}

// ConvertTurn rewrites one turn into tagged dialogue form: function_call
// turns become gpt turns carrying the tagged call (with any reasoning span
// re-emitted in front, even when its content is empty), observation turns
// become human turns with the value untouched, and every other turn passes
// through. A function_call payload that does not parse is an error.
func ConvertTurn(turn sharegpt.Turn) (sharegpt.Turn, error) {
	switch turn.From {
	case sharegpt.RoleFunctionCall:
		reasoning, rest, found := SplitReasoning(turn.Value)
		call, err := ParseCall([]byte(rest))
		if err != nil {
			return turn, fmt.Errorf("function_call payload: %w", err)
		}
		var sb strings.Builder
		if found {
			sb.WriteString(reasoningOpen)
			sb.WriteString(reasoning)
			sb.WriteString(reasoningClose)
			sb.WriteByte('\n')
		}
		sb.WriteString(EncodeTagged(call))
		return sharegpt.Turn{From: sharegpt.RoleGPT, Value: sb.String()}, nil
	case sharegpt.RoleObservation:
		return sharegpt.Turn{From: sharegpt.RoleHuman, Value: turn.Value}, nil
	default:
		return turn, nil
	}
}

// ConvertRecord applies ConvertTurn across a record's conversations. Any
// turn that fails to convert fails the whole record; no partial conversion
// is returned.
func ConvertRecord(rec sharegpt.Record) (sharegpt.Record, error) {
	if rec.Conversations == nil {
		return rec, nil
	}
	out := rec
	out.Conversations = make([]sharegpt.Turn, len(rec.Conversations))
	for i, turn := range rec.Conversations {
		converted, err := ConvertTurn(turn)
		if err != nil {
			return rec, fmt.Errorf("turn %d: %w", i, err)
		}
		out.Conversations[i] = converted
	}
	return out, nil
}
