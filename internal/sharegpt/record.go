// Package sharegpt models ShareGPT-style training corpora: JSON arrays of
// conversation records with optional system/tools metadata, a turn sequence,
// and arbitrary passthrough fields.
package sharegpt

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Turn is one step in a conversation.
type Turn struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

// UnmarshalJSON tolerates the variations older exports carry: a "role" key
// instead of "from", and turns that are not objects at all. A turn that
// cannot be decoded is left zero for the validator to reject.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var aux struct {
		From  string `json:"from"`
		Role  string `json:"role"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		*t = Turn{}
		return nil
	}
	t.From = aux.From
	if t.From == "" {
		t.From = aux.Role
	}
	t.Value = aux.Value
	return nil
}

// Record is one training example. System, Tools and Conversations are the
// known keys; any other top-level key is preserved verbatim in Extra.
// A nil Conversations means the source record had no conversations key at
// all — several pipeline stages pass such records through untouched.
type Record struct {
	System        json.RawMessage
	Tools         json.RawMessage
	Conversations []Turn
	Extra         map[string]json.RawMessage

	// Raw holds the original bytes when the source element was not a JSON
	// object. Such records fail strict validation but survive conversions
	// verbatim.
	Raw json.RawMessage
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		*r = Record{Raw: append(json.RawMessage(nil), data...)}
		return nil
	}
	*r = Record{}
	for key, raw := range fields {
		switch key {
		case "system":
			r.System = raw
		case "tools":
			r.Tools = raw
		case "conversations":
			// An undecodable conversations value is kept as present-but-empty
			// so the validator rejects the record instead of the whole file.
			turns := []Turn{}
			_ = json.Unmarshal(raw, &turns)
			if turns == nil {
				turns = []Turn{}
			}
			r.Conversations = turns
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]json.RawMessage)
			}
			r.Extra[key] = raw
		}
	}
	return nil
}

// MarshalJSON emits the known keys in fixed order (system, tools,
// conversations) followed by the passthrough keys in sorted order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Raw != nil {
		return r.Raw, nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	writeField := func(key string, raw json.RawMessage) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(raw)
	}

	if r.System != nil {
		writeField("system", r.System)
	}
	if r.Tools != nil {
		writeField("tools", r.Tools)
	}
	if r.Conversations != nil {
		turns, err := marshalNoEscape(r.Conversations)
		if err != nil {
			return nil, err
		}
		writeField("conversations", turns)
	}

	extraKeys := make([]string, 0, len(r.Extra))
	for key := range r.Extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		writeField(key, r.Extra[key])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Clean trims turn roles and values, drops turns whose value is empty after
// trimming, trims a string system prompt, and re-encodes a non-string tools
// value as its JSON string form. Reports whether anything changed.
func Clean(rec Record) (Record, bool) {
	changed := false

	if rec.Conversations != nil {
		kept := make([]Turn, 0, len(rec.Conversations))
		for _, turn := range rec.Conversations {
			from := strings.TrimSpace(turn.From)
			value := strings.TrimSpace(turn.Value)
			if value == "" {
				changed = true
				continue
			}
			if from != turn.From || value != turn.Value {
				changed = true
			}
			kept = append(kept, Turn{From: from, Value: value})
		}
		rec.Conversations = kept
	}

	if rec.System != nil {
		var s string
		if err := json.Unmarshal(rec.System, &s); err == nil {
			if trimmed := strings.TrimSpace(s); trimmed != s {
				if raw, err := marshalNoEscape(trimmed); err == nil {
					rec.System = raw
					changed = true
				}
			}
		}
	}

	if rec.Tools != nil && !isJSONString(rec.Tools) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, rec.Tools); err == nil {
			if raw, err := marshalNoEscape(compact.String()); err == nil {
				rec.Tools = raw
				changed = true
			}
		}
	}

	return rec, changed
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// marshalNoEscape marshals v without HTML escaping so tag markers like
// <tool_call> survive re-encoding byte for byte.
func marshalNoEscape(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
