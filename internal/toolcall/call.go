// Package toolcall parses, repairs, and re-encodes the function-calling
// turns of agent training conversations. A tool-call payload is the JSON
// object a function_call turn carries ({"name": ..., "arguments": ...});
// the tagged form wraps that payload in <tool_call> markers alongside an
// optional <think> reasoning span.
package toolcall

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Field is one payload key in source order.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Call is a decoded tool-call payload. Name and Arguments hold the two
// contractual keys as raw JSON, nil when the key is absent; Extra keeps any
// remaining keys in source order so a re-encode does not shed vendor
// metadata.
type Call struct {
	Name      json.RawMessage
	Arguments json.RawMessage
	Extra     []Field
}

// ArgShape classifies the arguments value for the repair policy.
type ArgShape int

const (
	ShapeMissing ArgShape = iota
	ShapeMapping
	ShapeEncodedString
	ShapeOther
)

// ArgShape reports which repair branch the arguments value falls under.
func (c Call) ArgShape() ArgShape {
	if c.Arguments == nil {
		return ShapeMissing
	}
	raw := bytes.TrimSpace(c.Arguments)
	if len(raw) == 0 {
		return ShapeOther
	}
	switch raw[0] {
	case '{':
		return ShapeMapping
	case '"':
		return ShapeEncodedString
	default:
		return ShapeOther
	}
}

// FuncName returns the decoded function name, or "" when the name key is
// absent or not a string.
func (c Call) FuncName() string {
	var name string
	if c.Name != nil {
		_ = json.Unmarshal(c.Name, &name)
	}
	return name
}

// ParseCall decodes a tool-call payload. The payload must be a single JSON
// object with nothing trailing it; keys beyond name and arguments are kept
// in source order.
func ParseCall(raw []byte) (Call, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return Call{}, fmt.Errorf("parse payload: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Call{}, errors.New("payload is not a JSON object")
	}

	var call Call
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Call{}, fmt.Errorf("parse payload: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Call{}, errors.New("payload has a non-string key")
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return Call{}, fmt.Errorf("parse payload value for %q: %w", key, err)
		}
		switch key {
		case "name":
			call.Name = val
		case "arguments":
			call.Arguments = val
		default:
			call.Extra = append(call.Extra, Field{Key: key, Value: val})
		}
	}
	if _, err := dec.Token(); err != nil {
		return Call{}, fmt.Errorf("parse payload: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Call{}, errors.New("trailing data after payload")
	}
	return call, nil
}

// EncodeCall renders the payload compactly with name first, arguments
// second, and the remaining keys in source order. HTML characters are not
// escaped. Absent keys are omitted.
func EncodeCall(call Call) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeField := func(key string, val json.RawMessage) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(encodeKey(key))
		buf.WriteByte(':')
		// The raw value came from a successful decode, so compaction
		// cannot fail.
		_ = json.Compact(&buf, val)
	}
	if call.Name != nil {
		writeField("name", call.Name)
	}
	if call.Arguments != nil {
		writeField("arguments", call.Arguments)
	}
	for _, f := range call.Extra {
		writeField(f.Key, f.Value)
	}
	buf.WriteByte('}')
	return buf.String()
}

func encodeKey(key string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(key)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
