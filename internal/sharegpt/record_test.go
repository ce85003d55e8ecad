package sharegpt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func parseRecord(t *testing.T, src string) Record {
	t.Helper()
	var rec Record
	if err := json.Unmarshal([]byte(src), &rec); err != nil {
		t.Fatalf("parse record: %v", err)
	}
	return rec
}

func encodeRecord(t *testing.T, rec Record) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		t.Fatalf("encode record: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func TestRecord_KeyOrder(t *testing.T) {
	rec := parseRecord(t, `{"id":7,"conversations":[{"from":"human","value":"hi"}],"system":"s","tools":"[]"}`)

	out := encodeRecord(t, rec)
	idxSystem := strings.Index(out, `"system"`)
	idxTools := strings.Index(out, `"tools"`)
	idxConvs := strings.Index(out, `"conversations"`)
	idxID := strings.Index(out, `"id"`)

	if idxSystem == -1 || idxTools == -1 || idxConvs == -1 || idxID == -1 {
		t.Fatalf("missing keys in output: %s", out)
	}
	if !(idxSystem < idxTools && idxTools < idxConvs && idxConvs < idxID) {
		t.Errorf("keys out of order: %s", out)
	}
}

func TestRecord_ExtraPassthrough(t *testing.T) {
	rec := parseRecord(t, `{"conversations":[],"domain":"retail","weight":0.5}`)

	if len(rec.Extra) != 2 {
		t.Fatalf("expected 2 extra keys, got %d", len(rec.Extra))
	}
	out := encodeRecord(t, rec)
	if !strings.Contains(out, `"domain":"retail"`) {
		t.Errorf("domain not preserved: %s", out)
	}
	if !strings.Contains(out, `"weight":0.5`) {
		t.Errorf("weight not preserved: %s", out)
	}
	// Extras emit sorted.
	if strings.Index(out, `"domain"`) > strings.Index(out, `"weight"`) {
		t.Errorf("extras not sorted: %s", out)
	}
}

func TestRecord_AbsentVsEmptyConversations(t *testing.T) {
	absent := parseRecord(t, `{"system":"s"}`)
	if absent.Conversations != nil {
		t.Error("expected nil conversations when key is absent")
	}
	if strings.Contains(encodeRecord(t, absent), "conversations") {
		t.Error("absent conversations key must not reappear on encode")
	}

	empty := parseRecord(t, `{"system":"s","conversations":[]}`)
	if empty.Conversations == nil {
		t.Error("expected non-nil conversations for an empty array")
	}
	if !strings.Contains(encodeRecord(t, empty), `"conversations":[]`) {
		t.Error("empty conversations array must survive encode")
	}
}

func TestRecord_TagMarkersNotEscaped(t *testing.T) {
	rec := parseRecord(t, `{"conversations":[{"from":"gpt","value":"<tool_call>\n{\"name\":\"f\"}\n</tool_call>\n"}]}`)

	out := encodeRecord(t, rec)
	if !strings.Contains(out, "<tool_call>") {
		t.Errorf("tool_call tag was escaped: %s", out)
	}
	if strings.Contains(out, "\\u003c") {
		t.Errorf("angle bracket escaped: %s", out)
	}
}

func TestRecord_NonASCIIPreserved(t *testing.T) {
	rec := parseRecord(t, `{"conversations":[{"from":"human","value":"Grüße, 東京"}]}`)

	out := encodeRecord(t, rec)
	if !strings.Contains(out, "Grüße, 東京") {
		t.Errorf("non-ASCII text was escaped: %s", out)
	}
}

func TestTurn_RoleKeyFallback(t *testing.T) {
	rec := parseRecord(t, `{"conversations":[{"role":"human","value":"hi"}]}`)

	if len(rec.Conversations) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(rec.Conversations))
	}
	if rec.Conversations[0].From != "human" {
		t.Errorf("expected role key fallback, got from=%q", rec.Conversations[0].From)
	}
}

func TestTurn_NonObjectTurnDecodesZero(t *testing.T) {
	rec := parseRecord(t, `{"conversations":["not a turn"]}`)

	if len(rec.Conversations) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(rec.Conversations))
	}
	if rec.Conversations[0].From != "" || rec.Conversations[0].Value != "" {
		t.Errorf("expected zero turn, got %+v", rec.Conversations[0])
	}
}

func TestRecord_ScalarElementKeptVerbatim(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`"just a string"`), &rec); err != nil {
		t.Fatalf("scalar record should not error: %v", err)
	}
	if rec.Raw == nil {
		t.Fatal("expected Raw to hold the scalar")
	}
	if out := encodeRecord(t, rec); out != `"just a string"` {
		t.Errorf("scalar not passed through verbatim: %s", out)
	}
}

func TestClean_TrimsAndDropsEmptyTurns(t *testing.T) {
	rec := parseRecord(t, `{"conversations":[{"from":" human ","value":"  hi  "},{"from":"gpt","value":"   "}]}`)

	cleaned, changed := Clean(rec)
	if !changed {
		t.Error("expected changed=true")
	}
	if len(cleaned.Conversations) != 1 {
		t.Fatalf("expected 1 surviving turn, got %d", len(cleaned.Conversations))
	}
	if cleaned.Conversations[0].From != "human" || cleaned.Conversations[0].Value != "hi" {
		t.Errorf("turn not trimmed: %+v", cleaned.Conversations[0])
	}
}

func TestClean_StringifiesTools(t *testing.T) {
	rec := parseRecord(t, `{"tools":[{"name":"get_weather"}],"conversations":[]}`)

	cleaned, changed := Clean(rec)
	if !changed {
		t.Error("expected changed=true")
	}
	var tools string
	if err := json.Unmarshal(cleaned.Tools, &tools); err != nil {
		t.Fatalf("tools is not a JSON string after clean: %v", err)
	}
	if tools != `[{"name":"get_weather"}]` {
		t.Errorf("unexpected stringified tools: %s", tools)
	}
}

func TestClean_StringToolsUntouched(t *testing.T) {
	rec := parseRecord(t, `{"tools":"[]","conversations":[{"from":"human","value":"hi"}]}`)

	cleaned, changed := Clean(rec)
	if changed {
		t.Error("expected changed=false for already-clean record")
	}
	if string(cleaned.Tools) != `"[]"` {
		t.Errorf("string tools modified: %s", cleaned.Tools)
	}
}

func TestClean_TrimsSystem(t *testing.T) {
	rec := parseRecord(t, `{"system":"  be helpful  ","conversations":[{"from":"human","value":"hi"}]}`)

	cleaned, changed := Clean(rec)
	if !changed {
		t.Error("expected changed=true")
	}
	var sys string
	if err := json.Unmarshal(cleaned.System, &sys); err != nil {
		t.Fatalf("system not a string: %v", err)
	}
	if sys != "be helpful" {
		t.Errorf("system not trimmed: %q", sys)
	}
}

func TestClean_PureOverInput(t *testing.T) {
	rec := parseRecord(t, `{"conversations":[{"from":"human","value":"  hi  "}]}`)

	_, _ = Clean(rec)
	if rec.Conversations[0].Value != "  hi  " {
		t.Errorf("Clean mutated its input: %q", rec.Conversations[0].Value)
	}
}
