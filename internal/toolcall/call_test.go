package toolcall

import (
	"strings"
	"testing"
)

func mustParseCall(t *testing.T, payload string) Call {
	t.Helper()
	call, err := ParseCall([]byte(payload))
	if err != nil {
		t.Fatalf("parse %q: %v", payload, err)
	}
	return call
}

func TestParseCall(t *testing.T) {
	call := mustParseCall(t, `{"name": "get_weather", "arguments": {"city": "Oslo"}, "id": 7, "vendor": "x"}`)

	if got := call.FuncName(); got != "get_weather" {
		t.Errorf("FuncName = %q, want get_weather", got)
	}
	if string(call.Arguments) != `{"city": "Oslo"}` {
		t.Errorf("arguments raw = %s", call.Arguments)
	}
	if len(call.Extra) != 2 {
		t.Fatalf("expected 2 extra fields, got %d", len(call.Extra))
	}
	if call.Extra[0].Key != "id" || call.Extra[1].Key != "vendor" {
		t.Errorf("extra keys out of source order: %v", call.Extra)
	}
}

func TestParseCall_MissingKeys(t *testing.T) {
	call := mustParseCall(t, `{"arguments": {}}`)
	if call.Name != nil {
		t.Errorf("expected nil name, got %s", call.Name)
	}
	if call.FuncName() != "" {
		t.Errorf("FuncName on missing name = %q", call.FuncName())
	}

	call = mustParseCall(t, `{"name": "f"}`)
	if call.Arguments != nil {
		t.Errorf("expected nil arguments, got %s", call.Arguments)
	}
}

func TestParseCall_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"array", `[{"name":"f"}]`},
		{"scalar", `"name"`},
		{"truncated", `{"name": "f"`},
		{"trailing garbage", `{"name":"f"} extra`},
		{"single quotes", `{'name': 'f'}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCall([]byte(tc.payload)); err == nil {
				t.Errorf("expected error for %q", tc.payload)
			}
		})
	}
}

func TestParseCall_NonStringName(t *testing.T) {
	call := mustParseCall(t, `{"name": 42, "arguments": {}}`)

	if call.FuncName() != "" {
		t.Errorf("FuncName on numeric name = %q", call.FuncName())
	}
	// The raw value survives a re-encode untouched.
	if got := EncodeCall(call); got != `{"name":42,"arguments":{}}` {
		t.Errorf("re-encode = %s", got)
	}
}

func TestEncodeCall_Ordering(t *testing.T) {
	call := mustParseCall(t, `{"vendor": "x", "arguments": {"a": 1}, "name": "f", "id": 7}`)

	got := EncodeCall(call)
	want := `{"name":"f","arguments":{"a":1},"vendor":"x","id":7}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEncodeCall_OmitsAbsentKeys(t *testing.T) {
	if got := EncodeCall(mustParseCall(t, `{"name":"f"}`)); got != `{"name":"f"}` {
		t.Errorf("got %s", got)
	}
	if got := EncodeCall(mustParseCall(t, `{"arguments":{}}`)); got != `{"arguments":{}}` {
		t.Errorf("got %s", got)
	}
	if got := EncodeCall(Call{}); got != `{}` {
		t.Errorf("empty call encodes as %s", got)
	}
}

func TestEncodeCall_NoHTMLEscaping(t *testing.T) {
	call := mustParseCall(t, `{"name": "f", "arguments": {"q": "a<b & c>d"}}`)

	got := EncodeCall(call)
	if !strings.Contains(got, "a<b & c>d") {
		t.Errorf("angle brackets escaped: %s", got)
	}
}

func TestEncodeCall_CompactsWhitespace(t *testing.T) {
	call := mustParseCall(t, "{\"name\": \"f\",\n  \"arguments\": {\n    \"a\": 1\n  }\n}")

	if got := EncodeCall(call); got != `{"name":"f","arguments":{"a":1}}` {
		t.Errorf("got %s", got)
	}
}

func TestArgShape(t *testing.T) {
	cases := []struct {
		payload string
		want    ArgShape
	}{
		{`{"name":"f","arguments":{}}`, ShapeMapping},
		{`{"name":"f","arguments":"{}"}`, ShapeEncodedString},
		{`{"name":"f","arguments":[1]}`, ShapeOther},
		{`{"name":"f","arguments":3}`, ShapeOther},
		{`{"name":"f","arguments":null}`, ShapeOther},
		{`{"name":"f","arguments":true}`, ShapeOther},
		{`{"name":"f"}`, ShapeMissing},
	}

	for _, tc := range cases {
		call := mustParseCall(t, tc.payload)
		if got := call.ArgShape(); got != tc.want {
			t.Errorf("ArgShape for %s = %d, want %d", tc.payload, got, tc.want)
		}
	}
}
