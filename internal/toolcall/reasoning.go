package toolcall

import "strings"

const (
	reasoningOpen  = "<think>"
	reasoningClose = "</think>"
)

// SplitReasoning splits a turn value into its reasoning span and the rest.
// When a matched <think>...</think> pair is present, reasoning is the raw
// content of the first span and rest is the whitespace-trimmed text after
// the close marker; any text before the open marker belongs to neither.
// Without a matched pair the whole value, trimmed, comes back as rest.
func SplitReasoning(value string) (reasoning, rest string, found bool) {
	start := strings.Index(value, reasoningOpen)
	if start < 0 {
		return "", strings.TrimSpace(value), false
	}
	tail := value[start+len(reasoningOpen):]
	end := strings.Index(tail, reasoningClose)
	if end < 0 {
		return "", strings.TrimSpace(value), false
	}
	return tail[:end], strings.TrimSpace(tail[end+len(reasoningClose):]), true
}

// HasReasoningSpan reports whether the value carries a matched
// <think>...</think> pair.
func HasReasoningSpan(value string) bool {
	start := strings.Index(value, reasoningOpen)
	if start < 0 {
		return false
	}
	return strings.Contains(value[start+len(reasoningOpen):], reasoningClose)
}

// StripReasoningSpans removes every matched reasoning span, content
// included. Text outside the spans is left exactly as it was, an unmatched
// open marker included.
func StripReasoningSpans(value string) string {
	var sb strings.Builder
	for {
		start := strings.Index(value, reasoningOpen)
		if start < 0 {
			sb.WriteString(value)
			return sb.String()
		}
		tail := value[start+len(reasoningOpen):]
		end := strings.Index(tail, reasoningClose)
		if end < 0 {
			sb.WriteString(value)
			return sb.String()
		}
		sb.WriteString(value[:start])
		value = tail[end+len(reasoningClose):]
	}
}

// StripReasoningMarkers removes the reasoning markers but keeps their
// content: first the open marker with its trailing newline, then any bare
// open marker, then the close marker.
func StripReasoningMarkers(value string) string {
	value = strings.ReplaceAll(value, reasoningOpen+"\n", "")
	value = strings.ReplaceAll(value, reasoningOpen, "")
	return strings.ReplaceAll(value, reasoningClose, "")
}
