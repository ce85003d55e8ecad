package pipeline

import "testing"

func TestDeduper(t *testing.T) {
	d := NewDeduper()

	if d.Seen("abc") {
		t.Error("first sighting must not be a duplicate")
	}
	if !d.Seen("abc") {
		t.Error("second sighting must be a duplicate")
	}
	if d.Seen("def") {
		t.Error("distinct fingerprint flagged as duplicate")
	}
	if d.Len() != 2 {
		t.Errorf("Len = %d, want 2", d.Len())
	}
}

func TestDeduper_EmptyFingerprintAlwaysNovel(t *testing.T) {
	d := NewDeduper()

	if d.Seen("") || d.Seen("") {
		t.Error("empty fingerprint must never be a duplicate")
	}
	if d.Len() != 0 {
		t.Errorf("empty fingerprint was recorded, Len = %d", d.Len())
	}
}
