package pipeline

// Deduper tracks the record fingerprints seen within one run. Digest
// equality is duplicate equality; there is no similarity scoring. An empty
// fingerprint marks a record with nothing to hash and is always novel.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper returns an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Seen reports whether the fingerprint was already recorded this run,
// recording it when not.
func (d *Deduper) Seen(fp string) bool {
	if fp == "" {
		return false
	}
	if _, ok := d.seen[fp]; ok {
		return true
	}
	d.seen[fp] = struct{}{}
	return false
}

// Len is the number of distinct fingerprints recorded.
func (d *Deduper) Len() int {
	return len(d.seen)
}
