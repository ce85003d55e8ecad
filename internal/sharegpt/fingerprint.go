package sharegpt

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the dedup key for a record: the ordered human and gpt
// turn texts prefixed "H:"/"A:" and joined with "|", digested with SHA-256.
// Other roles do not participate. A record with no conversations
// fingerprints to the empty string — callers treat those as always novel.
// Digest equality is duplicate equality; there is no similarity scoring.
func Fingerprint(rec Record) string {
	if len(rec.Conversations) == 0 {
		return ""
	}
	var parts []string
	for _, turn := range rec.Conversations {
		switch turn.From {
		case RoleHuman:
			parts = append(parts, "H:"+turn.Value)
		case RoleGPT:
			parts = append(parts, "A:"+turn.Value)
		}
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
