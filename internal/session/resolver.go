package session

import (
	"crypto/sha256"
	"encoding/hex"

	"chainsight/internal/conversation"
)

// DefaultKey is the key for a fresh conversation with no prior history.
const DefaultKey = "default"

// ResolveKey derives a session key from a prior-history snapshot when the
// front door does not supply one. The same conversation prefix resolves to
// the same key across turns; distinct conversations diverge with high
// probability. The hash covers role and content only, so formatting of any
// serialized form cannot perturb the key.
func ResolveKey(priorHistory []conversation.Message) string {
	if len(priorHistory) == 0 {
		return DefaultKey
	}
	h := sha256.New()
	for _, m := range priorHistory {
		h.Write([]byte(m.Role))
		h.Write([]byte{'\n'})
		h.Write([]byte(m.Content))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
