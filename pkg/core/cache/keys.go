package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Key builds a cache key from a namespace and any JSON-encodable parts.
// Equal parts always produce equal keys.
func Key(namespace string, parts ...interface{}) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			return "", err
		}
	}
	sum := h.Sum(nil)
	return namespace + ":" + hex.EncodeToString(sum[:16]), nil
}
