package cache

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key hashes a set of cache-key components (query text, method name,
// candidate ids, …) into a single short string, using xxhash rather than a
// cryptographic hash since cache keys are not security-sensitive.
func Key(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.WriteString("\x1f")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// JoinIDs is a small helper for building the "ids-of-top-10-inputs" part of
// a cache key.
func JoinIDs(ids []string) string {
	return strings.Join(ids, ",")
}
