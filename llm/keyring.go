// Package llm wraps the generative text API: credential rotation, pacing,
// and retry with linear backoff around chat completion calls.
package llm

import (
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"copygen/core"
)

// KeyRing rotates through a fixed set of API credentials. Every call to Next
// advances the rotation, so consecutive generation attempts spread load across
// all configured keys. Safe for concurrent use.
type KeyRing struct {
	keys   []string
	cursor atomic.Uint64
}

// NewKeyRing builds a ring from the given keys. Empty strings and duplicates
// are dropped; the survivors keep their original relative order.
func NewKeyRing(keys []string) (*KeyRing, error) {
	seen := make(map[string]struct{}, len(keys))
	kept := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, k)
	}

	if len(kept) == 0 {
		return nil, core.ErrNoCredentials(core.CredentialEnvPrefix)
	}

	return &KeyRing{keys: kept}, nil
}

// NewKeyRingFromEnv scans the environment for variables whose name starts
// with core.CredentialEnvPrefix (GEN_API_KEY, GEN_API_KEY_1, ...) and builds
// a ring from their values, ordered by variable name so rotation order is
// stable across runs.
func NewKeyRingFromEnv() (*KeyRing, error) {
	type pair struct {
		name  string
		value string
	}

	var pairs []pair
	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if strings.HasPrefix(name, core.CredentialEnvPrefix) {
			pairs = append(pairs, pair{name: name, value: value})
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })

	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.value
	}

	return NewKeyRing(keys)
}

// Next returns the next key in rotation.
func (r *KeyRing) Next() string {
	n := r.cursor.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

// Len returns the number of distinct keys in the ring.
func (r *KeyRing) Len() int {
	return len(r.keys)
}
