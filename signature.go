package inboundplan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ItemSetSignature fingerprints the set of items and effective quantities in
// a request. Two requests with the same items in any order produce the same
// signature; changing any effective quantity changes it. The signature is
// compared against the persisted snapshot to decide whether a cached plan is
// still valid.
func ItemSetSignature(items []LineItem) string {
	pairs := make([]string, 0, len(items))
	for _, li := range items {
		pairs = append(pairs, fmt.Sprintf("%s:%d", li.ID, li.EffectiveQuantity()))
	}
	sort.Strings(pairs)
	sum := sha256.Sum256([]byte(strings.Join(pairs, ";")))
	return hex.EncodeToString(sum[:])
}
