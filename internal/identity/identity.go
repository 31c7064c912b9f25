// Package identity derives stable, content-based keys for ephemeral cluster
// suggestions. The key lets the dashboard reconcile suggestion lists and
// track selection across re-renders without a server-issued id.
package identity

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

// SuggestionID hashes the suggestion name together with its sorted member
// query ids into a short "cluster-<n>" key. The hash is a 32-bit polynomial
// rolling hash over UTF-16 code units; it is deterministic for any input
// order of ids. Collisions are possible and tolerated: the key is a list
// key, never a uniqueness or security guarantee, and acceptance always gets
// a fresh server-side group id.
func SuggestionID(name string, queryIDs []string) string {
	sorted := make([]string, len(queryIDs))
	copy(sorted, queryIDs)
	sort.Strings(sorted)

	var sb strings.Builder
	sb.WriteString(name)
	for _, id := range sorted {
		sb.WriteByte('|')
		sb.WriteString(id)
	}

	var h int32
	for _, u := range utf16.Encode([]rune(sb.String())) {
		h = h*31 + int32(u)
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return "cluster-" + strconv.FormatInt(n, 10)
}
