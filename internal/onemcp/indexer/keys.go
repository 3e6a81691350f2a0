package indexer

import (
	"fmt"
	"strings"
)

// Sanitize projects an arbitrary string onto the graph store's identifier
// rules: alphanumerics, '_' and '-' only, must not begin with a digit, and is
// bounded in length. Sanitize is idempotent: sanitize(sanitize(x)) == sanitize(x).
func Sanitize(input string) string {
	const maxLen = 200

	var b strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}

// NodeKey builds the deterministic key for a node by sanitizing
// "<nodeType>|<service>|<identity>", e.g.
// "API_OPERATION_DOCUMENTATION_acme_querySales".
func NodeKey(nodeType, serviceSlug, identity string) string {
	return Sanitize(fmt.Sprintf("%s|%s|%s", nodeType, serviceSlug, identity))
}
