package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"onemcp/internal/onemcp/model"
)

// CacheKey computes the plan cache key for a normalized schema. Only the
// key-contributing positions — action, entities, fields, groupBy — feed the
// hash; Params and Filters values never do, so two prompts differing only in
// a literal filter value (e.g. a specific year) still collapse onto the same
// cached plan, per SPEC_FULL.md §4.4/§4.5.
func CacheKey(schema *model.PromptSchema) string {
	entities := sortedCopy(schema.Entities)
	fields := sortedCopy(schema.Fields)
	groupBy := sortedCopy(schema.GroupBy)

	h := sha256.New()
	h.Write([]byte(string(schema.Action)))
	h.Write([]byte("|"))
	h.Write([]byte(strings.Join(entities, ",")))
	h.Write([]byte("|"))
	h.Write([]byte(strings.Join(fields, ",")))
	h.Write([]byte("|"))
	h.Write([]byte(strings.Join(groupBy, ",")))

	return hex.EncodeToString(h.Sum(nil))
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
