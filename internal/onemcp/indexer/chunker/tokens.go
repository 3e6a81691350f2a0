// Package chunker implements the semantic markdown chunker described in
// SPEC_FULL.md §4.2: heading-scoped sections, protected blocks kept whole,
// oversized blocks split by paragraph then sentence, and a non-duplicating
// overlap rule between adjacent chunks.
package chunker

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const charsPerTokenHeuristic = 4

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// EstimateTokens approximates the token count of text. It prefers the real
// cl100k_base tokenizer (tiktoken-go) and falls back to the spec's ~4
// chars/token heuristic when the encoder cannot be loaded — e.g. offline —
// without changing the chunker's external contract (SPEC_FULL.md §9).
func EstimateTokens(text string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	if enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return heuristicTokens(text)
}

func heuristicTokens(text string) int {
	n := len(text) / charsPerTokenHeuristic
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}

// approxCharsForTokens inverts EstimateTokens for the purpose of slicing a
// trailing-overlap window out of a chunk; it does not need to be exact, only
// a stable approximation usable for both the real tokenizer and the fallback.
func approxCharsForTokens(tokens int) int {
	return tokens * charsPerTokenHeuristic
}
