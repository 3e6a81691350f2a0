package chunker

import (
	"strings"
)

// splitToBudget breaks text into pieces targeting [cfg.MinTokens,
// cfg.MaxTokens] tokens, splitting on paragraph boundaries first and falling
// back to sentence boundaries for any paragraph that alone exceeds MaxTokens.
// A piece may land under MinTokens when the next paragraph would overflow
// MaxTokens or when the section runs out of text, and a single sentence
// longer than MaxTokens is returned whole.
func splitToBudget(text string, cfg Config) []string {
	if EstimateTokens(text) <= cfg.MaxTokens {
		return []string{text}
	}

	var out []string
	var buf strings.Builder

	flush := func() {
		s := strings.TrimSpace(buf.String())
		if s != "" {
			out = append(out, s)
		}
		buf.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		candidate := para
		if buf.Len() > 0 {
			candidate = buf.String() + "\n\n" + para
		}

		if EstimateTokens(candidate) <= cfg.MaxTokens {
			buf.Reset()
			buf.WriteString(candidate)
			if EstimateTokens(buf.String()) >= cfg.MinTokens {
				flush()
			}
			continue
		}

		// candidate overflows: flush what we have, then deal with para alone.
		flush()
		if EstimateTokens(para) <= cfg.MaxTokens {
			buf.WriteString(para)
			continue
		}
		for _, s := range splitSentences(para, cfg.MaxTokens) {
			out = append(out, s)
		}
	}
	flush()

	return mergeUndersizedTail(out, cfg)
}

// splitSentences breaks an oversized paragraph on sentence boundaries,
// packing consecutive sentences up to maxTokens per piece.
func splitSentences(text string, maxTokens int) []string {
	sentences := splitOnAny(text, []string{". ", "? ", "! ", "\n"})

	var out []string
	var buf strings.Builder

	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		candidate := s
		if buf.Len() > 0 {
			candidate = buf.String() + " " + s
		}
		if EstimateTokens(candidate) <= maxTokens || buf.Len() == 0 {
			buf.Reset()
			buf.WriteString(candidate)
			continue
		}
		out = append(out, buf.String())
		buf.Reset()
		buf.WriteString(s)
	}
	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}

func splitOnAny(text string, seps []string) []string {
	result := []string{text}
	for _, sep := range seps {
		var next []string
		for _, piece := range result {
			parts := strings.Split(piece, sep)
			for i, p := range parts {
				if i < len(parts)-1 {
					p += sep
				}
				next = append(next, p)
			}
		}
		result = next
	}
	return result
}

// mergeUndersizedTail folds a final undersized piece into its predecessor
// when that doesn't overflow MaxTokens, avoiding a lone tiny trailing chunk.
func mergeUndersizedTail(pieces []string, cfg Config) []string {
	if len(pieces) < 2 {
		return pieces
	}
	last := pieces[len(pieces)-1]
	if EstimateTokens(last) >= cfg.MinTokens {
		return pieces
	}
	merged := pieces[len(pieces)-2] + "\n\n" + last
	if EstimateTokens(merged) > cfg.MaxTokens {
		return pieces
	}
	out := append([]string(nil), pieces[:len(pieces)-2]...)
	return append(out, merged)
}

// trailingOverlap returns the tail of text worth roughly overlapTokens
// tokens, trimmed to a word boundary so it never splits mid-word.
func trailingOverlap(text string, overlapTokens int) string {
	if overlapTokens <= 0 || text == "" {
		return ""
	}
	chars := approxCharsForTokens(overlapTokens)
	if chars >= len(text) {
		return text
	}
	tail := text[len(text)-chars:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}
