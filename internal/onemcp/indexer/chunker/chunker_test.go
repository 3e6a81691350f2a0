package chunker_test

import (
	"strings"
	"testing"

	"onemcp/internal/onemcp/indexer/chunker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkKeepsCodeBlocksWhole(t *testing.T) {
	source := []byte("# Title\n\nSome intro text.\n\n```go\nfunc main() {}\n```\n\nMore text after.\n")
	chunks := chunker.Chunk(source, chunker.DefaultConfig())

	require.NotEmpty(t, chunks)
	var found bool
	for _, c := range chunks {
		if c.Protected {
			found = true
			assert.Contains(t, c.Content, "func main()")
		}
	}
	assert.True(t, found, "expected one protected chunk for the fenced code block")
}

func TestChunkTracksHeadingSectionPath(t *testing.T) {
	source := []byte("# A\n\nAlpha text.\n\n## B\n\nBeta text.\n")
	chunks := chunker.Chunk(source, chunker.DefaultConfig())

	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.Equal(t, []string{"A", "B"}, last.SectionPath)
}

func TestChunkSplitsOversizedSectionsWithinBudget(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("This is a sentence about sales data reporting. ")
	}
	source := []byte("# Report\n\n" + b.String())
	cfg := chunker.Config{MinTokens: 50, MaxTokens: 200, OverlapTokens: 10}

	chunks := chunker.Chunk(source, cfg)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		if c.Protected {
			continue
		}
		assert.LessOrEqual(t, c.TokenEstimate, cfg.MaxTokens+20, "chunk exceeds budget even after accounting for overlap padding")
	}
}

func TestChunkOverlapsConsecutivePieces(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("Sentence number about revenue growth and quarterly totals. ")
	}
	cfg := chunker.Config{MinTokens: 50, MaxTokens: 150, OverlapTokens: 20}
	chunks := chunker.Chunk([]byte(b.String()), cfg)

	require.Greater(t, len(chunks), 1)
	assert.NotEmpty(t, chunks[1].OverlapFrom)
}
