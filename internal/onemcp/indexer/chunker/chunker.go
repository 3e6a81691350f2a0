package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	astext "github.com/yuin/goldmark/extension/ast"
	gmtext "github.com/yuin/goldmark/text"

	"onemcp/internal/onemcp/model"
)

// Config bounds the chunker's token budget. Values mirror SPEC_FULL.md §4.2's
// doc-indexing invariants: a non-protected chunk targets [MinTokens,
// MaxTokens]; OverlapTokens of trailing context carry forward between
// adjacent non-protected chunks so a fact split across a boundary is never
// lost to either side.
type Config struct {
	MinTokens     int
	MaxTokens     int
	OverlapTokens int
}

// DefaultConfig matches the budget used when indexing handbook docs/ trees.
func DefaultConfig() Config {
	return Config{MinTokens: 120, MaxTokens: 512, OverlapTokens: 40}
}

type block struct {
	sectionPath []string
	text        string
	protected   bool
}

// Chunk splits markdown source into DocChunks: headings establish a section
// path, fenced code/HTML/tables/lists are kept whole as Protected chunks
// regardless of size (their text is the content lines recovered by nodeText,
// so fence lines, list markers and table pipes are not included), and
// everything else is grouped and split to the configured token budget with
// trailing overlap between consecutive pieces.
func Chunk(source []byte, cfg Config) []model.DocChunk {
	blocks := splitBlocks(source)

	var chunks []model.DocChunk
	var prevNonProtected *model.DocChunk

	for _, b := range blocks {
		if b.protected {
			chunks = append(chunks, model.DocChunk{
				SectionPath:   b.sectionPath,
				Content:       b.text,
				TokenEstimate: EstimateTokens(b.text),
				Protected:     true,
			})
			prevNonProtected = nil
			continue
		}

		pieces := splitToBudget(b.text, cfg)
		for _, p := range pieces {
			c := model.DocChunk{
				SectionPath:   b.sectionPath,
				Content:       p,
				TokenEstimate: EstimateTokens(p),
			}
			if prevNonProtected != nil {
				overlap := trailingOverlap(prevNonProtected.Content, cfg.OverlapTokens)
				if overlap != "" && !strings.HasPrefix(c.Content, overlap) {
					c.Content = overlap + "\n\n" + c.Content
					c.TokenEstimate = EstimateTokens(c.Content)
					c.OverlapFrom = overlap
				}
			}
			chunks = append(chunks, c)
			last := chunks[len(chunks)-1]
			prevNonProtected = &last
		}
	}
	return chunks
}

// splitBlocks parses source with goldmark and walks the top-level blocks,
// tracking the current heading path and collapsing non-protected runs of
// content into a single text block per section.
func splitBlocks(source []byte) []block {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	reader := gmtext.NewReader(source)
	doc := md.Parser().Parse(reader)

	var blocks []block
	var headingPath []string
	var pending strings.Builder

	flush := func() {
		text := strings.TrimSpace(pending.String())
		if text != "" {
			blocks = append(blocks, block{sectionPath: append([]string(nil), headingPath...), text: text})
		}
		pending.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch n.Kind() {
		case ast.KindHeading:
			flush()
			h := n.(*ast.Heading)
			title := strings.TrimSpace(nodeText(n, source))
			if h.Level-1 <= len(headingPath) {
				headingPath = headingPath[:max(0, h.Level-1)]
			}
			headingPath = append(headingPath, title)
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock, ast.KindList, astext.KindTable:
			flush()
			blocks = append(blocks, block{
				sectionPath: append([]string(nil), headingPath...),
				text:        nodeText(n, source),
				protected:   true,
			})
		default:
			pending.WriteString(nodeText(n, source))
			pending.WriteString("\n\n")
		}
	}
	flush()
	return blocks
}

type linesNode interface {
	Lines() *gmtext.Segments
}

// nodeText recovers a node's literal source text. Leaf-ish blocks expose
// Lines() directly; container blocks (lists, blockquotes, tables) recurse
// into their children, which eventually bottom out at a Lines()-bearing node.
func nodeText(n ast.Node, source []byte) string {
	if ln, ok := n.(linesNode); ok {
		segs := ln.Lines()
		if segs != nil && segs.Len() > 0 {
			var b strings.Builder
			for i := 0; i < segs.Len(); i++ {
				seg := segs.At(i)
				b.Write(seg.Value(source))
			}
			return b.String()
		}
	}
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.WriteString(nodeText(c, source))
		if c.NextSibling() != nil {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
