package model

// DocChunk is one semantically split markdown segment produced by the
// indexer's chunker. Non-protected pieces target [minTokens, maxTokens], but a
// piece can fall below minTokens (when the next paragraph would overflow
// maxTokens, or at the end of a section), a single sentence longer than
// maxTokens is kept whole, and the overlap prepended from the previous chunk
// can raise TokenEstimate above maxTokens by up to overlapTokens. A Protected
// block is emitted whole at any size.
type DocChunk struct {
	SectionPath   []string
	Content       string
	TokenEstimate int
	Protected     bool
	OverlapFrom   string // the trailing text prepended from the previous chunk, if any
}
