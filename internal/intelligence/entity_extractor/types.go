// Package entity_extractor implements chunked named-entity extraction with
// cross-chunk coreference stitching.  Documents too large for a single pass
// through the annotation engine are split at sentence boundaries, annotated
// chunk by chunk, and reassembled into one de-duplicated, globally-consistent
// mention list in which pronouns and short references inherit the label of
// their coreference chain.
package entity_extractor

// Mention is one occurrence of a named entity in the document, with
// document-global half-open character offsets.  A mention is uniquely
// identified by its (Start, End) pair.
type Mention struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Span is a half-open character range.
type Span struct {
	Start int
	End   int
}

// Len returns the number of characters covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// ChainMention is a single member of a coreference chain.  Offsets are
// document-global, assigned by the whole-document coreference pass.
type ChainMention struct {
	Start int
	End   int
	Text  string
}

// Chain is an ordered collection of mentions the annotation engine believes
// refer to the same real-world entity.  Representative indexes the mention
// considered most informative for label inference.  Chains are produced once
// per document and are read-only afterwards.
type Chain struct {
	ID             int
	Mentions       []ChainMention
	Representative int
}

// RepresentativeMention returns the designated representative, or false when
// the chain is empty or the index is out of range.
func (c Chain) RepresentativeMention() (ChainMention, bool) {
	if c.Representative < 0 || c.Representative >= len(c.Mentions) {
		return ChainMention{}, false
	}
	return c.Mentions[c.Representative], true
}

// Chunk is a contiguous slice of the document submitted to the annotation
// engine in one call.  Start is the document-global offset of Text[0].
type Chunk struct {
	Start int
	Text  string
}

// End returns the document-global offset one past the last character.
func (c Chunk) End() int { return c.Start + len(c.Text) }

// Contains reports whether the document-global offset falls inside the chunk.
// A chain mention belongs to exactly the chunk that contains its start
// offset, which is what keeps each mention attempted exactly once.
func (c Chunk) Contains(global int) bool {
	return c.Start <= global && global < c.End()
}

// toLocal converts a document-global offset into a chunk-local one.
func (c Chunk) toLocal(global int) int { return global - c.Start }

// toGlobal converts a chunk-local offset into a document-global one.
func (c Chunk) toGlobal(local int) int { return local + c.Start }
